// Package payment adapts orders to the Midtrans payment gateway. QRIS
// charges go through the Core API and return a QR redirect URL; every other
// method goes through Snap and returns a token plus redirect URL.
package payment

import (
	"context"
	"fmt"

	"order-service/internal/apperr"
	"order-service/internal/orders"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
)

// Config carries the gateway credentials. It is constructed at startup and
// passed in; the adapter keeps no other state.
type Config struct {
	ServerKey  string
	ClientKey  string
	Production bool
}

type Adapter struct {
	cfg  Config
	snap snap.Client
	core coreapi.Client
}

func New(cfg Config) (*Adapter, error) {
	if cfg.ServerKey == "" {
		return nil, fmt.Errorf("gateway server key is empty")
	}
	env := midtrans.Sandbox
	if cfg.Production {
		env = midtrans.Production
	}

	a := &Adapter{cfg: cfg}
	a.snap.New(cfg.ServerKey, env)
	a.core.New(cfg.ServerKey, env)
	return a, nil
}

// CreateTransaction obtains a gateway transaction handle for a persisted
// order. It performs exactly one network call and does not retry; the
// caller decides what to do with a failure.
func (a *Adapter) CreateTransaction(ctx context.Context, order orders.Order) (orders.PaymentInfo, error) {
	gatewayOrderID := orders.GatewayOrderID(order.ID)

	switch order.Payment.Method {
	case orders.MethodQris:
		return a.chargeQris(gatewayOrderID, order)
	case orders.MethodCreditCard, orders.MethodBankTransfer, orders.MethodGopay, orders.MethodShopeepay:
		return a.createSnapTransaction(gatewayOrderID, order)
	default:
		return orders.PaymentInfo{}, apperr.New(apperr.KindUnsupportedPaymentMethod,
			"payment method %q is not supported", order.Payment.Method)
	}
}

func (a *Adapter) chargeQris(gatewayOrderID string, order orders.Order) (orders.PaymentInfo, error) {
	req := &coreapi.ChargeReq{
		PaymentType: coreapi.PaymentTypeQris,
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  gatewayOrderID,
			GrossAmt: order.Payment.Amount,
		},
		Items: itemDetails(order),
		Qris:  &coreapi.QrisDetails{Acquirer: "gopay"},
	}

	res, err := a.core.ChargeTransaction(req)
	if err != nil {
		return orders.PaymentInfo{}, apperr.Wrap(apperr.KindGateway, err,
			"qris charge failed for order %d", order.ID)
	}

	var qrURL string
	for _, action := range res.Actions {
		if action.Name == "generate-qr-code" {
			qrURL = action.URL
			break
		}
	}
	if qrURL == "" {
		return orders.PaymentInfo{}, apperr.New(apperr.KindGateway,
			"qris charge for order %d returned no qr action", order.ID)
	}

	return orders.PaymentInfo{
		Type:        orders.PaymentInfoQris,
		RedirectURL: qrURL,
	}, nil
}

func (a *Adapter) createSnapTransaction(gatewayOrderID string, order orders.Order) (orders.PaymentInfo, error) {
	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  gatewayOrderID,
			GrossAmt: order.Payment.Amount,
		},
		Items:           itemDetails(order),
		EnabledPayments: snapPaymentTypes(order.Payment.Method),
	}

	res, err := a.snap.CreateTransaction(req)
	if err != nil {
		return orders.PaymentInfo{}, apperr.Wrap(apperr.KindGateway, err,
			"snap transaction failed for order %d", order.ID)
	}

	return orders.PaymentInfo{
		Type:        orders.PaymentInfoSnap,
		Token:       res.Token,
		RedirectURL: res.RedirectURL,
	}, nil
}

func itemDetails(order orders.Order) *[]midtrans.ItemDetails {
	items := make([]midtrans.ItemDetails, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, midtrans.ItemDetails{
			ID:    fmt.Sprintf("%d", item.ProductID),
			Name:  item.ProductName,
			Price: item.UnitPrice,
			Qty:   int32(item.Quantity),
		})
	}
	return &items
}

func snapPaymentTypes(method orders.PaymentMethod) []snap.SnapPaymentType {
	switch method {
	case orders.MethodCreditCard:
		return []snap.SnapPaymentType{snap.PaymentTypeCreditCard}
	case orders.MethodBankTransfer:
		return []snap.SnapPaymentType{snap.PaymentTypeBankTransfer}
	case orders.MethodGopay:
		return []snap.SnapPaymentType{snap.PaymentTypeGopay}
	case orders.MethodShopeepay:
		return []snap.SnapPaymentType{snap.PaymentTypeShopeepay}
	default:
		return nil
	}
}

package orders

import "time"

type OrderStatus string

const (
	StatusPending    OrderStatus = "PENDING"
	StatusProcessing OrderStatus = "PROCESSING"
	StatusShipped    OrderStatus = "SHIPPED"
	StatusDelivered  OrderStatus = "DELIVERED"
	StatusCanceled   OrderStatus = "CANCELED"
)

// ValidStatus reports whether s is one of the known order statuses.
func ValidStatus(s OrderStatus) bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCanceled:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentSuccess PaymentStatus = "SUCCESS"
	PaymentDeny    PaymentStatus = "DENY"
	PaymentCancel  PaymentStatus = "CANCEL"
	PaymentExpire  PaymentStatus = "EXPIRE"
)

type PaymentMethod string

const (
	MethodQris         PaymentMethod = "qris"
	MethodCreditCard   PaymentMethod = "credit_card"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodGopay        PaymentMethod = "gopay"
	MethodShopeepay    PaymentMethod = "shopeepay"
)

func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case MethodQris, MethodCreditCard, MethodBankTransfer, MethodGopay, MethodShopeepay:
		return true
	}
	return false
}

// Order is the aggregate root. Items, Address, Payment and Cancellation are
// owned by the order and created/deleted with it.
type Order struct {
	ID           int64              `json:"id"`
	UserID       string             `json:"user_id"`
	Status       OrderStatus        `json:"status"`
	Items        []OrderItem        `json:"items"`
	Address      ShippingAddress    `json:"shipping_address"`
	Payment      Payment            `json:"payment"`
	Cancellation *OrderCancellation `json:"cancellation,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// OrderItem snapshots the product name, price and partner at order time so
// later catalog changes never affect an existing order.
type OrderItem struct {
	ID          int64      `json:"id"`
	OrderID     int64      `json:"order_id"`
	ProductID   int64      `json:"product_id"`
	PartnerID   int64      `json:"partner_id"`
	ProductName string     `json:"product_name"`
	Quantity    int        `json:"quantity"`
	UnitPrice   int64      `json:"unit_price"`
	Note        string     `json:"note,omitempty"`
	NotifiedAt  *time.Time `json:"notified_at,omitempty"`
}

// Payment is one-to-one with its order. Token and RedirectURL hold the
// gateway transaction handle once acquired.
type Payment struct {
	ID          int64         `json:"id"`
	OrderID     int64         `json:"order_id"`
	Method      PaymentMethod `json:"method"`
	Status      PaymentStatus `json:"status"`
	Amount      int64         `json:"amount"`
	Type        string        `json:"payment_type,omitempty"` // as reported by the gateway
	Token       string        `json:"token,omitempty"`
	RedirectURL string        `json:"redirect_url,omitempty"`
}

type ShippingAddress struct {
	ID      int64  `json:"id"`
	OrderID int64  `json:"order_id"`
	Address string `json:"address"`
}

type OrderCancellation struct {
	ID          int64     `json:"id"`
	OrderID     int64     `json:"order_id"`
	Reason      string    `json:"reason"`
	CancelledBy string    `json:"cancelled_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewOrder is the checkout input after JSON binding.
type NewOrder struct {
	Items         []NewOrderItem `json:"items" validate:"required,min=1,dive"`
	Address       string         `json:"address" validate:"required"`
	PaymentMethod string         `json:"payment_method" validate:"required"`
}

type NewOrderItem struct {
	ProductID int64  `json:"products_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
	Note      string `json:"note"`
}

// Actor identifies who is performing an order mutation.
type Actor struct {
	ID    string
	Admin bool
}

// PaymentInfo is the normalized gateway transaction handle returned to the
// client after checkout.
type PaymentInfo struct {
	Type        string `json:"type"` // "qris" or "snap"
	Token       string `json:"token,omitempty"`
	RedirectURL string `json:"redirect_url,omitempty"`
}

const (
	PaymentInfoQris = "qris"
	PaymentInfoSnap = "snap"
)

// CheckoutResult is what checkout hands back: the persisted aggregate and
// the gateway handle.
type CheckoutResult struct {
	Order       Order       `json:"order"`
	PaymentInfo PaymentInfo `json:"payment_info"`
}

// Notification is the gateway webhook payload this service consumes.
type Notification struct {
	TransactionStatus string `json:"transaction_status"`
	PaymentType       string `json:"payment_type"`
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	FraudStatus       string `json:"fraud_status"`
	SignatureKey      string `json:"signature_key"`
}

// PartnerNotification is the rendered digest handed to the operator for
// manual delivery.
type PartnerNotification struct {
	PartnerID   int64  `json:"partner_id"`
	Message     string `json:"message"`
	DeliveryURL string `json:"delivery_url"`
}

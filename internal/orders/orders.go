package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"order-service/internal/apperr"
	"order-service/internal/partners"
	"order-service/internal/products"
)

// Catalog resolves product ids against the catalog at order time.
type Catalog interface {
	FindProductsByIDs(ctx context.Context, ids []int64) (map[int64]products.Product, error)
}

// Gateway acquires a payment transaction handle for a persisted order.
type Gateway interface {
	CreateTransaction(ctx context.Context, order Order) (PaymentInfo, error)
}

// PartnerDirectory resolves fulfillment partners for notification delivery.
type PartnerDirectory interface {
	GetPartnerByID(ctx context.Context, id int64) (partners.Partner, error)
}

type Conf struct {
	db       *sql.DB
	catalog  Catalog
	gateway  Gateway
	partners PartnerDirectory
}

func NewConf(db *sql.DB, catalog Catalog, gateway Gateway, partners PartnerDirectory) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog is nil")
	}
	if gateway == nil {
		return nil, fmt.Errorf("gateway is nil")
	}
	if partners == nil {
		return nil, fmt.Errorf("partner directory is nil")
	}
	return &Conf{db: db, catalog: catalog, gateway: gateway, partners: partners}, nil
}

// CreateOrder validates the checkout input, snapshots catalog prices,
// persists the order aggregate atomically with a PENDING payment, then asks
// the gateway for a transaction handle and stores it on the payment.
//
// If the gateway call fails after the insert the order is left PENDING with
// no payment reference and the error is returned; the client may retry token
// acquisition, the order is not recreated.
func (c *Conf) CreateOrder(ctx context.Context, userID string, no NewOrder) (CheckoutResult, error) {
	if err := validateNewOrder(no); err != nil {
		return CheckoutResult{}, err
	}

	ids := make([]int64, 0, len(no.Items))
	seen := make(map[int64]bool, len(no.Items))
	for _, item := range no.Items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}

	found, err := c.catalog.FindProductsByIDs(ctx, ids)
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("resolving products: %w", err)
	}

	now := time.Now().UTC()
	order := Order{
		UserID:    userID,
		Status:    StatusPending,
		Address:   ShippingAddress{Address: no.Address},
		CreatedAt: now,
		UpdatedAt: now,
	}

	items, total, err := buildOrderItems(no.Items, found)
	if err != nil {
		return CheckoutResult{}, err
	}
	order.Items = items
	order.Payment = Payment{
		Method: PaymentMethod(no.PaymentMethod),
		Status: PaymentPending,
		Amount: total,
	}

	err = c.withTx(ctx, func(tx *sql.Tx) error {
		return c.insertOrderAggregate(ctx, tx, &order)
	})
	if err != nil {
		return CheckoutResult{}, apperr.Wrap(apperr.KindInternal, err, "persisting order")
	}

	paymentInfo, err := c.gateway.CreateTransaction(ctx, order)
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("acquiring gateway transaction for order %d: %w", order.ID, err)
	}

	if err := c.updatePaymentReference(ctx, order.ID, paymentInfo); err != nil {
		return CheckoutResult{}, err
	}

	full, err := c.GetOrderByID(ctx, order.ID)
	if err != nil {
		return CheckoutResult{}, err
	}
	return CheckoutResult{Order: full, PaymentInfo: paymentInfo}, nil
}

// buildOrderItems snapshots catalog data onto order items and computes the
// total in integer currency units.
func buildOrderItems(items []NewOrderItem, found map[int64]products.Product) ([]OrderItem, int64, error) {
	var (
		out   []OrderItem
		total int64
	)
	for _, item := range items {
		product, ok := found[item.ProductID]
		if !ok {
			return nil, 0, apperr.New(apperr.KindNotFound,
				"product %d not found", item.ProductID)
		}
		if product.PartnerID == nil {
			return nil, 0, apperr.New(apperr.KindConflict,
				"product %d has no partner assigned", item.ProductID)
		}
		total += product.Price * int64(item.Quantity)
		out = append(out, OrderItem{
			ProductID:   product.ID,
			PartnerID:   *product.PartnerID,
			ProductName: product.Name,
			Quantity:    item.Quantity,
			UnitPrice:   product.Price,
			Note:        item.Note,
		})
	}
	return out, total, nil
}

func validateNewOrder(no NewOrder) error {
	e := apperr.New(apperr.KindValidation, "invalid checkout request")
	if len(no.Items) == 0 {
		e.WithField("items", "at least one item is required")
	}
	for _, item := range no.Items {
		if item.ProductID <= 0 {
			e.WithField("items.products_id", "product id is required")
		}
		if item.Quantity <= 0 {
			e.WithField("items.quantity", "quantity must be at least 1")
		}
	}
	if no.Address == "" {
		e.WithField("address", "shipping address is required")
	}
	if no.PaymentMethod == "" {
		e.WithField("payment_method", "payment method is required")
	} else if !ValidPaymentMethod(PaymentMethod(no.PaymentMethod)) {
		e.WithField("payment_method", fmt.Sprintf("unknown payment method %q", no.PaymentMethod))
	}
	if len(e.Fields) > 0 {
		return e
	}
	return nil
}

// insertOrderAggregate writes the order and everything it owns inside tx and
// fills in the generated ids.
func (c *Conf) insertOrderAggregate(ctx context.Context, tx *sql.Tx, order *Order) error {
	queryOrder := `
		INSERT INTO orders (user_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := tx.QueryRowContext(ctx, queryOrder, order.UserID, order.Status,
		order.CreatedAt, order.UpdatedAt).Scan(&order.ID)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	queryItem := `
		INSERT INTO order_items (order_id, product_id, partner_id, product_name, quantity, unit_price, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		err = tx.QueryRowContext(ctx, queryItem, order.ID, item.ProductID, item.PartnerID,
			item.ProductName, item.Quantity, item.UnitPrice, item.Note).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	queryAddress := `
		INSERT INTO shipping_addresses (order_id, address)
		VALUES ($1, $2)
		RETURNING id
	`
	order.Address.OrderID = order.ID
	err = tx.QueryRowContext(ctx, queryAddress, order.ID, order.Address.Address).Scan(&order.Address.ID)
	if err != nil {
		return fmt.Errorf("failed to insert shipping address: %w", err)
	}

	queryPayment := `
		INSERT INTO payments (order_id, method, status, amount)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	order.Payment.OrderID = order.ID
	err = tx.QueryRowContext(ctx, queryPayment, order.ID, order.Payment.Method,
		order.Payment.Status, order.Payment.Amount).Scan(&order.Payment.ID)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

func (c *Conf) updatePaymentReference(ctx context.Context, orderID int64, info PaymentInfo) error {
	query := `
		UPDATE payments
		SET token = $1, redirect_url = $2
		WHERE order_id = $3
	`
	res, err := c.db.ExecContext(ctx, query, info.Token, info.RedirectURL, orderID)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "updating payment reference for order %d", orderID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.New(apperr.KindNotFound, "payment for order %d not found", orderID)
	}
	return nil
}

// GetOrderByID loads the full order aggregate.
func (c *Conf) GetOrderByID(ctx context.Context, orderID int64) (Order, error) {
	queryOrder := `
		SELECT id, user_id, status, created_at, updated_at
		FROM orders
		WHERE id = $1
	`
	var order Order
	err := c.db.QueryRowContext(ctx, queryOrder, orderID).Scan(&order.ID, &order.UserID,
		&order.Status, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, apperr.New(apperr.KindNotFound, "order %d not found", orderID)
		}
		return Order{}, apperr.Wrap(apperr.KindInternal, err, "querying order %d", orderID)
	}

	queryItems := `
		SELECT id, order_id, product_id, partner_id, product_name, quantity, unit_price, note, notified_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`
	rows, err := c.db.QueryContext(ctx, queryItems, orderID)
	if err != nil {
		return Order{}, apperr.Wrap(apperr.KindInternal, err, "querying items of order %d", orderID)
	}
	defer rows.Close()
	for rows.Next() {
		var item OrderItem
		var note sql.NullString
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.PartnerID,
			&item.ProductName, &item.Quantity, &item.UnitPrice, &note, &item.NotifiedAt); err != nil {
			return Order{}, apperr.Wrap(apperr.KindInternal, err, "scanning order item")
		}
		item.Note = note.String
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return Order{}, apperr.Wrap(apperr.KindInternal, err, "iterating items of order %d", orderID)
	}

	queryAddress := `
		SELECT id, order_id, address
		FROM shipping_addresses
		WHERE order_id = $1
	`
	err = c.db.QueryRowContext(ctx, queryAddress, orderID).Scan(&order.Address.ID,
		&order.Address.OrderID, &order.Address.Address)
	if err != nil {
		return Order{}, apperr.Wrap(apperr.KindInternal, err, "querying address of order %d", orderID)
	}

	queryPayment := `
		SELECT id, order_id, method, status, amount, COALESCE(payment_type, ''), COALESCE(token, ''), COALESCE(redirect_url, '')
		FROM payments
		WHERE order_id = $1
	`
	err = c.db.QueryRowContext(ctx, queryPayment, orderID).Scan(&order.Payment.ID,
		&order.Payment.OrderID, &order.Payment.Method, &order.Payment.Status,
		&order.Payment.Amount, &order.Payment.Type, &order.Payment.Token, &order.Payment.RedirectURL)
	if err != nil {
		return Order{}, apperr.Wrap(apperr.KindInternal, err, "querying payment of order %d", orderID)
	}

	queryCancellation := `
		SELECT id, order_id, reason, cancelled_by, created_at
		FROM order_cancellations
		WHERE order_id = $1
	`
	var cancellation OrderCancellation
	err = c.db.QueryRowContext(ctx, queryCancellation, orderID).Scan(&cancellation.ID,
		&cancellation.OrderID, &cancellation.Reason, &cancellation.CancelledBy, &cancellation.CreatedAt)
	switch {
	case err == nil:
		order.Cancellation = &cancellation
	case errors.Is(err, sql.ErrNoRows):
		// not cancelled
	default:
		return Order{}, apperr.Wrap(apperr.KindInternal, err, "querying cancellation of order %d", orderID)
	}

	return order, nil
}

// HandlePaymentNotification maps a gateway callback onto the order's payment
// record. Repeated notifications overwrite the status unconditionally: last
// write wins, there is no reconciliation of out-of-order callbacks.
func (c *Conf) HandlePaymentNotification(ctx context.Context, n Notification) (Order, error) {
	orderID, err := ParseGatewayOrderID(n.OrderID)
	if err != nil {
		return Order{}, err
	}

	status := MapNotificationStatus(n.TransactionStatus, n.PaymentType, n.FraudStatus)

	query := `
		UPDATE payments
		SET status = $1, payment_type = $2
		WHERE order_id = $3
	`
	res, err := c.db.ExecContext(ctx, query, status, n.PaymentType, orderID)
	if err != nil {
		return Order{}, apperr.Wrap(apperr.KindInternal, err, "updating payment status for order %d", orderID)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return Order{}, apperr.New(apperr.KindNotFound, "payment for order %d not found", orderID)
	}

	return c.GetOrderByID(ctx, orderID)
}

// UpdateOrderStatus applies one transition of the order status state
// machine on behalf of actor.
func (c *Conf) UpdateOrderStatus(ctx context.Context, orderID int64, target OrderStatus, actor Actor) error {
	return c.withTx(ctx, func(tx *sql.Tx) error {
		owner, current, err := lockOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if err := checkTransition(actor, owner, current, target); err != nil {
			return err
		}
		return updateStatusTx(ctx, tx, orderID, target)
	})
}

// CancelOrder cancels the order and records why. The status flip and the
// cancellation row commit together or not at all.
func (c *Conf) CancelOrder(ctx context.Context, orderID int64, actor Actor, reason string) error {
	if reason == "" {
		return apperr.New(apperr.KindValidation, "cancellation reason is required").
			WithField("reason", "reason is required")
	}
	return c.withTx(ctx, func(tx *sql.Tx) error {
		owner, current, err := lockOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if err := checkTransition(actor, owner, current, StatusCanceled); err != nil {
			return err
		}
		if err := updateStatusTx(ctx, tx, orderID, StatusCanceled); err != nil {
			return err
		}

		query := `
			INSERT INTO order_cancellations (order_id, reason, cancelled_by, created_at)
			VALUES ($1, $2, $3, $4)
		`
		if _, err := tx.ExecContext(ctx, query, orderID, reason, actor.ID, time.Now().UTC()); err != nil {
			return apperr.Wrap(apperr.KindInternal, err, "inserting cancellation for order %d", orderID)
		}
		return nil
	})
}

func lockOrder(ctx context.Context, tx *sql.Tx, orderID int64) (owner string, current OrderStatus, err error) {
	query := `
		SELECT user_id, status
		FROM orders
		WHERE id = $1
		FOR UPDATE
	`
	err = tx.QueryRowContext(ctx, query, orderID).Scan(&owner, &current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", apperr.New(apperr.KindNotFound, "order %d not found", orderID)
		}
		return "", "", apperr.Wrap(apperr.KindInternal, err, "locking order %d", orderID)
	}
	return owner, current, nil
}

func updateStatusTx(ctx context.Context, tx *sql.Tx, orderID int64, status OrderStatus) error {
	query := `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`
	if _, err := tx.ExecContext(ctx, query, status, orderID); err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "updating status of order %d", orderID)
	}
	return nil
}

func (c *Conf) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if er := tx.Rollback(); er != nil && !errors.Is(er, sql.ErrTxDone) {
			return fmt.Errorf("failed to rollback withTx: %w", er)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit withTx: %w", err)
	}
	return nil
}

package orders

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	"order-service/internal/apperr"
)

// pendingItem is one order item awaiting partner notification, with the
// order context needed to render the digest.
type pendingItem struct {
	ID           int64
	OrderID      int64
	ProductName  string
	Quantity     int
	Note         string
	OrderStatus  OrderStatus
	CustomerName string
}

// NotifyPartner collects the partner's unnotified items on still-PENDING
// orders, renders a digest for manual delivery, and marks the items notified
// and their orders PROCESSING. The read, the mark and the status flip run in
// one transaction with the matched items locked, so two concurrent calls
// cannot notify the same item twice.
func (c *Conf) NotifyPartner(ctx context.Context, partnerID int64) (PartnerNotification, error) {
	partner, err := c.partners.GetPartnerByID(ctx, partnerID)
	if err != nil {
		return PartnerNotification{}, err
	}

	var items []pendingItem
	err = c.withTx(ctx, func(tx *sql.Tx) error {
		items, err = pendingItemsByPartner(ctx, tx, partnerID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return apperr.New(apperr.KindNotFound, "no pending items for partner %d", partnerID)
		}

		itemIDs := make([]int64, 0, len(items))
		orderIDs := make([]int64, 0, len(items))
		seenOrder := make(map[int64]bool)
		for _, item := range items {
			itemIDs = append(itemIDs, item.ID)
			if !seenOrder[item.OrderID] {
				seenOrder[item.OrderID] = true
				orderIDs = append(orderIDs, item.OrderID)
			}
		}

		if err := markItemsNotified(ctx, tx, itemIDs); err != nil {
			return err
		}
		return updateOrdersStatusBulk(ctx, tx, orderIDs, StatusProcessing)
	})
	if err != nil {
		return PartnerNotification{}, err
	}

	message := renderPartnerMessage(partner.Name, items)
	return PartnerNotification{
		PartnerID:   partnerID,
		Message:     message,
		DeliveryURL: deliveryURL(partner.Phone, message),
	}, nil
}

func pendingItemsByPartner(ctx context.Context, tx *sql.Tx, partnerID int64) ([]pendingItem, error) {
	query := `
		SELECT oi.id, oi.order_id, oi.product_name, oi.quantity, COALESCE(oi.note, ''), o.status, u.name
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN users u ON u.id = o.user_id
		WHERE oi.partner_id = $1
		  AND oi.notified_at IS NULL
		  AND o.status = $2
		ORDER BY oi.order_id, oi.id
		FOR UPDATE OF oi
	`
	rows, err := tx.QueryContext(ctx, query, partnerID, StatusPending)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "querying pending items for partner %d", partnerID)
	}
	defer rows.Close()

	var items []pendingItem
	for rows.Next() {
		var item pendingItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductName, &item.Quantity,
			&item.Note, &item.OrderStatus, &item.CustomerName); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, err, "scanning pending item")
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "iterating pending items")
	}
	return items, nil
}

func markItemsNotified(ctx context.Context, tx *sql.Tx, itemIDs []int64) error {
	query := `
		UPDATE order_items
		SET notified_at = NOW()
		WHERE id = ANY($1)
	`
	if _, err := tx.ExecContext(ctx, query, itemIDs); err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "marking items notified")
	}
	return nil
}

func updateOrdersStatusBulk(ctx context.Context, tx *sql.Tx, orderIDs []int64, status OrderStatus) error {
	query := `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE id = ANY($2)
	`
	if _, err := tx.ExecContext(ctx, query, status, orderIDs); err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "updating orders to %s", status)
	}
	return nil
}

// renderPartnerMessage builds a human readable summary grouped by order.
func renderPartnerMessage(partnerName string, items []pendingItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New order items for %s:\n", partnerName)

	var lastOrder int64
	for _, item := range items {
		if item.OrderID != lastOrder {
			fmt.Fprintf(&b, "\nOrder #%d (%s) for %s:\n", item.OrderID, item.OrderStatus, item.CustomerName)
			lastOrder = item.OrderID
		}
		fmt.Fprintf(&b, "- %dx %s", item.Quantity, item.ProductName)
		if item.Note != "" {
			fmt.Fprintf(&b, " (%s)", item.Note)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// deliveryURL builds the wa.me deep link used to deliver the digest
// manually.
func deliveryURL(phone, message string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	return fmt.Sprintf("https://wa.me/%s?text=%s", digits, url.QueryEscape(message))
}

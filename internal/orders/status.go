package orders

import (
	"fmt"
	"regexp"
	"strconv"

	"order-service/internal/apperr"

	"github.com/google/uuid"
)

// Gateway order ids look like ORDER-42-9f1c2d3e: a fixed prefix, the numeric
// order id, then a uniqueness suffix so the gateway never sees a duplicate
// id when a charge is retried for the same order.
const gatewayOrderPrefix = "ORDER"

var gatewayOrderPattern = regexp.MustCompile(`^` + gatewayOrderPrefix + `-(\d+)-.+`)

// GatewayOrderID builds the composite transaction id sent to the gateway.
func GatewayOrderID(orderID int64) string {
	return fmt.Sprintf("%s-%d-%s", gatewayOrderPrefix, orderID, uuid.NewString()[:8])
}

// ParseGatewayOrderID extracts the internal order id from a composite
// gateway transaction id.
func ParseGatewayOrderID(gatewayID string) (int64, error) {
	m := gatewayOrderPattern.FindStringSubmatch(gatewayID)
	if m == nil {
		return 0, apperr.New(apperr.KindValidation, "malformed gateway order id %q", gatewayID)
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, apperr.New(apperr.KindValidation, "malformed gateway order id %q", gatewayID)
	}
	return id, nil
}

// MapNotificationStatus translates the gateway status vocabulary into the
// internal payment status. Unknown statuses fall back to PENDING so a new
// gateway status never flips a payment into a final state by accident.
func MapNotificationStatus(transactionStatus, paymentType, fraudStatus string) PaymentStatus {
	switch transactionStatus {
	case "capture":
		if fraudStatus == "challenge" {
			return PaymentDeny
		}
		return PaymentSuccess
	case "settlement":
		return PaymentSuccess
	case "pending":
		return PaymentPending
	case "deny":
		return PaymentDeny
	case "cancel":
		return PaymentCancel
	case "expire":
		return PaymentExpire
	default:
		return PaymentPending
	}
}

// checkTransition enforces the status state machine. ownerID is the order's
// owner; current its status before the change. Admins may move an order to
// SHIPPED, DELIVERED or CANCELED. The owning customer may cancel a PENDING
// order and confirm delivery of a SHIPPED one. Everything else is rejected.
func checkTransition(actor Actor, ownerID string, current, target OrderStatus) error {
	if !ValidStatus(target) {
		return apperr.New(apperr.KindValidation, "unknown order status %q", target)
	}

	if actor.Admin {
		switch target {
		case StatusShipped, StatusDelivered, StatusCanceled:
			return nil
		}
		return apperr.New(apperr.KindValidation,
			"admin may not move an order to %s", target)
	}

	if actor.ID != ownerID {
		return apperr.New(apperr.KindForbidden, "order belongs to another user")
	}

	switch {
	case target == StatusCanceled && current == StatusPending:
		return nil
	case target == StatusDelivered && current == StatusShipped:
		return nil
	}
	return apperr.New(apperr.KindValidation,
		"customer may not move an order from %s to %s", current, target)
}

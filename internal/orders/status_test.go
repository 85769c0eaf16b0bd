package orders

import (
	"fmt"
	"testing"

	"order-service/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapNotificationStatus(t *testing.T) {
	tests := []struct {
		name              string
		transactionStatus string
		paymentType       string
		fraudStatus       string
		want              PaymentStatus
	}{
		{"capture challenged", "capture", "credit_card", "challenge", PaymentDeny},
		{"capture credit card accepted", "capture", "credit_card", "accept", PaymentSuccess},
		{"capture credit card no fraud status", "capture", "credit_card", "", PaymentSuccess},
		{"capture non credit card", "capture", "gopay", "", PaymentSuccess},
		{"settlement", "settlement", "bank_transfer", "", PaymentSuccess},
		{"pending", "pending", "qris", "", PaymentPending},
		{"deny", "deny", "credit_card", "", PaymentDeny},
		{"cancel", "cancel", "gopay", "", PaymentCancel},
		{"expire", "expire", "bank_transfer", "", PaymentExpire},
		{"unknown falls back to pending", "refund", "credit_card", "", PaymentPending},
		{"empty falls back to pending", "", "", "", PaymentPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapNotificationStatus(tt.transactionStatus, tt.paymentType, tt.fraudStatus)
			assert.Equal(t, tt.want, got)

			// mapping is a pure function of its inputs
			assert.Equal(t, got, MapNotificationStatus(tt.transactionStatus, tt.paymentType, tt.fraudStatus))
		})
	}
}

func TestParseGatewayOrderID(t *testing.T) {
	id, err := ParseGatewayOrderID("ORDER-42-1693132800")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	id, err = ParseGatewayOrderID("ORDER-7-9f1c2d3e")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	for _, malformed := range []string{
		"",
		"ORDER-42",
		"ORDER-42-",
		"ORDER--abc",
		"PAY-42-abc",
		"order-42-abc",
		"42-ORDER-abc",
	} {
		_, err := ParseGatewayOrderID(malformed)
		require.Error(t, err, "input %q", malformed)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	}
}

func TestGatewayOrderIDRoundTrip(t *testing.T) {
	gid := GatewayOrderID(1234)
	id, err := ParseGatewayOrderID(gid)
	require.NoError(t, err)
	assert.Equal(t, int64(1234), id)

	// uniqueness suffix differs between calls for the same order
	assert.NotEqual(t, gid, GatewayOrderID(1234))
}

func TestCheckTransitionTableIsExhaustive(t *testing.T) {
	const owner = "user-1"
	statuses := []OrderStatus{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCanceled}

	type triple struct {
		admin   bool
		current OrderStatus
		target  OrderStatus
	}
	allowed := map[triple]bool{}
	for _, current := range statuses {
		// admins may ship, deliver or cancel regardless of current status
		allowed[triple{true, current, StatusShipped}] = true
		allowed[triple{true, current, StatusDelivered}] = true
		allowed[triple{true, current, StatusCanceled}] = true
	}
	// the owning customer may cancel a pending order and confirm delivery of
	// a shipped one
	allowed[triple{false, StatusPending, StatusCanceled}] = true
	allowed[triple{false, StatusShipped, StatusDelivered}] = true

	for _, admin := range []bool{true, false} {
		actor := Actor{ID: owner, Admin: admin}
		for _, current := range statuses {
			for _, target := range statuses {
				name := fmt.Sprintf("admin=%v/%s->%s", admin, current, target)
				t.Run(name, func(t *testing.T) {
					err := checkTransition(actor, owner, current, target)
					if allowed[triple{admin, current, target}] {
						assert.NoError(t, err)
					} else {
						require.Error(t, err)
						assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
					}
				})
			}
		}
	}
}

func TestCheckTransitionForeignOrder(t *testing.T) {
	actor := Actor{ID: "user-2", Admin: false}
	err := checkTransition(actor, "user-1", StatusPending, StatusCanceled)
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	// admins are not subject to the ownership check
	admin := Actor{ID: "admin-1", Admin: true}
	assert.NoError(t, checkTransition(admin, "user-1", StatusPending, StatusCanceled))
}

func TestCheckTransitionAdminCannotSetProcessing(t *testing.T) {
	admin := Actor{ID: "admin-1", Admin: true}
	err := checkTransition(admin, "user-1", StatusPending, StatusProcessing)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestCheckTransitionUnknownStatus(t *testing.T) {
	admin := Actor{ID: "admin-1", Admin: true}
	err := checkTransition(admin, "user-1", StatusPending, OrderStatus("REFUNDED"))
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

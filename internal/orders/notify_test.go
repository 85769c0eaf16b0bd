package orders

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPartnerMessage(t *testing.T) {
	items := []pendingItem{
		{ID: 1, OrderID: 42, ProductName: "Kopi Susu", Quantity: 2, Note: "less sugar", OrderStatus: StatusPending, CustomerName: "Budi"},
		{ID: 2, OrderID: 42, ProductName: "Croissant", Quantity: 1, OrderStatus: StatusPending, CustomerName: "Budi"},
		{ID: 3, OrderID: 43, ProductName: "Americano", Quantity: 3, OrderStatus: StatusPending, CustomerName: "Sari"},
	}

	msg := renderPartnerMessage("Dapur Kopi", items)

	assert.Contains(t, msg, "New order items for Dapur Kopi")
	assert.Contains(t, msg, "Order #42 (PENDING) for Budi")
	assert.Contains(t, msg, "- 2x Kopi Susu (less sugar)")
	assert.Contains(t, msg, "- 1x Croissant")
	assert.Contains(t, msg, "Order #43 (PENDING) for Sari")
	assert.Contains(t, msg, "- 3x Americano")

	// items of the same order share one header
	assert.Equal(t, 1, countOccurrences(msg, "Order #42"))
}

func countOccurrences(s, sub string) int {
	count := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			count++
		}
	}
	return count
}

func TestDeliveryURL(t *testing.T) {
	link := deliveryURL("+62 812-3456-789", "Order #42: 2x Kopi Susu")

	parsed, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "https", parsed.Scheme)
	assert.Equal(t, "wa.me", parsed.Host)
	assert.Equal(t, "/628123456789", parsed.Path)
	assert.Equal(t, "Order #42: 2x Kopi Susu", parsed.Query().Get("text"))
}

package orders

import (
	"testing"

	"order-service/internal/apperr"
	"order-service/internal/products"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func partnerID(id int64) *int64 { return &id }

func TestBuildOrderItemsTotals(t *testing.T) {
	found := map[int64]products.Product{
		1: {ID: 1, Name: "Kopi Susu", Price: 15000, PartnerID: partnerID(7)},
		2: {ID: 2, Name: "Croissant", Price: 22000, PartnerID: partnerID(3)},
	}

	items, total, err := buildOrderItems([]NewOrderItem{
		{ProductID: 1, Quantity: 2, Note: "less sugar"},
		{ProductID: 2, Quantity: 1},
	}, found)
	require.NoError(t, err)

	assert.Equal(t, int64(2*15000+22000), total)
	require.Len(t, items, 2)

	assert.Equal(t, int64(1), items[0].ProductID)
	assert.Equal(t, int64(7), items[0].PartnerID)
	assert.Equal(t, "Kopi Susu", items[0].ProductName)
	assert.Equal(t, int64(15000), items[0].UnitPrice)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, "less sugar", items[0].Note)

	assert.Equal(t, int64(3), items[1].PartnerID)
	assert.Empty(t, items[1].Note)
}

func TestBuildOrderItemsSnapshotsPrice(t *testing.T) {
	found := map[int64]products.Product{
		1: {ID: 1, Name: "Kopi Susu", Price: 15000, PartnerID: partnerID(7)},
	}
	items, total, err := buildOrderItems([]NewOrderItem{{ProductID: 1, Quantity: 2}}, found)
	require.NoError(t, err)
	assert.Equal(t, int64(30000), total)

	// later catalog price changes must not affect the snapshot
	p := found[1]
	p.Price = 99000
	found[1] = p
	assert.Equal(t, int64(15000), items[0].UnitPrice)
}

func TestBuildOrderItemsUnknownProduct(t *testing.T) {
	found := map[int64]products.Product{
		1: {ID: 1, Name: "Kopi Susu", Price: 15000, PartnerID: partnerID(7)},
	}
	_, _, err := buildOrderItems([]NewOrderItem{{ProductID: 99, Quantity: 1}}, found)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestBuildOrderItemsProductWithoutPartner(t *testing.T) {
	found := map[int64]products.Product{
		1: {ID: 1, Name: "Kopi Susu", Price: 15000},
	}
	_, _, err := buildOrderItems([]NewOrderItem{{ProductID: 1, Quantity: 1}}, found)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestValidateNewOrder(t *testing.T) {
	valid := NewOrder{
		Items:         []NewOrderItem{{ProductID: 1, Quantity: 2}},
		Address:       "Jl. Sudirman 1",
		PaymentMethod: "qris",
	}
	assert.NoError(t, validateNewOrder(valid))

	tests := []struct {
		name   string
		mutate func(*NewOrder)
		field  string
	}{
		{"empty items", func(o *NewOrder) { o.Items = nil }, "items"},
		{"zero quantity", func(o *NewOrder) { o.Items[0].Quantity = 0 }, "items.quantity"},
		{"missing product id", func(o *NewOrder) { o.Items[0].ProductID = 0 }, "items.products_id"},
		{"missing address", func(o *NewOrder) { o.Address = "" }, "address"},
		{"missing payment method", func(o *NewOrder) { o.PaymentMethod = "" }, "payment_method"},
		{"unknown payment method", func(o *NewOrder) { o.PaymentMethod = "cheque" }, "payment_method"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			no := NewOrder{
				Items:         []NewOrderItem{{ProductID: 1, Quantity: 2}},
				Address:       "Jl. Sudirman 1",
				PaymentMethod: "qris",
			}
			tt.mutate(&no)
			err := validateNewOrder(no)
			require.Error(t, err)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
			assert.Contains(t, apperr.FieldsOf(err), tt.field)
		})
	}
}

func TestValidateNewOrderAccumulatesFields(t *testing.T) {
	err := validateNewOrder(NewOrder{})
	require.Error(t, err)
	fields := apperr.FieldsOf(err)
	assert.Contains(t, fields, "items")
	assert.Contains(t, fields, "address")
	assert.Contains(t, fields, "payment_method")
}

package orders

import (
	"context"
	"database/sql"
	"testing"

	"order-service/internal/apperr"
	"order-service/internal/partners"
	"order-service/internal/products"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCatalog struct{}

func (stubCatalog) FindProductsByIDs(ctx context.Context, ids []int64) (map[int64]products.Product, error) {
	return map[int64]products.Product{}, nil
}

type stubGateway struct{}

func (stubGateway) CreateTransaction(ctx context.Context, order Order) (PaymentInfo, error) {
	return PaymentInfo{}, nil
}

type stubPartners struct{}

func (stubPartners) GetPartnerByID(ctx context.Context, id int64) (partners.Partner, error) {
	return partners.Partner{}, nil
}

func testConf(t *testing.T) (*Conf, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	conf, err := NewConf(db, stubCatalog{}, stubGateway{}, stubPartners{})
	require.NoError(t, err)
	return conf, mock
}

func TestUpdateOrderStatusMissingOrder(t *testing.T) {
	conf, mock := testConf(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT user_id, status").WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := conf.UpdateOrderStatus(context.Background(), 99, StatusShipped,
		Actor{ID: "admin-1", Admin: true})
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelOrderMissingOrder(t *testing.T) {
	conf, mock := testConf(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT user_id, status").WithArgs(int64(123)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := conf.CancelOrder(context.Background(), 123,
		Actor{ID: "user-1", Admin: false}, "changed my mind")
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelOrderForbiddenRollsBack(t *testing.T) {
	conf, mock := testConf(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT user_id, status").WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "status"}).
			AddRow("user-1", string(StatusPending)))
	mock.ExpectRollback()

	err := conf.CancelOrder(context.Background(), 7,
		Actor{ID: "user-2", Admin: false}, "not my order")
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandlePaymentNotificationMissingPayment(t *testing.T) {
	conf, mock := testConf(t)

	mock.ExpectExec("UPDATE payments").
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := conf.HandlePaymentNotification(context.Background(), Notification{
		OrderID:           "ORDER-42-9f1c2d3e",
		TransactionStatus: "settlement",
		PaymentType:       "qris",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrderByIDMissing(t *testing.T) {
	conf, mock := testConf(t)

	mock.ExpectQuery("SELECT id, user_id, status").WithArgs(int64(404)).
		WillReturnError(sql.ErrNoRows)

	_, err := conf.GetOrderByID(context.Background(), 404)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

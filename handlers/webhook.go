package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"order-service/internal/orders"
	"order-service/internal/stores/kafka"
	"order-service/pkg/ctxmanage"
	"order-service/pkg/logkey"

	"github.com/gin-gonic/gin"
)

// Webhook consumes gateway payment notifications. The caller authenticates
// with the notification signature; a mismatch is treated as a bad request
// before any state is touched.
func (h *Handler) Webhook(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	const MaxBodyBytes = int64(65536)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)

	var notification orders.Notification
	if err := c.ShouldBindJSON(&notification); err != nil {
		slog.Error("failed to bind notification", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !h.gateway.VerifyNotificationSignature(notification.OrderID, notification.StatusCode,
		notification.GrossAmount, notification.SignatureKey) {
		slog.Error("notification signature mismatch", slog.String(logkey.TraceID, traceId),
			slog.String("OrderID", notification.OrderID))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	order, err := h.o.HandlePaymentNotification(c.Request.Context(), notification)
	if err != nil {
		webError(c, traceId, err)
		return
	}

	slog.Info("payment notification applied", slog.String(logkey.TraceID, traceId),
		slog.Int64("OrderID", order.ID), slog.String("Status", string(order.Payment.Status)))

	if order.Payment.Status == orders.PaymentSuccess {
		go func(order orders.Order) {
			jsonData, err := json.Marshal(kafka.OrderPaidEvent{
				OrderId:     order.ID,
				PaymentType: order.Payment.Type,
				Amount:      order.Payment.Amount,
				CreatedAt:   time.Now().UTC(),
			})
			if err != nil {
				slog.Error("failed to marshal OrderPaidEvent", slog.String(logkey.ERROR, err.Error()))
				return
			}
			key := []byte(strconv.FormatInt(order.ID, 10))
			if err := h.k.ProduceMessage(kafka.TopicOrderPaid, key, jsonData); err != nil {
				slog.Error("failed to produce message", slog.String(logkey.ERROR, err.Error()))
				return
			}
			slog.Info("message produced", slog.String("Data", string(jsonData)))
		}(order)
	}

	c.Status(http.StatusOK)
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"order-service/internal/apperr"
	"order-service/internal/auth"
	"order-service/internal/orders"
	"order-service/internal/stores/kafka"
	"order-service/pkg/ctxmanage"
	"order-service/pkg/logkey"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

func actorOf(claims auth.Claims) orders.Actor {
	return orders.Actor{
		ID:    claims.Subject,
		Admin: claims.HasRole(auth.RoleAdmin),
	}
}

func (h *Handler) Checkout(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if c.Request.ContentLength > 16*1024 {
		slog.Error("request body limit breached", slog.String(logkey.TraceID, traceId),
			slog.Int64("Size Received", c.Request.ContentLength))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Request body too large."})
		return
	}

	var newOrder orders.NewOrder
	if err := c.ShouldBindJSON(&newOrder); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}

	// Shape check before the lifecycle manager runs. Field errors accumulate
	// into a map keyed by field name; the last message per field wins.
	if err := h.validate.Struct(newOrder); err != nil {
		fields := map[string]string{}
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			for _, vErr := range vErrs {
				fields[vErr.Field()] = vErr.Field() + " failed on " + vErr.Tag()
			}
		}
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid checkout request", "fields": fields})
		return
	}

	result, err := h.o.CreateOrder(c.Request.Context(), claims.Subject, newOrder)
	if err != nil {
		webError(c, traceId, err)
		return
	}

	// Best effort: the order exists regardless of whether the event lands.
	go func(order orders.Order) {
		// request context is gone once the response is written
		name, err := h.u.GetNameByID(context.Background(), order.UserID)
		if err != nil {
			slog.Error("failed to resolve customer name for event", slog.String(logkey.ERROR, err.Error()))
		}
		jsonData, err := json.Marshal(kafka.OrderCreatedEvent{
			OrderId:   order.ID,
			UserId:    order.UserID,
			UserName:  name,
			Total:     order.Payment.Amount,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			slog.Error("failed to marshal OrderCreatedEvent", slog.String(logkey.ERROR, err.Error()))
			return
		}
		key := []byte(strconv.FormatInt(order.ID, 10))
		if err := h.k.ProduceMessage(kafka.TopicOrderCreated, key, jsonData); err != nil {
			slog.Error("failed to produce message", slog.String(logkey.ERROR, err.Error()))
		}
	}(result.Order)

	slog.Info("order created", slog.String(logkey.TraceID, traceId),
		slog.Int64("OrderID", result.Order.ID), slog.Int64("Amount", result.Order.Payment.Amount))
	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetOrder(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}

	order, err := h.o.GetOrderByID(c.Request.Context(), orderID)
	if err != nil {
		webError(c, traceId, err)
		return
	}

	actor := actorOf(claims)
	if !actor.Admin && order.UserID != actor.ID {
		webError(c, traceId, apperr.New(apperr.KindForbidden, "order belongs to another user"))
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}

	var request struct {
		Status string `json:"status" validate:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil || request.Status == "" {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	err = h.o.UpdateOrderStatus(c.Request.Context(), orderID, orders.OrderStatus(request.Status), actorOf(claims))
	if err != nil {
		webError(c, traceId, err)
		return
	}

	slog.Info("order status updated", slog.String(logkey.TraceID, traceId),
		slog.Int64("OrderID", orderID), slog.String("Status", request.Status))
	c.JSON(http.StatusOK, gin.H{"message": "Order status updated", "status": request.Status})
}

func (h *Handler) CancelOrder(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}

	var request struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	err = h.o.CancelOrder(c.Request.Context(), orderID, actorOf(claims), request.Reason)
	if err != nil {
		webError(c, traceId, err)
		return
	}

	slog.Info("order cancelled", slog.String(logkey.TraceID, traceId), slog.Int64("OrderID", orderID))
	c.JSON(http.StatusOK, gin.H{"message": "Order cancelled"})
}

func (h *Handler) NotifyPartner(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	partnerID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid partner id"})
		return
	}

	notification, err := h.o.NotifyPartner(c.Request.Context(), partnerID)
	if err != nil {
		webError(c, traceId, err)
		return
	}

	slog.Info("partner notified", slog.String(logkey.TraceID, traceId),
		slog.Int64("PartnerID", partnerID))
	c.JSON(http.StatusOK, notification)
}

package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"order-service/pkg/ctxmanage"
	"order-service/pkg/logkey"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListProducts(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	limit := c.DefaultQuery("limit", "10")
	offset := c.DefaultQuery("offset", "0")

	limitInt, err := strconv.Atoi(limit)
	if err != nil || limitInt <= 0 {
		slog.Error("invalid limit parameter", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
		return
	}
	offsetInt, err := strconv.Atoi(offset)
	if err != nil || offsetInt < 0 {
		slog.Error("invalid offset parameter", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid offset parameter"})
		return
	}

	list, err := h.p.ListProducts(c.Request.Context(), limitInt, offsetInt)
	if err != nil {
		webError(c, traceId, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": list})
}

func (h *Handler) GetProduct(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid product id"})
		return
	}

	product, err := h.p.GetProductByID(c.Request.Context(), productID)
	if err != nil {
		webError(c, traceId, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

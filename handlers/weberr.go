package handlers

import (
	"log/slog"
	"net/http"

	"order-service/internal/apperr"
	"order-service/pkg/logkey"

	"github.com/gin-gonic/gin"
)

// kindStatus is the single place error kinds become HTTP status codes.
var kindStatus = map[apperr.Kind]int{
	apperr.KindValidation:               http.StatusBadRequest,
	apperr.KindNotFound:                 http.StatusNotFound,
	apperr.KindForbidden:                http.StatusForbidden,
	apperr.KindConflict:                 http.StatusConflict,
	apperr.KindUnsupportedPaymentMethod: http.StatusBadRequest,
	apperr.KindGateway:                  http.StatusBadGateway,
	apperr.KindInternal:                 http.StatusInternalServerError,
}

// webError logs err and writes the response matching its kind. Internal and
// gateway causes are not echoed back to the client.
func webError(c *gin.Context, traceId string, err error) {
	kind := apperr.KindOf(err)
	status, ok := kindStatus[kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	slog.Error("request failed",
		slog.String(logkey.TraceID, traceId),
		slog.String("Kind", kind.String()),
		slog.String(logkey.ERROR, err.Error()),
	)

	msg := apperr.MessageOf(err)
	if msg == "" || status >= http.StatusInternalServerError || kind == apperr.KindGateway {
		msg = http.StatusText(status)
	}

	body := gin.H{"error": msg}
	if fields := apperr.FieldsOf(err); len(fields) > 0 {
		body["fields"] = fields
	}
	c.AbortWithStatusJSON(status, body)
}

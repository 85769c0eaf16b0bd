package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"order-service/internal/users"
	"order-service/pkg/ctxmanage"
	"order-service/pkg/logkey"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

func (h *Handler) Signup(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var newUser users.NewUser
	if err := c.ShouldBindJSON(&newUser); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}

	if err := h.validate.Struct(newUser); err != nil {
		fields := map[string]string{}
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			for _, vErr := range vErrs {
				fields[vErr.Field()] = vErr.Field() + " failed on " + vErr.Tag()
			}
		}
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid signup request", "fields": fields})
		return
	}

	user, err := h.u.InsertUser(c.Request.Context(), newUser)
	if err != nil {
		webError(c, traceId, err)
		return
	}

	slog.Info("user created", slog.String(logkey.TraceID, traceId), slog.String("UserID", user.ID))
	c.JSON(http.StatusOK, gin.H{
		"message": "User created successfully",
		"user_id": user.ID,
	})
}

func (h *Handler) Login(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var request struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}
	if err := h.validate.Struct(request); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	user, err := h.u.Authenticate(c.Request.Context(), request.Email, request.Password)
	if err != nil {
		// credential failures come back as 403; everything else maps per kind
		webError(c, traceId, err)
		return
	}

	token, err := h.keys.GenerateToken(user.ID, user.Roles)
	if err != nil {
		slog.Error("failed to generate token", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": http.StatusText(http.StatusInternalServerError)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

package handlers

import (
	"os"

	"order-service/internal/auth"
	"order-service/internal/orders"
	"order-service/internal/payment"
	"order-service/internal/products"
	"order-service/internal/stores/kafka"
	"order-service/internal/users"
	"order-service/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	o        *orders.Conf
	p        *products.Conf
	u        *users.Conf
	k        *kafka.Conf
	gateway  *payment.Adapter
	keys     *auth.Keys
	validate *validator.Validate
}

func NewHandler(o *orders.Conf, p *products.Conf, u *users.Conf, k *kafka.Conf,
	gateway *payment.Adapter, keys *auth.Keys) *Handler {
	return &Handler{
		o:        o,
		p:        p,
		u:        u,
		k:        k,
		gateway:  gateway,
		keys:     keys,
		validate: validator.New(),
	}
}

func API(endpointPrefix string, keys *auth.Keys, o *orders.Conf, p *products.Conf,
	u *users.Conf, k *kafka.Conf, gateway *payment.Adapter) *gin.Engine {
	r := gin.New()
	mode := os.Getenv("GIN_MODE")
	if mode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	m, err := middleware.NewMid(keys)
	if err != nil {
		panic(err)
	}

	h := NewHandler(o, p, u, k, gateway, keys)
	r.Use(middleware.Logger(), gin.Recovery())

	r.GET("/ping", HealthCheck)
	v1 := r.Group(endpointPrefix)
	{
		v1.POST("/signup", h.Signup)
		v1.POST("/login", h.Login)
		v1.GET("/products/list", h.ListProducts)
		v1.GET("/products/view/:id", h.GetProduct)

		// gateway callback authenticates with its signature, not a token
		v1.POST("/webhook", h.Webhook)

		v1.Use(m.Authentication())
		v1.POST("/checkout", m.Authorize(h.Checkout, auth.RoleUser))
		v1.GET("/orders/view/:id", m.Authorize(h.GetOrder, auth.RoleUser, auth.RoleAdmin))
		v1.PATCH("/orders/status/:id", m.Authorize(h.UpdateOrderStatus, auth.RoleUser, auth.RoleAdmin))
		v1.POST("/orders/cancel/:id", m.Authorize(h.CancelOrder, auth.RoleUser, auth.RoleAdmin))
		v1.POST("/partners/notify/:id", m.Authorize(h.NotifyPartner, auth.RoleAdmin))
	}
	return r
}

func HealthCheck(c *gin.Context) {
	c.JSON(200, gin.H{
		"message": "pong",
	})
}

package server

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"commerce-engine/internal/handler"
	"commerce-engine/internal/orders"
)

type Server struct {
	echo         *echo.Echo
	orderHandler *handler.OrderHandler
}

func NewServer(orderService orders.Service) *Server {
	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		echo:         e,
		orderHandler: handler.NewOrderHandler(orderService),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	// -------- carts --------
	api.POST("/orders", s.orderHandler.CreateCart)
	api.GET("/orders/:id", s.orderHandler.GetOrder)
	api.POST("/orders/:id/positions", s.orderHandler.AddPosition)
	api.POST("/orders/:id/delivery-provider", s.orderHandler.SetDeliveryProvider)
	api.POST("/orders/:id/payment-provider", s.orderHandler.SetPaymentProvider)
	api.POST("/orders/:id/discounts", s.orderHandler.AddDiscountCode)
	api.POST("/orders/:id/recalculate", s.orderHandler.Recalculate)

	// -------- checkout state machine --------
	api.POST("/orders/:id/checkout", s.orderHandler.Checkout)
	api.POST("/orders/:id/confirm", s.orderHandler.Confirm)
	api.POST("/orders/:id/reject", s.orderHandler.Reject)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown() error {
	return s.echo.Close()
}

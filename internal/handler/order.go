package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"commerce-engine/internal/dto"
	"commerce-engine/internal/orders"
)

type OrderHandler struct {
	orderService orders.Service
}

func NewOrderHandler(orderService orders.Service) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

// httpError maps service errors onto HTTP statuses: validation failures are
// client errors, unknown orders are 404.
func httpError(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	case errors.Is(err, orders.ErrWrongStatus),
		errors.Is(err, orders.ErrCartEmpty),
		errors.Is(err, orders.ErrContactMissing),
		errors.Is(err, orders.ErrBillingAddressMissing),
		errors.Is(err, orders.ErrDeliveryProviderMissing),
		errors.Is(err, orders.ErrPaymentProviderMissing),
		errors.Is(err, orders.ErrQuotationExpired),
		errors.Is(err, orders.ErrInvalidDiscountCode):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return err
	}
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()

	order, err := h.orderService.FindOrder(ctx, c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) CreateCart(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreateCartRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	order, err := h.orderService.CreateCart(ctx, req.UserID, req.Currency, req.CountryCode)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) AddPosition(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.AddPositionRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	position, err := h.orderService.AddCartPosition(ctx, c.Param("id"), req.ProductID, req.Quantity, req.QuotationID, req.Configuration)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, position)
}

func (h *OrderHandler) SetDeliveryProvider(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.SetProviderRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	order, err := h.orderService.SetDeliveryProvider(ctx, c.Param("id"), req.ProviderID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) SetPaymentProvider(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.SetProviderRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	order, err := h.orderService.SetPaymentProvider(ctx, c.Param("id"), req.ProviderID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) AddDiscountCode(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.AddDiscountCodeRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	orderDiscount, err := h.orderService.AddDiscountCode(ctx, c.Param("id"), req.Code)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, orderDiscount)
}

func (h *OrderHandler) Recalculate(c echo.Context) error {
	ctx := c.Request().Context()

	order, err := h.orderService.UpdateCalculation(ctx, c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) Checkout(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	order, err := h.orderService.CheckoutOrder(ctx, c.Param("id"), req.Transaction)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) Confirm(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.OverrideRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	order, err := h.orderService.ConfirmOrder(ctx, c.Param("id"), req.Transaction)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) Reject(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.OverrideRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	order, err := h.orderService.RejectOrder(ctx, c.Param("id"), req.Transaction)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, order)
}

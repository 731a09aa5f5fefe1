package handler

import (
	"errors"
	"net/http"

	"mdla-platform/internal/dto"
	"mdla-platform/internal/middleware"
	"mdla-platform/internal/model"
	"mdla-platform/internal/service"

	"github.com/labstack/echo/v4"
)

type PaymentHandler struct {
	paymentService service.PaymentService
}

func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// Process runs a settlement attempt. Gateway declines come back as a
// business failure with the gateway's message; anything else propagates to
// the central error handler.
func (h *PaymentHandler) Process(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.ProcessPaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	payment, err := h.paymentService.Process(ctx, middleware.UserID(c), &req)
	if err != nil {
		var domainErr *model.DomainError
		if errors.As(err, &domainErr) && domainErr.Code == model.ErrCodeGateway {
			return c.JSON(http.StatusBadRequest, dto.ProcessPaymentResponse{
				Success: false,
				Payment: payment,
				Error:   domainErr.Message,
			})
		}
		return err
	}

	return c.JSON(http.StatusOK, dto.ProcessPaymentResponse{
		Success: true,
		Payment: payment,
	})
}

func (h *PaymentHandler) ListMine(c echo.Context) error {
	ctx := c.Request().Context()

	payments, err := h.paymentService.ListForUser(ctx, middleware.UserID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, payments)
}

func (h *PaymentHandler) ListAll(c echo.Context) error {
	ctx := c.Request().Context()

	payments, err := h.paymentService.ListAll(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, payments)
}

func (h *PaymentHandler) CalculateFees(c echo.Context) error {
	var req dto.CalculateFeesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	return c.JSON(http.StatusOK, service.CalculateFees(req.Amount, req.Method))
}

package server

import (
	"errors"
	"net/http"

	"mdla-platform/internal/handler"
	appmiddleware "mdla-platform/internal/middleware"
	"mdla-platform/internal/model"
	"mdla-platform/internal/service"
	"mdla-platform/internal/ws"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type Server struct {
	echo           *echo.Echo
	orderHandler   *handler.OrderHandler
	paymentHandler *handler.PaymentHandler
	chatHandler    *handler.ChatHandler
	wsHandler      *ws.Handler
	jwtSecret      string
}

func NewServer(
	orderService service.OrderService,
	paymentService service.PaymentService,
	chatService service.ChatService,
	wsHandler *ws.Handler,
	jwtSecret string,
	logger zerolog.Logger,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = newErrorHandler(logger)

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		echo:           e,
		orderHandler:   handler.NewOrderHandler(orderService),
		paymentHandler: handler.NewPaymentHandler(paymentService),
		chatHandler:    handler.NewChatHandler(chatService),
		wsHandler:      wsHandler,
		jwtSecret:      jwtSecret,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	auth := appmiddleware.Auth(s.jwtSecret)
	adminOrTransit := appmiddleware.RequireRoles(model.RoleAdmin, model.RoleTransit)
	adminOnly := appmiddleware.RequireRoles(model.RoleAdmin)

	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// -------- orders --------
	orders := api.Group("/orders")
	orders.POST("", s.orderHandler.Create, auth)
	orders.GET("", s.orderHandler.ListMine, auth)
	orders.GET("/all", s.orderHandler.ListAll, auth, adminOrTransit)
	orders.GET("/track/:trackingNumber", s.orderHandler.Track)
	orders.PUT("/:id/status", s.orderHandler.UpdateStatus, auth, adminOrTransit)

	// -------- payments --------
	payments := api.Group("/payments")
	payments.POST("/process", s.paymentHandler.Process, auth)
	payments.GET("/transactions", s.paymentHandler.ListMine, auth)
	payments.GET("/all", s.paymentHandler.ListAll, auth, adminOnly)
	payments.POST("/calculate-fees", s.paymentHandler.CalculateFees)

	// -------- chat --------
	chat := api.Group("/chat", auth)
	chat.GET("/conversations", s.chatHandler.Conversations)
	chat.GET("/messages/:userId", s.chatHandler.DirectHistory)
	chat.GET("/room/:roomId", s.chatHandler.RoomHistory)
	chat.POST("/read/:userId", s.chatHandler.MarkRead)

	// -------- real-time --------
	s.echo.GET("/ws", s.wsHandler.Serve)
}

// newErrorHandler translates domain errors into their status code and a
// machine-readable body; everything else becomes a 500 with no internals
// leaked.
func newErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var (
			domainErr *model.DomainError
			httpErr   *echo.HTTPError
		)

		status := http.StatusInternalServerError
		body := model.ErrorResponse{Error: model.ErrCodeInternal, Message: "internal error"}

		switch {
		case errors.As(err, &domainErr):
			status = domainErr.Status
			body = model.ErrorResponse{Error: domainErr.Code, Message: domainErr.Message}
		case errors.As(err, &httpErr):
			status = httpErr.Code
			body = model.ErrorResponse{Error: http.StatusText(status), Message: messageOf(httpErr)}
		case errors.Is(err, gorm.ErrRecordNotFound):
			status = http.StatusNotFound
			body = model.ErrorResponse{Error: model.ErrCodeNotFound, Message: "not found"}
		default:
			logger.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
	}
}

func messageOf(httpErr *echo.HTTPError) string {
	if msg, ok := httpErr.Message.(string); ok {
		return msg
	}
	return http.StatusText(httpErr.Code)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown() error {
	return s.echo.Close()
}

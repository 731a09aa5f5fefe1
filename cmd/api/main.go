package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"mdla-platform/internal/client"
	"mdla-platform/internal/config"
	"mdla-platform/internal/gateway"
	"mdla-platform/internal/repository"
	"mdla-platform/internal/server"
	"mdla-platform/internal/service"
	"mdla-platform/internal/ws"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	logger := config.NewLogger(cfg.Log)

	db, err := client.InitMysqlClient(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("database init failed")
	}

	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	gw := gateway.NewSimulated(cfg.Gateway)

	orderService := service.NewOrderService(orderRepo, logger,
		service.WithLegacyPaidDefault(cfg.Order.LegacyPaidDefault))
	paymentService := service.NewPaymentService(db, gw, paymentRepo, orderRepo, logger)
	chatService := service.NewChatService(messageRepo, logger)

	hub := ws.NewHub(logger)
	wsHandler := ws.NewHandler(hub, chatService, cfg.JWT.Secret, logger)

	srv := server.NewServer(orderService, paymentService, chatService, wsHandler, cfg.JWT.Secret, logger)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	logger.Info().Str("addr", serverAddr).Msg("starting HTTP server")

	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	logger.Info().Msg("signal received, starting graceful shutdown")

	if err := srv.Shutdown(); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}
}

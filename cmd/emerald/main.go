package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Remor1s/emerald/internal/cart"
	"github.com/Remor1s/emerald/internal/catalog"
	"github.com/Remor1s/emerald/internal/config"
	"github.com/Remor1s/emerald/internal/db"
	"github.com/Remor1s/emerald/internal/events"
	httpserver "github.com/Remor1s/emerald/internal/http"
	"github.com/Remor1s/emerald/internal/metrics"
	"github.com/Remor1s/emerald/internal/order"
	"github.com/Remor1s/emerald/internal/payment"
)

func main() {
	cfg := config.Load()

	logger := log.New(os.Stdout, "[emerald] ", log.LstdFlags|log.Lshortfile)

	// DB
	if err := db.RunMigrations(cfg.DatabaseDSN, logger); err != nil {
		logger.Fatalf("migrations: %v", err)
	}
	database := db.MustOpen(cfg.DatabaseDSN)
	defer database.Close()

	productRepo := catalog.NewRepository(database)
	orderRepo := order.NewRepository(database)

	seedCtx, seedCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := productRepo.SeedIfEmpty(seedCtx, catalog.DefaultProducts); err != nil {
		logger.Fatalf("seed catalog: %v", err)
	}
	seedCancel()

	// Carts live in process memory; a restart empties them.
	carts := cart.NewStore()

	// RabbitMQ (optional)
	var publisher order.EventPublisher = events.NopPublisher{}
	if cfg.RabbitURL != "" {
		rabbitConn := events.MustDialRabbit(cfg.RabbitURL)
		defer rabbitConn.Close()

		p, err := events.NewPublisher(rabbitConn)
		if err != nil {
			logger.Fatalf("event publisher: %v", err)
		}
		publisher = p
	} else {
		logger.Println("RABBITMQ_URL not set, order events disabled")
	}

	// Payment gateway
	gateway := payment.NewClient(cfg.PaymentAPIURL, cfg.ShopID, cfg.SecretKey, cfg.ReturnURL,
		&http.Client{Timeout: cfg.PaymentTimeout})
	if !gateway.Configured() {
		logger.Println("YK_SHOP_ID/YK_SECRET_KEY not set, payment creation will fail with config_error")
	}

	orderSvc := order.NewService(carts, productRepo, orderRepo, gateway, publisher, logger)

	// HTTP
	handler := httpserver.NewRouter(httpserver.RouterDeps{
		Carts:            carts,
		Products:         productRepo,
		Orders:           orderSvc,
		AdminKey:         cfg.AdminKey,
		CORSAllowOrigins: cfg.CORSAllowOrigins,
		Metrics:          metrics.NewServerMetrics("storefront"),
		Logger:           logger,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 35 * time.Second,
	}

	go func() {
		logger.Printf("emerald listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"lpg-backend/internal/auth"
	"lpg-backend/internal/cache"
	"lpg-backend/internal/config"
	"lpg-backend/internal/database"
	"lpg-backend/internal/db"
	"lpg-backend/internal/handlers"
	"lpg-backend/internal/health"
	apphttp "lpg-backend/internal/http"
	"lpg-backend/internal/logger"
	"lpg-backend/internal/middleware"
	"lpg-backend/internal/monitoring"
	"lpg-backend/internal/repositories"
	"lpg-backend/internal/services"
	"lpg-backend/internal/storage"
)

func main() {
	port := flag.Int("port", 0, "Server port (overrides config)")
	flag.Parse()

	cfg := config.Load()
	if *port != 0 {
		cfg.Server.Port = *port
	}

	log := logger.Must(cfg.Server.Env, cfg.Server.LogLevel)
	defer log.Sync()

	pool := db.Connect(cfg)
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	migrator := database.NewMigrator(pool, log)
	if err := migrator.RunMigrations(ctx); err != nil {
		cancel()
		log.Fatal("migrations failed", zap.Error(err))
	}
	cancel()

	// Redis is optional; without it outstanding lookups just hit the database.
	if err := cache.Init(cfg); err != nil {
		log.Warn("redis unavailable, caching disabled", zap.Error(err))
	} else {
		log.Info("redis cache connected")
	}

	// R2 archival is optional too.
	archive, err := storage.NewR2Client(context.Background(), cfg)
	if err != nil {
		log.Warn("invoice archival disabled", zap.Error(err))
		archive = nil
	} else if archive != nil {
		log.Info("invoice archival enabled", zap.String("bucket", cfg.R2.Bucket))
	}

	jwtManager := auth.NewJWTManager(cfg)

	userRepo := repositories.NewUserRepository(pool)
	customerRepo := repositories.NewCustomerRepository(pool)
	deliveryRepo := repositories.NewDeliveryRepository(pool)
	billRepo := repositories.NewBillRepository(pool)
	paymentRepo := repositories.NewPaymentRepository(pool)
	invoiceRepo := repositories.NewInvoiceRepository(pool)
	paymentLogRepo := repositories.NewPaymentLogRepository(pool)

	userService := services.NewUserService(userRepo, jwtManager, log)
	customerService := services.NewCustomerService(customerRepo, billRepo, log)
	deliveryService := services.NewDeliveryService(deliveryRepo, customerRepo, log)
	billingService := services.NewBillingService(billRepo, deliveryRepo, paymentRepo, log)
	paymentService := services.NewPaymentService(paymentRepo, log)
	invoiceService := services.NewInvoiceService(invoiceRepo, billRepo, paymentLogRepo, archive, log)

	healthChecker := health.NewChecker(pool)
	statsCollector := monitoring.NewCollector(pool)

	authMiddleware := middleware.NewAuthMiddleware(jwtManager, userRepo)

	router := apphttp.NewRouter(
		handlers.NewAuthHandler(userService),
		handlers.NewCustomerHandler(customerService),
		handlers.NewDeliveryHandler(deliveryService),
		handlers.NewBillHandler(billingService),
		handlers.NewPaymentHandler(paymentService),
		handlers.NewInvoiceHandler(invoiceService),
		handlers.NewPaymentLogHandler(paymentLogRepo),
		handlers.NewHealthHandler(healthChecker),
		handlers.NewMonitoringHandler(statsCollector),
		authMiddleware,
	)

	corsMiddleware := middleware.NewCORS(cfg)
	handler := middleware.PanicRecovery(log)(
		middleware.RequestLogging(log)(
			middleware.MetricsMiddleware(
				corsMiddleware(router),
			),
		),
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.Int("port", cfg.Server.Port), zap.String("env", cfg.Server.Env))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", zap.Error(err))
	}
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"farm2city/internal/api/handlers"
	"farm2city/internal/api/middleware"
	"farm2city/internal/cache"
	"farm2city/internal/config"
	"farm2city/internal/database"
	"farm2city/internal/inventory"
	"farm2city/internal/notify"
	"farm2city/internal/orders"
	"farm2city/internal/payments"
	"farm2city/internal/reorder"
	"farm2city/internal/repository"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("failed to load config", "error", err)
	}

	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatalw("failed to connect database", "error", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, cfg.MigrationsDir, log); err != nil {
		log.Fatalw("migrations failed", "error", err)
	}

	rdb, err := cache.Connect(ctx, cfg)
	if err != nil {
		log.Fatalw("failed to connect redis", "error", err)
	}
	defer func() { _ = rdb.Close() }()

	broker, err := notify.NewBroker(cfg)
	if err != nil {
		log.Fatalw("failed to connect rabbitmq", "error", err)
	}
	defer broker.Close()

	if err := broker.SetupTopology(); err != nil {
		log.Fatalw("failed to setup rabbitmq topology", "error", err)
	}

	// Repositories.
	userRepo := repository.NewUserRepository(pool)
	productRepo := cache.NewCachedProductRepository(repository.NewProductRepository(pool), rdb, log)
	orderRepo := repository.NewOrderRepository(pool)
	inventoryRepo := repository.NewInventoryRepository(pool)
	ruleRepo := repository.NewReorderRuleRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)

	// Services.
	notifier := notify.NewEmitter(notificationRepo, broker, log)
	ledger := inventory.NewLedger(inventoryRepo)
	orderService := orders.NewService(orderRepo, productRepo, userRepo, ledger, notifier, log)
	paymentService := payments.NewService(payments.NewMemoryStore(), log)

	if err := notify.StartConsumer(broker, log); err != nil {
		log.Fatalw("failed to start notification consumer", "error", err)
	}

	scanner := reorder.NewScanner(ruleRepo, notifier, cfg.ReorderScanInterval, log)
	go scanner.Run(ctx)

	// HTTP surface.
	orderHandler := handlers.NewOrderHandler(orderService)
	inventoryHandler := handlers.NewInventoryHandler(ledger)
	reorderHandler := handlers.NewReorderHandler(ruleRepo)
	productHandler := handlers.NewProductHandler(productRepo)
	notificationHandler := handlers.NewNotificationHandler(notificationRepo)
	paymentHandler := handlers.NewPaymentHandler(paymentService, orderService)

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Prometheus)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", orderHandler.Create)
			r.Get("/", orderHandler.List)
			r.Get("/{id}", orderHandler.GetByID)
			r.Put("/{id}/status", orderHandler.UpdateStatus)
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/", inventoryHandler.List)
			r.Post("/{productID}/adjust", inventoryHandler.Adjust)
		})

		r.Route("/reorder-settings", func(r chi.Router) {
			r.Get("/", reorderHandler.List)
			r.Post("/", reorderHandler.Create)
			r.Put("/{id}", reorderHandler.Update)
			r.Delete("/{id}", reorderHandler.Delete)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.List)
			r.Get("/{id}", productHandler.GetByID)
			r.Post("/", productHandler.Create)
			r.Put("/{id}", productHandler.Update)
			r.Delete("/{id}", productHandler.Delete)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", notificationHandler.List)
			r.Put("/{id}/read", notificationHandler.MarkRead)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/initiate", paymentHandler.Initiate)
			r.Post("/{transactionID}/process", paymentHandler.Process)
			r.Get("/{transactionID}", paymentHandler.Status)
			r.Post("/{transactionID}/refund", paymentHandler.Refund)
		})
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Errorw("server shutdown failed", "error", err)
		}
	}()

	log.Infow("farm2city service starting", "addr", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalw("server failed", "error", err)
	}
}

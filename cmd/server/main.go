package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"order_service/internal/config"
	"order_service/internal/database"
	"order_service/internal/handlers"
	"order_service/internal/kafka"
	"order_service/internal/migrations"
	"order_service/internal/patterns"
	"order_service/internal/redis"
	"order_service/internal/repository"
	"order_service/internal/services"
	"order_service/internal/tracing"
	"order_service/pkg/courier"
	"order_service/pkg/whatsapp"

	log "github.com/sirupsen/logrus"
)

const serviceName = "order-service"

type stores struct {
	orders   repository.OrderRepository
	coupons  repository.CouponRepository
	settings repository.SettingsRepository
}

func main() {
	// Load configuration
	cfg := config.Load()

	log.SetFormatter(&log.JSONFormatter{})
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, serviceName)
		if err != nil {
			log.WithError(err).Warn("Failed to initialize tracing, continuing without it")
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				tp.Shutdown(shutdownCtx)
			}()
		}
	}

	// Initialize storage
	st, err := initStores(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize storage")
	}

	// Initialize Redis
	opts := services.WriterOptions{
		CacheTTL:         cfg.TrackingCacheTTL,
		PollAfterSeconds: cfg.TrackingPollSecs,
	}
	var locker services.Locker
	if cfg.RedisURL != "" {
		redisClient, err := redis.Initialize(cfg.RedisURL)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer redisClient.Close()
		opts.Cache = redisClient
		if cfg.LockBackend == "redis" {
			locker = redis.NewOrderLock(redisClient, 15*time.Second)
			log.Info("Using Redis order locks")
		}
	} else if cfg.LockBackend == "redis" {
		log.Fatal("ORDER_LOCK_BACKEND=redis requires REDIS_URL")
	}

	// Initialize event publisher
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.OrderEventsTopic)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to Kafka")
		}
		defer producer.Close()
		opts.Publisher = producer
	} else {
		log.Info("KAFKA_BROKERS not set, order events are not published")
	}

	// Initialize customer notifications
	var notifier *services.WhatsAppNotifier
	notifierDone := make(chan struct{})
	if cfg.NotifyCustomers {
		client := whatsapp.NewClient(whatsapp.Config{
			BaseURL:     cfg.WhatsAppAPIURL,
			Username:    cfg.WhatsAppUsername,
			Password:    cfg.WhatsAppPassword,
			Path:        cfg.WhatsAppPath,
			CountryCode: cfg.WhatsAppCountryCode,
		})
		notifier = services.NewWhatsAppNotifier(opts.Publisher, client, st.orders, 256)
		opts.Publisher = notifier
		go func() {
			defer close(notifierDone)
			notifier.Run(context.Background())
		}()
		log.WithField("gateway", cfg.WhatsAppAPIURL).Info("Customer WhatsApp notifications enabled")
	} else {
		close(notifierDone)
	}

	// Initialize courier providers
	providers := []courier.Provider{
		courier.NewUberClient(courierConfig(cfg, cfg.Uber), patterns.NewCircuitBreaker("UBER")),
		courier.NewPorterClient(courierConfig(cfg, cfg.Porter), patterns.NewCircuitBreaker("PORTER")),
	}

	// Initialize services
	writer := services.NewOrderWriter(st.orders, locker, opts)
	couponService := services.NewCouponService(st.coupons)
	dispatchService := services.NewDispatchService(writer, st.settings, providers, cfg.Dispatch.Timeout)
	orderService := services.NewOrderService(writer, couponService, dispatchService, services.OrderServiceConfig{
		AllowStateSkip: cfg.AllowStateSkip,
		DispatchBudget: cfg.Dispatch.Timeout + 10*time.Second,
	})
	paymentService := services.NewPaymentService(cfg.PaymentWebhookSecret, writer)
	trackingService := services.NewTrackingService(writer)

	// Setup routes
	router := handlers.NewRouter(
		handlers.RouterConfig{
			ServiceName:     serviceName,
			AdminAPIKeyHash: cfg.AdminAPIKeyHash,
			TracingEnabled:  cfg.TracingEnabled,
		},
		handlers.NewOrderHandler(orderService, trackingService, couponService),
		handlers.NewPaymentHandler(paymentService),
		handlers.NewAdminHandler(orderService, paymentService, couponService, dispatchService),
	)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.ServerPort).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}
	if err := orderService.Drain(shutdownCtx); err != nil {
		log.WithError(err).Warn("Shutdown interrupted background dispatches")
	}
	if notifier != nil {
		notifier.Close()
		select {
		case <-notifierDone:
		case <-shutdownCtx.Done():
			log.Warn("Shutdown interrupted pending customer notifications")
		}
	}
	log.Info("Server exited")
}

func initStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.StorageDriver == "memory" {
		log.Warn("Using in-memory storage, data is lost on restart")
		store := repository.NewMemoryStore()
		if err := migrations.SeedDefaults(ctx, store.Settings(), store.Coupons()); err != nil {
			return nil, err
		}
		return &stores{orders: store.Orders(), coupons: store.Coupons(), settings: store.Settings()}, nil
	}

	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := migrations.RunMigrations(db); err != nil {
		return nil, err
	}
	return &stores{
		orders:   repository.NewOrderRepository(db),
		coupons:  repository.NewCouponRepository(db),
		settings: repository.NewSettingsRepository(db),
	}, nil
}

func courierConfig(cfg *config.Config, c config.CourierConfig) courier.Config {
	return courier.Config{
		Enabled:       c.Enabled,
		BaseURL:       c.APIURL,
		APIKey:        c.APIKey,
		PickupAddress: cfg.KitchenAddress,
		Timeout:       cfg.Dispatch.Timeout,
		Retries:       cfg.Dispatch.Retries,
	}
}

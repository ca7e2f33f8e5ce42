package main

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"oip/autopurchase/internal/business/availability"
	"oip/autopurchase/internal/business/confirmation"
	"oip/autopurchase/internal/business/cost"
	"oip/autopurchase/internal/business/orchestrator"
	"oip/autopurchase/internal/business/placer"
	"oip/autopurchase/internal/business/purchase"
	"oip/autopurchase/internal/business/selector"
	"oip/autopurchase/internal/domains"
	"oip/autopurchase/internal/framework"
	"oip/autopurchase/internal/provider"
	"oip/autopurchase/internal/server/handlers"
	"oip/autopurchase/internal/server/routers"
	"oip/autopurchase/internal/worker"
	"oip/autopurchase/pkg/config"
	"oip/autopurchase/pkg/infra/kafka"
	"oip/autopurchase/pkg/infra/mysql"
	"oip/autopurchase/pkg/infra/redis"
	"oip/autopurchase/pkg/lmstfy"
	"oip/autopurchase/pkg/lmstfyx"
	"oip/autopurchase/pkg/logger"
	"oip/autopurchase/pkg/orderservice"
)

// App holds the wired engine
type App struct {
	Manager *worker.ManagerInstance
	Engine  *gin.Engine
}

// InitializeApp builds every component from cfg. cleanup closes the opened connections.
func InitializeApp(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, func(), error) {
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Warnf(ctx, "[Main] cleanup failed: %v", err)
			}
		}
	}
	fail := func(err error) (*App, func(), error) {
		cleanup()
		return nil, nil, err
	}

	// 1. stores
	var (
		store     availability.Store = availability.NewMemoryStore()
		inflight  orchestrator.InFlightStore
		notifiers orchestrator.MultiNotifier
	)
	if cfg.Store.Backend == "redis" {
		client, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, client.Close)
		store = redis.NewAvailabilityStore(client)
		inflight = redis.NewInFlightStore(client, redis.DefaultInFlightTTL)
		notifiers = append(notifiers, redis.NewPubSub(client, cfg.Redis.PurchaseChannel))
		log.Infof(ctx, "[Main] redis store at %s", cfg.Redis.Addr)
	}

	// 2. engine
	registry := provider.NewDefaultRegistry()
	calc := cost.NewCalculator()
	checker := availability.NewChecker(registry, store, cfg.Availability.CacheTTL, log)
	sel := selector.NewSelector(registry, checker, calc, selector.Config{
		MinReliabilityScore:    cfg.Selection.MinReliabilityScore,
		FallbackProviderCount:  cfg.Selection.FallbackProviderCount,
		MaxReasonablePrice:     cfg.Selection.MaxReasonablePrice,
		DefaultMaxDeliveryDays: cfg.Selection.DefaultMaxDelivery,
	}, log)
	plc := placer.NewPlacer(registry, placer.RetryConfig{
		MaxAttempts:    cfg.Retry.MaxAttempts,
		InitialDelay:   cfg.Retry.InitialDelay,
		MaxDelay:       cfg.Retry.MaxDelay,
		Multiplier:     cfg.Retry.Multiplier,
		RetryableCodes: placer.DefaultRetryableCodes,
	}, log)
	confirmer := confirmation.NewHandler(registry, confirmation.Config{
		MaxRetries:   cfg.Confirmation.MaxRetries,
		MaxWait:      cfg.Confirmation.MaxWait,
		PollInterval: cfg.Confirmation.PollInterval,
	}, log)
	service := purchase.NewService(sel, plc, confirmer, calc, log)

	orders := orderservice.NewClient(orderservice.Config{
		BaseURL:    cfg.OrderService.BaseURL,
		APIKey:     cfg.OrderService.APIKey,
		Timeout:    cfg.OrderService.Timeout,
		MaxRetries: cfg.OrderService.MaxRetries,
		RetryDelay: cfg.OrderService.RetryDelay,
		RateLimit:  cfg.OrderService.RateLimit,
		RateBurst:  cfg.OrderService.RateBurst,
	}, log)

	// 3. outcome sinks
	var (
		source framework.MessageSource
		proc   lmstfyx.Proc
	)
	if cfg.Lmstfy.Host != "" {
		client, err := lmstfy.NewClient(cfg.Lmstfy.Host, cfg.Lmstfy.Port, cfg.Lmstfy.Namespace, cfg.Lmstfy.Token)
		if err != nil {
			return fail(err)
		}
		source = client
		if cfg.Lmstfy.CallbackQueue != "" {
			notifiers = append(notifiers, lmstfy.NewCallbackNotifier(client, cfg.Lmstfy.CallbackQueue, log))
		}
	}
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, producer.Close)
		notifiers = append(notifiers, producer)
	}

	opts := []orchestrator.Option{}
	if len(notifiers) > 0 {
		opts = append(opts, orchestrator.WithNotifier(notifiers))
	}
	if cfg.MySQL.DSN != "" {
		dao, err := mysql.NewPurchaseDAO(cfg.MySQL.DSN)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, dao.Close)
		if err := dao.AutoMigrate(); err != nil {
			return fail(fmt.Errorf("migrate purchase records failed: %w", err))
		}
		opts = append(opts, orchestrator.WithRecorder(dao))
	}

	orch := orchestrator.NewOrchestrator(service, orders, inflight, orchestrator.Config{
		MaxConcurrentPurchases: cfg.Purchase.MaxConcurrentPurchases,
		BatchPause:             cfg.Purchase.BatchPause,
	}, log, opts...)

	// 4. loops
	if source != nil {
		proc = domains.GetProcess(log, &domains.Dependencies{Orchestrator: orch})
	}
	var scheduler *worker.Scheduler
	if cfg.Scheduler.Enabled {
		scheduler = worker.NewScheduler(orch, cfg.Scheduler.Interval, log)
	}
	mgr, err := worker.NewManagerInstance(cfg.Workers, source, proc, scheduler, log)
	if err != nil {
		return fail(err)
	}

	// 5. manual-trigger HTTP surface
	app := &App{Manager: mgr}
	if cfg.Server.Enabled {
		if cfg.App.Env != "dev" {
			gin.SetMode(gin.ReleaseMode)
		}
		hopts := []handlers.Option{}
		if scheduler != nil {
			hopts = append(hopts, handlers.WithScheduler(scheduler))
		}
		h := handlers.NewHandler(sel, service, orch, checker, orders, log, hopts...)
		app.Engine = routers.SetupRoutes(h, log)
	}

	return app, cleanup, nil
}

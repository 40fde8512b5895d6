package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/veggiepos-backend/api/routes"
	"github.com/angelmondragon/veggiepos-backend/internal/auth"
	"github.com/angelmondragon/veggiepos-backend/internal/cart"
	"github.com/angelmondragon/veggiepos-backend/internal/checkout"
	"github.com/angelmondragon/veggiepos-backend/internal/classifier"
	"github.com/angelmondragon/veggiepos-backend/internal/cron"
	"github.com/angelmondragon/veggiepos-backend/internal/pricing"
	"github.com/angelmondragon/veggiepos-backend/internal/sales"
	"github.com/angelmondragon/veggiepos-backend/internal/scale"
	"github.com/angelmondragon/veggiepos-backend/internal/users"
	"github.com/angelmondragon/veggiepos-backend/pkg/auth/session"
	"github.com/angelmondragon/veggiepos-backend/pkg/config"
	"github.com/angelmondragon/veggiepos-backend/pkg/db"
	"github.com/angelmondragon/veggiepos-backend/pkg/instance"
	"github.com/angelmondragon/veggiepos-backend/pkg/logger"
	"github.com/angelmondragon/veggiepos-backend/pkg/metrics"
	"github.com/angelmondragon/veggiepos-backend/pkg/migrate"
	"github.com/angelmondragon/veggiepos-backend/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Instance:    instance.GetID(),
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	requireResource(logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	err = migrate.ApplyAtBoot(context.Background(), cfg, logg, dbClient)
	requireResource(logg, "migrations", err)

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	requireResource(logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	requireResource(logg, "session manager", err)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	priceService, err := pricing.NewService(pricing.NewRepository(dbClient.DB()), dbClient, logg)
	requireResource(logg, "pricing service", err)
	if cfg.FeatureFlags.SeedPrices {
		inserted, err := priceService.SeedDefaults(context.Background())
		requireResource(logg, "price seed", err)
		if inserted > 0 {
			logg.Info(logg.WithField(context.Background(), "inserted", inserted), "seeded default prices")
		}
	}

	source, err := scale.NewSourceFromConfig(cfg.Scale)
	requireResource(logg, "scale source", err)
	sampler, err := scale.NewSampler(scale.SamplerParams{
		Source:       source,
		State:        scale.NewState(scale.InitialReading(cfg.Scale)),
		Filter:       scale.FilterConfigFrom(cfg.Scale),
		Interval:     cfg.Scale.SampleInterval,
		Logger:       logg,
		Metrics:      metrics.NewScaleMetrics(registry),
		TareOnBoot:   cfg.Scale.TareOnBoot,
		ErrorBacklog: cfg.Scale.ErrorBacklog,
	})
	requireResource(logg, "scale sampler", err)

	oracle, err := classifier.NewOracle(newClassifier(cfg.Classifier, logg), cfg.Classifier.Timeout, logg, metrics.NewClassifierMetrics(registry))
	requireResource(logg, "classifier", err)

	engine := cart.NewEngine()
	userRepo := users.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		Carts:          engine,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	requireResource(logg, "auth service", err)

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		UserRepo:       userRepo,
		PasswordConfig: cfg.Password,
	})
	requireResource(logg, "register service", err)

	salesRepo := sales.NewRepository(dbClient.DB())
	salesService, err := sales.NewService(salesRepo)
	requireResource(logg, "sales service", err)

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Tx:            dbClient,
		Sales:         salesRepo,
		Carts:         engine,
		CommitTimeout: cfg.Checkout.CommitTimeout,
		Logger:        logg,
		Metrics:       metrics.NewCheckoutMetrics(registry),
	})
	requireResource(logg, "checkout service", err)

	cronService, err := newCronService(cfg, logg, registry, redisClient, engine, sessionManager, salesService)
	requireResource(logg, "cron service", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":        cfg.App.Env,
		"addr":       addr,
		"scale_mode": cfg.Scale.Mode,
		"classifier": cfg.Classifier.Mode,
		"db_driver":  dbClient.Driver(),
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Params{
			Config:   cfg,
			Logger:   logg,
			DB:       dbClient,
			Redis:    redisClient,
			Sessions: sessionManager,
			Metrics:  registry,
			Auth:     authService,
			Register: registerService,
			Pricing:  priceService,
			Checkout: checkoutService,
			Sales:    salesService,
			Scale:    sampler.State(),
			Tarer:    sampler,
			Oracle:   oracle,
			TillCart: engine,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errs := make(chan error, 3)
	go func() {
		if err := sampler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errs <- err
		}
	}()
	go drainScaleErrors(ctx, logg, sampler.Errors())
	go func() {
		if err := cronService.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errs <- err
		}
	}()
	go func() {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logg.Info(ctx, "shutdown signal received")
	case runErr = <-errs:
		logg.Error(ctx, "component stopped unexpectedly", runErr)
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	runErr = multierr.Append(runErr, server.Shutdown(shutdownCtx))
	if runErr != nil {
		logg.Error(ctx, "api server stopped with errors", runErr)
		os.Exit(1)
	}
	logg.Info(ctx, "api server shut down gracefully")
}

func newClassifier(cfg config.ClassifierConfig, logg *logger.Logger) classifier.Classifier {
	if cfg.IsRemote() {
		remote, err := classifier.NewRemote(cfg.URL, &http.Client{Timeout: cfg.Timeout})
		if err == nil {
			return remote
		}
		logg.Warn(logg.WithField(context.Background(), "error", err.Error()), "remote classifier unavailable, using weighted random")
	}
	return classifier.NewWeightedRandom(cfg.Seed)
}

// The cart engine lives in this process, so the cart sweep has to run here
// as well; the Redis lock keeps replicas from running the same cycle twice.
func newCronService(
	cfg *config.Config,
	logg *logger.Logger,
	registry prometheus.Registerer,
	redisClient *redis.Client,
	engine *cart.Engine,
	sessions *session.Manager,
	reporter sales.Service,
) (*cron.Service, error) {
	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron:"+cfg.App.Env), cfg.Cron.LockTTL)
	if err != nil {
		return nil, err
	}
	sweep, err := cron.NewCartSweepJob(cron.CartSweepJobParams{
		Logger:   logg,
		Carts:    engine,
		Sessions: sessions,
		IdleTTL:  cfg.Checkout.CartIdleTTL,
	})
	if err != nil {
		return nil, err
	}
	daily, err := cron.NewDailySalesJob(logg, reporter)
	if err != nil {
		return nil, err
	}
	return cron.NewService(cron.ServiceParams{
		Logger:     logg,
		Registry:   cron.NewRegistry(sweep, daily),
		Lock:       lock,
		Metrics:    metrics.NewCronJobMetrics(registry),
		Interval:   cfg.Cron.Interval,
		JobTimeout: cfg.Cron.JobTimeout,
	})
}

const scaleErrorReportEvery = 100

// drainScaleErrors keeps the sampler's error channel moving and reports a
// summary when the source keeps failing.
func drainScaleErrors(ctx context.Context, logg *logger.Logger, errs <-chan error) {
	dropped := 0
	for err := range errs {
		dropped++
		if dropped%scaleErrorReportEvery == 0 {
			logg.Warn(logg.WithFields(ctx, map[string]any{"dropped": dropped, "last_error": err.Error()}), "scale source keeps failing")
		}
	}
}

func requireResource(logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), "failed to bootstrap "+resource, err)
	os.Exit(1)
}

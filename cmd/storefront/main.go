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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/angelmondragon/cafe-storefront/api"
	"github.com/angelmondragon/cafe-storefront/api/controllers"
	"github.com/angelmondragon/cafe-storefront/api/routes"
	"github.com/angelmondragon/cafe-storefront/internal/cart"
	"github.com/angelmondragon/cafe-storefront/internal/checkout"
	"github.com/angelmondragon/cafe-storefront/internal/handoff"
	"github.com/angelmondragon/cafe-storefront/internal/orders"
	"github.com/angelmondragon/cafe-storefront/internal/payments"
	"github.com/angelmondragon/cafe-storefront/internal/redirect"
	"github.com/angelmondragon/cafe-storefront/pkg/backend"
	"github.com/angelmondragon/cafe-storefront/pkg/config"
	"github.com/angelmondragon/cafe-storefront/pkg/db"
	"github.com/angelmondragon/cafe-storefront/pkg/instance"
	"github.com/angelmondragon/cafe-storefront/pkg/logger"
	"github.com/angelmondragon/cafe-storefront/pkg/metrics"
	"github.com/angelmondragon/cafe-storefront/pkg/migrate"
	"github.com/angelmondragon/cafe-storefront/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "storefront stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	sagaMetrics := metrics.NewSagaMetrics(reg)

	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			err = multierr.Append(err, closers[i]())
		}
	}()

	sub, ready, closer, err := buildSubstrate(ctx, cfg, logg)
	if err != nil {
		return err
	}
	if closer != nil {
		closers = append(closers, closer)
	}

	store, err := handoff.NewSlotStore(sub, cfg.Handoff.TTL, logg, sagaMetrics)
	if err != nil {
		return err
	}

	backendClient, err := backend.New(cfg.Backend)
	if err != nil {
		return err
	}
	cartReader, err := cart.NewReader(backendClient)
	if err != nil {
		return err
	}
	initiator, err := orders.NewInitiator(backendClient)
	if err != nil {
		return err
	}
	preparer, err := payments.NewPreparer(backendClient)
	if err != nil {
		return err
	}
	confirmer, err := payments.NewConfirmer(backendClient, cfg.Backend.ConfirmTimeout, sagaMetrics)
	if err != nil {
		return err
	}

	var sdk redirect.PaymentSdkClient
	sdk, err = redirect.NewNaverSDK(cfg.NaverPay)
	if err != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "naver pay sdk unavailable; kakao pay only")
		sdk = redirect.UnavailableSDK{Err: err}
	}
	driver, err := redirect.NewDriver(sdk)
	if err != nil {
		return err
	}

	checkoutSvc, err := checkout.NewService(checkout.Deps{
		Cart:      cartReader,
		Orders:    initiator,
		Payments:  preparer,
		Handoff:   store,
		Redirects: driver,
		Logger:    logg,
		Metrics:   sagaMetrics,
	})
	if err != nil {
		return err
	}
	resolver, err := checkout.NewCallbackResolver(checkout.CallbackDeps{
		Handoff:    store,
		Confirmer:  confirmer,
		Storefront: cfg.Storefront,
		Logger:     logg,
		Metrics:    sagaMetrics,
	})
	if err != nil {
		return err
	}
	reconciler, err := checkout.NewCompletionReconciler(checkout.CompletionDeps{
		Handoff:    store,
		Cart:       cartReader,
		Storefront: cfg.Storefront,
		Logger:     logg,
		Metrics:    sagaMetrics,
	})
	if err != nil {
		return err
	}

	server := api.NewServer(cfg, routes.NewRouter(cfg, logg, routes.Services{
		Checkout:   checkoutSvc,
		Callback:   resolver,
		Completion: reconciler,
		Ready:      ready,
		Metrics:    promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}))

	srvCtx := logg.WithFields(ctx, map[string]any{
		"env":            cfg.App.Env,
		"addr":           server.Addr,
		"handoff_driver": cfg.Handoff.Driver,
		"instance":       instance.GetID(),
	})
	logg.Info(srvCtx, "starting storefront server")

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logg.Info(srvCtx, "shutting down storefront server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildSubstrate opens the configured handoff backend. The returned pingers
// feed /health/ready and the closer releases the connection on shutdown.
func buildSubstrate(ctx context.Context, cfg *config.Config, logg *logger.Logger) (handoff.Substrate, map[string]controllers.Pinger, func() error, error) {
	switch cfg.Handoff.Driver {
	case config.HandoffDriverRedis:
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, nil, err
		}
		sub, err := handoff.NewRedisSubstrate(client)
		if err != nil {
			return nil, nil, nil, multierr.Append(err, client.Close())
		}
		return sub, map[string]controllers.Pinger{"redis": client}, client.Close, nil

	case config.HandoffDriverSQL:
		client, err := db.New(ctx, cfg.DB, logg)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := migrate.MaybeRunDev(ctx, cfg, logg, client); err != nil {
			return nil, nil, nil, multierr.Append(err, client.Close())
		}
		sub, err := handoff.NewSQLSubstrate(client)
		if err != nil {
			return nil, nil, nil, multierr.Append(err, client.Close())
		}
		sweeper, err := handoff.NewSweeper(handoff.SweeperParams{Logger: logg, Substrate: sub})
		if err != nil {
			return nil, nil, nil, multierr.Append(err, client.Close())
		}
		go func() {
			_ = sweeper.Run(ctx)
		}()
		return sub, map[string]controllers.Pinger{"database": client}, client.Close, nil

	default:
		logg.Warn(ctx, "using in-memory handoff store; slots do not survive restarts or span instances")
		return handoff.NewMemorySubstrate(), nil, nil, nil
	}
}

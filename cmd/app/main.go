package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"routeopt/cmd"
	"routeopt/internal/adapters/out/natsbus"
	"routeopt/internal/adapters/out/postgres"
	"routeopt/internal/jobs"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const shutdownTimeout = 30 * time.Second

func main() {
	config, err := cmd.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: config.LogLevel}))
	slog.SetDefault(logger)

	gormDB, err := gorm.Open(gormpostgres.Open(config.DB.DSN()), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	if err = postgres.Migrate(gormDB); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	rdb := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    config.Redis.Addrs,
		Password: config.Redis.Password,
		DB:       config.Redis.DB,
	})
	defer rdb.Close()

	nc, err := nats.Connect(config.NATS.URL,
		nats.Name(config.NATS.Name),
		nats.MaxReconnects(-1),
		nats.ErrorHandler(natsbus.ErrorHandler(logger)),
	)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		log.Fatalf("Failed to open JetStream: %v", err)
	}

	app := cmd.NewCompositionRoot(config, gormDB, rdb, js, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	streamCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	_, err = natsbus.EnsureStream(streamCtx, js, app.StreamOptions())
	cancel()
	if err != nil {
		log.Fatalf("Failed to prepare event stream: %v", err)
	}

	logger.InfoContext(ctx, "Starting", "roles", config.Roles)
	if err = run(ctx, app, config); err != nil {
		logger.ErrorContext(ctx, "Stopped with error", "error", err)
		os.Exit(1)
	}
	logger.InfoContext(ctx, "Stopped")
}

// run starts every configured role and blocks until ctx is done or one of
// them fails.
func run(ctx context.Context, app *cmd.CompositionRoot, config cmd.Config) error {
	g, ctx := errgroup.WithContext(ctx)

	if config.Has(cmd.RoleAPI) {
		e, err := app.NewHTTPServer()
		if err != nil {
			return fmt.Errorf("build http server: %w", err)
		}
		g.Go(func() error {
			return startWebServer(ctx, e, config.HTTPPort)
		})
	}

	if config.Has(cmd.RoleWorker) {
		pool := app.WorkerPool()
		g.Go(func() error {
			return pool.Run(ctx)
		})
	}

	if config.Has(cmd.RoleRouter) {
		router := app.NewEventRouter()
		g.Go(func() error {
			return router.Run(ctx)
		})
	}

	var scheduled []jobs.Job
	if config.Has(cmd.RoleAutoscaler) {
		scheduled = append(scheduled, app.NewAutoscalerJob())
	}
	if config.Has(cmd.RoleReaper) {
		scheduled = append(scheduled, app.NewStaleSubmissionJob())
	}
	if len(scheduled) > 0 {
		jobManager := jobs.NewJobManager(scheduled...)
		if err := jobManager.StartAll(); err != nil {
			return err
		}
		g.Go(func() error {
			<-ctx.Done()
			jobManager.StopAll()
			return nil
		})
	}

	return g.Wait()
}

func startWebServer(ctx context.Context, e *echo.Echo, port string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- e.Start(fmt.Sprintf("0.0.0.0:%s", port))
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

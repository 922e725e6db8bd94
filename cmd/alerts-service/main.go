package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/handaph/alerts-service/internal/alerts"
	httpapi "github.com/handaph/alerts-service/internal/api/http"
	"github.com/handaph/alerts-service/internal/cache"
	"github.com/handaph/alerts-service/internal/config"
	"github.com/handaph/alerts-service/internal/observability"
	"github.com/handaph/alerts-service/internal/push"
	"github.com/handaph/alerts-service/internal/scheduler"
	"github.com/handaph/alerts-service/internal/sms"
	"github.com/handaph/alerts-service/internal/store"
	"github.com/handaph/alerts-service/internal/weather"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	slogger := newLogger(cfg.LogLevel, cfg.LogFormat)
	clock := clockwork.NewRealClock()
	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)

	// Shared HTTP client for all outbound calls; every request carries this
	// bounded timeout.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	weatherClient := weather.NewClient(httpClient, cfg.WeatherBaseURL, slogger)
	proximityCache := cache.New(cfg.CacheFile, cfg.CacheThreshold, clock, slogger)
	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge, clock)
	weatherSvc := weather.NewService(weatherClient, proximityCache, memStore, clock, slogger, metrics, cfg.CacheFreshFor)

	fetcher := alerts.NewFetcher(httpClient, cfg.AlertsURL)
	sender := &push.LogSender{Logger: slogger}
	dispatcher := alerts.NewDispatcher(fetcher, sender, slogger, metrics)

	gateway := sms.NewGateway(httpClient, cfg.SMSEndpoint, cfg.SMSToken, cfg.SMSSenderID, slogger, metrics)

	sched := scheduler.New(cfg.Locations, cfg.FetchInterval, weatherSvc, fetcher, gateway,
		cfg.SeverityThreshold, cfg.SMSRecipients, slogger, metrics)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "alerts-service",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "alerts-service",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	httpapi.RegisterRoutes(app, httpapi.Deps{
		Weather:    weatherSvc,
		Alerts:     fetcher,
		Dispatcher: dispatcher,
		SMS:        gateway,
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			slogger.Error("fiber server stopped", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slogger.Error("error during shutdown", "error", err)
	}
}

func newLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

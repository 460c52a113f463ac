package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/ayurcare/clinic-api/internal/config"
	"github.com/ayurcare/clinic-api/internal/email"
	"github.com/ayurcare/clinic-api/internal/handler/health"
	"github.com/ayurcare/clinic-api/internal/repository/postgres"
	"github.com/ayurcare/clinic-api/internal/service/notification"
	"github.com/ayurcare/clinic-api/internal/sms"
	internalworker "github.com/ayurcare/clinic-api/internal/worker"
	"github.com/ayurcare/clinic-api/pkg/logger"
	"github.com/ayurcare/clinic-api/pkg/messaging"
	"github.com/ayurcare/clinic-api/pkg/messaging/redis"
	"github.com/ayurcare/clinic-api/pkg/metrics"
	"github.com/ayurcare/clinic-api/pkg/worker"
)

const (
	metricsNamespace = "clinic_worker"
	healthPort       = 8081
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	appLogger := logger.Setup(cfg.Log.Level, cfg.Log.Pretty)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, appLogger); err != nil {
		appLogger.Error(err, "Worker exited with error")
		os.Exit(1)
	}
	appLogger.Info("Worker stopped")
}

func run(ctx context.Context, cfg *config.Config, appLogger *logger.Logger) error {
	loc, err := cfg.Booking.Location()
	if err != nil {
		return err
	}

	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	brokerCfg := cfg.Redis.ToBrokerConfig()
	client, err := redis.NewClient(ctx, brokerCfg)
	if err != nil {
		return err
	}
	broker := redis.NewRedisBrokerWithClient(client, brokerCfg.Streams, &appLogger.ZL)
	defer broker.Close()

	registry := prometheus.NewRegistry()
	m := metrics.New(metricsNamespace).MustRegister(registry)
	repos := postgres.NewRepositories(db)

	processor := worker.NewOutboxProcessor(
		repos.Outbox,
		broker,
		cfg.Outbox.ToWorkerConfig(cfg.Redis.Channel),
		appLogger.WithFields(map[string]interface{}{"component": "outbox"}),
		m,
	)

	dispatcher := notification.NewDispatcher(
		newMailer(cfg),
		newSMSSender(cfg),
		m,
		notification.Config{
			ClinicName: cfg.Notification.ClinicName,
			AdminEmail: cfg.Notification.AdminEmail,
			SMSEnabled: cfg.Notification.SMSEnabled,
		},
	)
	consumer := messaging.NewBrokerAdapter(broker, appLogger.ZL)

	scheduler := internalworker.NewScheduler(loc, appLogger)
	purger := worker.NewOutboxPurgeWorker(repos.Outbox, cfg.Outbox.RetentionDays, appLogger, m)
	if err := scheduler.Add("outbox-purge", cfg.Outbox.PurgeSchedule, purger.Run); err != nil {
		return err
	}

	srv := healthServer(db.PingContext, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}, registry)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error(err, "Health check server failed")
		}
	}()

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		processor.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		if err := dispatcher.Run(ctx, consumer, cfg.Redis.Channel); err != nil && !errors.Is(err, context.Canceled) {
			appLogger.Error(err, "Notification dispatcher stopped")
		}
	}()
	go func() {
		defer wg.Done()
		scheduler.Run(ctx)
	}()

	appLogger.Info("Worker started", "stream", cfg.Redis.Channel, "group", brokerCfg.Streams.Group)
	<-ctx.Done()
	appLogger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(err, "Health check server shutdown failed")
	}
	wg.Wait()
	return nil
}

func newMailer(cfg *config.Config) email.Sender {
	if !cfg.Secrets.MailerConfigured() {
		log.Warn().Msg("mailer not configured, emails will only be logged")
		return email.NewNopSender()
	}
	return email.NewSMTPSender(email.SMTPConfig{
		Host:     cfg.Secrets.SMTPHost,
		Port:     cfg.Secrets.SMTPPort,
		Username: cfg.Secrets.SMTPUsername,
		Password: cfg.Secrets.SMTPPassword,
		From:     cfg.Notification.FromAddress,
	})
}

func newSMSSender(cfg *config.Config) sms.Sender {
	if !cfg.Notification.SMSEnabled || !cfg.Secrets.TwilioConfigured() {
		return sms.NewNopSender()
	}
	return sms.NewTwilioSender(sms.TwilioConfig{
		AccountSID: cfg.Secrets.TwilioAccountSID,
		AuthToken:  cfg.Secrets.TwilioAuthToken,
		FromNumber: cfg.Secrets.TwilioFromNumber,
		Region:     cfg.Booking.PhoneRegion,
	})
}

// healthServer exposes liveness, readiness and metrics on a side port.
func healthServer(dbPing, redisPing health.Check, registry *prometheus.Registry) *http.Server {
	engine := gin.New()
	engine.Use(gin.Recovery())
	h := health.NewHandler(map[string]health.Check{
		"database": dbPing,
		"redis":    redisPing,
	}, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	h.RegisterRoutes(engine.Group(""))

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", healthPort),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

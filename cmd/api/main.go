package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/ayurcare/clinic-api/internal/config"
	appointmentHandler "github.com/ayurcare/clinic-api/internal/handler/appointment"
	authHandler "github.com/ayurcare/clinic-api/internal/handler/auth"
	blogHandler "github.com/ayurcare/clinic-api/internal/handler/blog"
	catalogHandler "github.com/ayurcare/clinic-api/internal/handler/catalog"
	contactHandler "github.com/ayurcare/clinic-api/internal/handler/contact"
	"github.com/ayurcare/clinic-api/internal/handler/dashboard"
	"github.com/ayurcare/clinic-api/internal/handler/health"
	promHandler "github.com/ayurcare/clinic-api/internal/handler/prometheus"
	pageHandler "github.com/ayurcare/clinic-api/internal/handler/page"
	userHandler "github.com/ayurcare/clinic-api/internal/handler/user"
	"github.com/ayurcare/clinic-api/internal/middleware"
	"github.com/ayurcare/clinic-api/internal/repository/postgres"
	"github.com/ayurcare/clinic-api/internal/router"
	appointmentService "github.com/ayurcare/clinic-api/internal/service/appointment"
	authService "github.com/ayurcare/clinic-api/internal/service/auth"
	blogService "github.com/ayurcare/clinic-api/internal/service/blog"
	catalogService "github.com/ayurcare/clinic-api/internal/service/catalog"
	contactService "github.com/ayurcare/clinic-api/internal/service/contact"
	eventService "github.com/ayurcare/clinic-api/internal/service/event"
	pageService "github.com/ayurcare/clinic-api/internal/service/page"
	userService "github.com/ayurcare/clinic-api/internal/service/user"
	"github.com/ayurcare/clinic-api/internal/worker"
	"github.com/ayurcare/clinic-api/pkg/auth"
	"github.com/ayurcare/clinic-api/pkg/logger"
	"github.com/ayurcare/clinic-api/pkg/messaging/redis"
	"github.com/ayurcare/clinic-api/pkg/metrics"
	"github.com/ayurcare/clinic-api/pkg/security"
	"github.com/ayurcare/clinic-api/pkg/validator"
)

const metricsNamespace = "clinic"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.Setup(cfg.Log.Level, cfg.Log.Pretty)
	if !cfg.Log.Pretty {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, appLogger); err != nil {
		log.Error().Err(err).Msg("api exited with error")
		os.Exit(1)
	}
	log.Info().Msg("server exited properly")
}

func run(ctx context.Context, cfg *config.Config, appLogger *logger.Logger) error {
	loc, err := cfg.Booking.Location()
	if err != nil {
		return err
	}
	closedDay, err := cfg.Booking.ClosedWeekday()
	if err != nil {
		return err
	}

	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	redisClient, err := redis.NewClient(ctx, cfg.Redis.ToBrokerConfig())
	if err != nil {
		return err
	}
	defer redisClient.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(metricsNamespace).MustRegister(registry)
	httpMetrics := promHandler.New(registry, metricsNamespace)

	repos := postgres.NewRepositories(db)
	v := validator.New(validator.Rules{Location: loc, ClosedDay: closedDay, PhoneRegion: cfg.Booking.PhoneRegion})

	// Services
	events := eventService.NewEventService(repos.Outbox)
	catalogSvc := catalogService.NewService(repos.Services, repos.Catalog, v, cfg.Catalog.CacheTTL)
	if err := catalogSvc.Warm(ctx); err != nil {
		log.Warn().Err(err).Msg("catalog warm-up failed, will load on first request")
	}
	appointmentSvc := appointmentService.NewService(
		repos.Appointments,
		catalogSvc,
		v,
		events,
		appMetrics,
		appointmentService.Config{StrictTransitions: cfg.Booking.StrictTransitions},
	)
	authSvc := authService.NewService(
		repos.Users,
		auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiry()),
		security.NewBcryptHasher(cfg.Auth.BcryptCost),
		authService.NewRedisDenylist(redisClient),
		authService.NewRedisResetTokens(redisClient),
		events,
		v,
		authService.Config{
			BootstrapEmail:    cfg.Admin.BootstrapEmail,
			BootstrapPassword: cfg.Secrets.AdminBootstrapPassword,
			PasswordResetURL:  cfg.Auth.PasswordResetURL,
			PasswordResetTTL:  cfg.Auth.PasswordResetTTL,
		},
	)
	userSvc := userService.NewService(repos.Users, v)
	blogSvc := blogService.NewService(repos.Blog, v)
	pageSvc := pageService.NewService(repos.Pages, v)
	contactSvc := contactService.NewService(repos.Contact, events, v)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(authSvc)
	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:    rate.Limit(cfg.RateLimit.RequestsPerSecond),
			Burst:   cfg.RateLimit.Burst,
			IdleTTL: 10 * time.Minute,
		})
	}
	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.CORS.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.CORS.AllowedOrigins
	}

	// Handlers
	healthHandler := health.NewHandler(map[string]health.Check{
		"database": db.PingContext,
		"redis": func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		},
	}, httpMetrics.HTTPHandler())

	r := router.NewRouter(
		authMiddleware,
		healthHandler,
		httpMetrics,
		router.RouterConfig{
			CORSConfig:     corsConfig,
			RequestTimeout: cfg.Server.RequestTimeout,
			MaxBodyBytes:   cfg.Server.MaxBodyBytes,
			RateLimiter:    limiter,
		},
		appointmentHandler.NewHandler(appointmentSvc),
		authHandler.NewHandler(authSvc),
		userHandler.NewHandler(userSvc),
		catalogHandler.NewHandler(catalogSvc),
		blogHandler.NewHandler(blogSvc),
		pageHandler.NewHandler(pageSvc),
		contactHandler.NewHandler(contactSvc),
		dashboard.NewHandler(appointmentSvc, catalogSvc.CountServices, blogSvc.Count),
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      otelhttp.NewHandler(r.Setup(), "clinic-api"),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Background housekeeping
	scheduler := worker.NewScheduler(loc, appLogger)
	if cfg.Catalog.CacheTTL > 0 {
		if err := scheduler.Add("catalog-refresh", fmt.Sprintf("@every %s", cfg.Catalog.CacheTTL), func(ctx context.Context) {
			if err := catalogSvc.Warm(ctx); err != nil {
				log.Warn().Err(err).Msg("catalog refresh failed")
			}
		}); err != nil {
			return err
		}
	}
	if limiter != nil {
		if err := scheduler.Add("rate-limiter-sweep", "@every 5m", func(context.Context) {
			if n := limiter.Sweep(); n > 0 {
				log.Debug().Int("evicted", n).Msg("rate limiter buckets evicted")
			}
		}); err != nil {
			return err
		}
	}
	go scheduler.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/sync/errgroup"

	"mediareport/internal/analytics"
	"mediareport/internal/capture"
	"mediareport/internal/composio"
	"mediareport/internal/config"
	"mediareport/internal/constants"
	"mediareport/internal/dedup"
	"mediareport/internal/ingress"
	"mediareport/internal/logger"
	"mediareport/internal/mail"
	"mediareport/internal/narrative"
	"mediareport/internal/pipeline"
	"mediareport/internal/search"
	"mediareport/internal/webhook"
	"mediareport/pkg/bootstrap"
	"mediareport/pkg/circuitbreaker"
	"mediareport/pkg/health"
	"mediareport/pkg/logging"
	"mediareport/pkg/metrics"
	"mediareport/pkg/middleware"
	"mediareport/pkg/ratelimit"
	"mediareport/pkg/tracing"
)

type App struct {
	*bootstrap.Base
	pipeline       *pipeline.Pipeline
	handler        *webhook.Handler
	router         *gin.Engine
	server         *http.Server
	tracerProvider *tracing.TracerProvider
	breakers       []health.Breaker
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	return &App{
		Base: bootstrap.NewBase(cfg, log),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	metrics.Register()

	tp, err := tracing.Init(a.Config.Tracing, constants.ServiceName)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracerProvider = tp

	if err := a.InitRedis(ctx); err != nil {
		return fmt.Errorf("failed to initialize redis: %w", err)
	}

	filter, err := a.initFilter(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize ingress filter: %w", err)
	}

	if err := a.initPipeline(ctx); err != nil {
		return fmt.Errorf("failed to initialize pipeline: %w", err)
	}

	a.handler = webhook.NewHandler(filter, a.pipeline, a.Logger, !a.Config.IsProduction())

	a.initRouter(ctx)
	a.initServer()

	return nil
}

func (a *App) initFilter(ctx context.Context) (*ingress.Filter, error) {
	var opts []ingress.Option
	if a.Config.Dedup.Enabled {
		if a.Redis == nil {
			a.Logger.WarnwCtx(ctx, "Dedup enabled but Redis is not configured, duplicate deliveries will be processed")
		} else {
			var repo dedup.Repository = dedup.NewRepository(a.Redis)
			if a.Config.CircuitBreaker.Enabled {
				cbRepo := dedup.NewCircuitBreakerRepository(repo, a.Config.CircuitBreaker)
				a.breakers = append(a.breakers, cbRepo.Breaker())
				repo = cbRepo
			}
			ttl := time.Duration(a.Config.Dedup.TTLSeconds) * time.Second
			opts = append(opts, ingress.WithDuplicateChecker(dedup.NewService(repo, ttl, a.Logger)))
		}
	}
	return ingress.NewFilter(a.Config.Ingress, a.Logger, opts...)
}

func (a *App) initPipeline(ctx context.Context) error {
	var searchOpts []search.Option
	if a.Config.CircuitBreaker.Enabled {
		cb := circuitbreaker.NewWrapper(a.Config.CircuitBreaker.Breaker("search"))
		a.breakers = append(a.breakers, cb)
		searchOpts = append(searchOpts, search.WithBreaker(cb))
	}
	var searcher pipeline.Searcher = search.NewClient(a.Config.Search, a.Logger, searchOpts...)
	if a.Config.Search.Readability.Enabled {
		searcher = search.WithReadability(searcher, a.Config.Search.Readability, a.Logger)
	}

	chat, err := narrative.NewChatModel(ctx, a.Config.LLM)
	if err != nil {
		return fmt.Errorf("failed to create chat model: %w", err)
	}

	composioClient := composio.NewClient(a.Config.Composio, a.Logger)

	mailer, err := a.newMailer(composioClient)
	if err != nil {
		return err
	}

	deps := pipeline.Dependencies{
		Mailer:   mailer,
		Searcher: searcher,
		Narrator: narrative.New(chat, a.Config.LLM, a.Logger),
		Browser:  capture.NewBrowser(a.Config.Browser, a.Logger),
		Uploader: composioClient,
	}
	if a.Config.Analytics.Enabled {
		deps.Analytics = a.newAnalytics()
	}

	a.pipeline = pipeline.New(deps, a.Logger)
	a.Logger.InfowCtx(ctx, "Pipeline initialized",
		"mail_provider", a.Config.Mail.Provider,
		"analytics", a.Config.Analytics.Enabled,
		"readability", a.Config.Search.Readability.Enabled,
	)
	return nil
}

func (a *App) newMailer(composioClient *composio.Client) (pipeline.Mailer, error) {
	switch a.Config.Mail.Provider {
	case "", constants.MailProviderComposio:
		return mail.NewComposioMailer(composioClient, a.Logger), nil
	case constants.MailProviderSendGrid:
		return mail.NewSendGridMailer(a.Config.Mail.SendGrid, a.Logger), nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", a.Config.Mail.Provider)
	}
}

func (a *App) newAnalytics() pipeline.Analytics {
	var provider analytics.Provider = analytics.NewHTTPProvider(a.Config.Analytics, a.Logger)
	if a.Config.CircuitBreaker.Enabled {
		bp := analytics.NewBreakerProvider(provider, a.Config.CircuitBreaker.Breaker("analytics"))
		a.breakers = append(a.breakers, bp.Breaker())
		provider = bp
	}
	if a.Redis != nil && a.Config.Analytics.CacheTTLSeconds > 0 {
		ttl := time.Duration(a.Config.Analytics.CacheTTLSeconds) * time.Second
		provider = analytics.NewCacheProvider(provider, a.Redis, ttl, a.Logger)
	}
	return provider
}

func (a *App) initRouter(ctx context.Context) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	if a.Config.Tracing.Enabled {
		router.Use(tracing.GinMiddleware(constants.ServiceName))
	}

	router.Use(middleware.RecoveryMiddleware(a.Logger))
	router.Use(middleware.LoggerMiddleware(a.Logger))
	router.Use(middleware.RequestIDMiddleware())

	if a.Config.RateLimit.Enabled {
		rateLimitConfig := ratelimit.RateLimitConfig{
			RPS:             a.Config.RateLimit.RPS,
			Burst:           a.Config.RateLimit.Burst,
			CleanupInterval: time.Duration(a.Config.RateLimit.CleanupInterval) * time.Second,
			MaxAge:          time.Duration(a.Config.RateLimit.MaxAge) * time.Second,
			Paths:           []string{a.Config.Server.WebhookPath},
		}
		router.Use(ratelimit.RateLimitMiddleware(ctx, rateLimitConfig))
		a.Logger.InfowCtx(ctx, "Rate limiting enabled", "rps", rateLimitConfig.RPS, "burst", rateLimitConfig.Burst)
	}

	a.handler.RegisterRoutes(router, a.Config.Server.WebhookPath)

	healthRegistry := health.NewCheckerRegistry().ForService(constants.ServiceName)
	if a.Redis != nil {
		healthRegistry.RegisterOptional(health.NewRedisChecker(a.Redis))
	}
	for _, b := range a.breakers {
		healthRegistry.RegisterOptional(health.NewBreakerChecker(b))
	}

	router.GET("/health", func(c *gin.Context) {
		h := healthRegistry.Check(c.Request.Context())
		statusCode := http.StatusOK
		if h.Status == health.StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, h)
	})

	router.GET("/api", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Media coverage report service"})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	a.router = router
}

func (a *App) initServer() {
	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.router,
		ReadTimeout:  a.Config.Server.ReadTimeoutSeconds,
		WriteTimeout: a.Config.Server.WriteTimeoutSeconds,
	}
}

func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfowCtx(ctx, "HTTP server starting",
			"port", a.Config.Server.Port,
			"webhook_path", a.Config.Server.WebhookPath,
		)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		return a.Shutdown(context.WithoutCancel(gCtx))
	})

	return g.Wait()
}

func (a *App) Shutdown(ctx context.Context) error {
	shutdownCtx := logging.WithServiceName(ctx, constants.ServiceName)
	a.Logger.InfowCtx(shutdownCtx, "Shutting down report service")

	additionalShutdown := func(ctx context.Context) []error {
		var errs []error

		if a.server != nil {
			serverCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()
			if err := a.server.Shutdown(serverCtx); err != nil {
				errs = append(errs, fmt.Errorf("HTTP server shutdown error: %w", err))
			}
		}

		if a.tracerProvider != nil {
			if err := a.tracerProvider.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("tracer provider shutdown error: %w", err))
			}
		}

		return errs
	}

	return a.Base.Shutdown(shutdownCtx, additionalShutdown)
}

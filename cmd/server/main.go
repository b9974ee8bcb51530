package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/benvon/levelup-ai/internal/backend"
	"github.com/benvon/levelup-ai/internal/config"
	"github.com/benvon/levelup-ai/internal/handlers"
	"github.com/benvon/levelup-ai/internal/logger"
	"github.com/benvon/levelup-ai/internal/middleware"
	"github.com/benvon/levelup-ai/internal/preferences"
	"github.com/benvon/levelup-ai/internal/prompt"
	"github.com/benvon/levelup-ai/internal/queue"
	"github.com/benvon/levelup-ai/internal/quota"
	"github.com/benvon/levelup-ai/internal/services/dispatch"
	"github.com/benvon/levelup-ai/internal/telemetry"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const serviceName = "levelup-ai"

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug mode for LLM API logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(serviceName, debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	if err := run(cfg, zapLogger, debugMode); err != nil {
		zapLogger.Fatal("server_failed", zap.Error(err))
	}
}

func run(cfg *config.Config, zapLogger *zap.Logger, debugMode bool) error {
	zapLogger.Info("starting_server",
		zap.String("version", version),
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("store_backend", cfg.StoreBackend),
		zap.String("auth_provider", cfg.AuthProvider),
		zap.String("ai_provider", cfg.AIProvider),
		zap.String("ai_model", cfg.AIModel),
		zap.Int("daily_quota", cfg.DailyQuota),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracingEnabled := false
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else if tp, err := telemetry.InitTracer(ctx, serviceName, cfg.OTELEndpoint); err != nil {
			zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		} else {
			tracingEnabled = true
			zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
					zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
				}
			}()
		}
	}

	stores, err := backend.Open(ctx, cfg, zapLogger)
	if err != nil {
		return err
	}
	defer stores.Close(zapLogger)

	tracker := quota.NewTracker(stores.Quota, cfg.DailyQuota)
	if stores.Memory != nil {
		go stores.Memory.StartJanitor(ctx, tracker, time.Hour, zapLogger)
	}
	prefs := preferences.NewService(stores.Preferences, cfg.DefaultLanguage)

	prompts, err := loadPrompts(cfg.PromptTemplatesFile)
	if err != nil {
		return err
	}

	generator, err := createGenerator(cfg, zapLogger, debugMode)
	switch {
	case err != nil:
		zapLogger.Warn("failed_to_create_ai_provider_ai_features_disabled", zap.Error(err))
		generator = nil
	case generator == nil:
		zapLogger.Warn("generation_api_key_not_configured", zap.String("ai_provider", cfg.AIProvider))
	default:
		// the Gemini client holds a gRPC connection
		if closer, ok := generator.(io.Closer); ok {
			defer func() {
				if err := closer.Close(); err != nil {
					zapLogger.Warn("failed_to_close_ai_provider", zap.Error(err))
				}
			}()
		}
	}

	verifier, err := createVerifier(ctx, cfg)
	if err != nil {
		return err
	}
	if verifier == nil {
		zapLogger.Warn("token_verification_disabled_development_mode")
	}

	var publisher queue.Publisher = queue.NoopPublisher{}
	if cfg.RabbitMQURL != "" {
		rabbit, err := connectRabbitMQ(ctx, cfg.RabbitMQURL, zapLogger)
		if err != nil {
			return err
		}
		publisher = rabbit
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()

	dispatcher := dispatch.New(dispatch.Config{
		Quota:           tracker,
		Languages:       prefs,
		Prompts:         prompts,
		Generator:       generator,
		Publisher:       publisher,
		Logger:          zapLogger,
		DebugMode:       debugMode,
		DefaultLanguage: cfg.DefaultLanguage,
	})
	zapLogger.Info("dispatcher_ready",
		zap.String("generator", dispatcher.GeneratorName()),
		zap.Int("daily_quota", tracker.Limit()),
		zap.String("default_language", cfg.DefaultLanguage),
	)

	rateLimitMW, err := middleware.RateLimit(cfg.RateLimit, stores.Redis)
	if err != nil {
		return err
	}

	static := handlers.NewStaticHandler(cfg.StaticDir)

	r := mux.NewRouter()

	// gorilla/mux runs middleware in registration order, outermost first
	if tracingEnabled {
		r.Use(telemetry.RouterMiddleware(serviceName))
	}
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS, static != nil))
	r.Use(middleware.CORS(cfg.CORSOrigins, zapLogger))
	r.Use(middleware.RequestID)
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize, cfg.MaxUploadBytes))
	r.Use(middleware.BodyType("/api/ai/process-audio", "/api/ai/process-image"))
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Audit(zapLogger))
	r.Use(middleware.Logging(zapLogger))

	handlers.NewHealthChecker(version, map[string]handlers.CheckFunc{
		"quota_store":       tracker.Ping,
		"preferences_store": prefs.Ping,
		"event_queue":       publisher.HealthCheck,
	}).RegisterRoutes(r)

	if openAPIHandler, err := handlers.NewOpenAPIHandler(filepath.Join("api", "openapi", "openapi.yaml")); err != nil {
		zapLogger.Warn("openapi_document_unavailable", zap.Error(err))
	} else {
		openAPIHandler.RegisterRoutes(r)
	}

	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.Use(rateLimitMW)

	handlers.NewAuthHandler(verifier, zapLogger).RegisterRoutes(apiRouter.PathPrefix("/auth").Subrouter())
	handlers.NewSettingsHandler(prefs, zapLogger).RegisterRoutes(apiRouter.PathPrefix("/settings").Subrouter())
	handlers.NewAIHandler(dispatcher, tracker.Limit(), cfg.MaxUploadBytes, zapLogger).RegisterRoutes(apiRouter.PathPrefix("/ai").Subrouter())
	handlers.NewUsageHandler(tracker, zapLogger).RegisterRoutes(apiRouter)

	// Preflight requests never match a POST route, so give them one for CORS to answer
	r.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	if static != nil {
		static.RegisterRoutes(r)
		zapLogger.Info("serving_static_frontend", zap.String("dir", cfg.StaticDir))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	zapLogger.Info("server_shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	zapLogger.Info("server_exited")
	return nil
}

func loadPrompts(path string) (*prompt.Builder, error) {
	if path == "" {
		return prompt.New()
	}
	return prompt.Load(path)
}

package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/benefitsnav/carl-assistant/internal/api/handlers"
	"github.com/benefitsnav/carl-assistant/internal/api/router"
	"github.com/benefitsnav/carl-assistant/internal/assistant"
	"github.com/benefitsnav/carl-assistant/internal/chat"
	"github.com/benefitsnav/carl-assistant/internal/compliance"
	appconfig "github.com/benefitsnav/carl-assistant/internal/config"
	"github.com/benefitsnav/carl-assistant/internal/directory"
	"github.com/benefitsnav/carl-assistant/internal/observability/metrics"
	"github.com/benefitsnav/carl-assistant/internal/privacy"
	"github.com/benefitsnav/carl-assistant/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting carl assistant API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	// Compliance audit store (optional; runs without one in development)
	var audit assistant.AuditRecorder
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer func() { _ = db.Close() }()
		audit = compliance.NewAuditService(db, logger)
	}

	// Privacy resolver with censorship probe
	var probe privacy.CensorshipProbe
	if probeURL := cfg.ProbeURL; probeURL != "" {
		probe = privacy.NewHTTPProbe(probeURL, nil, logger)
	} else if cfg.DirectURL != "" {
		probe = privacy.NewHTTPProbe(strings.TrimSuffix(cfg.DirectURL, "/")+"/health", nil, logger)
	}
	privacyCfg := privacy.Config{
		DirectURL:     cfg.DirectURL,
		CDNFrontURL:   cfg.CDNFrontURL,
		ReflectorURL:  cfg.ReflectorURL,
		ReflectorPath: cfg.ReflectorPath,
		TorSocksAddr:  cfg.TorSocksAddr,
	}
	if _, err := privacy.NewResolver(privacyCfg, probe, logger); err != nil {
		logger.Error("failed to build privacy resolver", "error", err)
		os.Exit(1)
	}

	// Intent parsing backend
	intentClient, intentModel, err := buildIntentClient(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build intent backend", "error", err)
		os.Exit(1)
	}

	assistantMetrics := metrics.NewAssistantMetrics(nil)
	searcher := directory.NewClient(cfg.SearchBaseURL, nil, logger)

	// Every conversation session gets its own pipeline so tor configuration
	// and warm-up state never leak across sessions.
	newOrchestrator := func() *assistant.Orchestrator {
		resolver, err := privacy.NewResolver(privacyCfg, probe, logger)
		if err != nil {
			// The config was validated at startup; this cannot fail here.
			logger.Error("per-session resolver failed", "error", err)
			os.Exit(1)
		}
		return assistant.NewOrchestrator(assistant.OrchestratorDeps{
			Resolver:     resolver,
			IntentParser: assistant.NewIntentParser(intentClient, intentModel, logger),
			Searcher:     searcher,
			Composer:     assistant.NewComposer(cfg.ComposeModelID, logger),
			ComposeClient: func(endpoint privacy.EndpointDescriptor, channel *privacy.Channel) assistant.LLMClient {
				return assistant.NewOpenAIClient(cfg.ComposeAPIKey, cfg.ComposeModelID, endpoint.BaseURL, channel.HTTP)
			},
			Metrics: assistantMetrics,
			Audit:   audit,
			Logger:  logger,
		})
	}

	// The REST surface is stateless (history travels in the request), so its
	// one-shot calls share a single pipeline. It also hosts the warm-up.
	orch := newOrchestrator()
	orch.Warmup()

	// Websocket chat with a redis transcript store
	var chatHandler *chat.Handler
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		rdb := redis.NewClient(opts)
		defer func() { _ = rdb.Close() }()
		sessions := chat.NewSessionManager(func() chat.Assistant { return newOrchestrator() })
		chatHandler = chat.NewHandler(sessions, chat.NewTranscriptStore(rdb), logger)
	}

	r := router.New(&router.Config{
		Logger:           logger,
		AssistantHandler: handlers.NewAssistantHandler(orch, logger),
		ChatHandler:      chatHandler,
		MetricsHandler:   promhttp.Handler(),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // tor sessions are slow
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	if chatHandler != nil {
		chatHandler.Close()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// buildIntentClient picks the intent-parsing backend from configuration and
// returns it with the model ID the parser should request.
func buildIntentClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (assistant.LLMClient, string, error) {
	switch cfg.IntentProvider {
	case "bedrock":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, "", err
		}
		return assistant.NewBedrockClient(bedrockruntime.NewFromConfig(awsCfg), cfg.BedrockModelID), cfg.BedrockModelID, nil
	default:
		gemini, err := assistant.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			return nil, "", err
		}
		// When Bedrock is also configured, chain it as the fallback.
		if cfg.BedrockModelID != "" {
			awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
			if err != nil {
				logger.Warn("bedrock fallback unavailable", "error", err)
				return gemini, cfg.GeminiModelID, nil
			}
			bedrock := assistant.NewBedrockClient(bedrockruntime.NewFromConfig(awsCfg), cfg.BedrockModelID)
			return assistant.NewFallbackClient(gemini, bedrock, logger), "", nil
		}
		return gemini, cfg.GeminiModelID, nil
	}
}

// Command agentcore is the agent execution core's process entrypoint:
// it loads configuration, wires every collaborator, and serves the
// streaming chat endpoint, grounded on the teacher's cmd/nexus/main.go
// wiring order and flag handling.
package main

import (
	"context"
	"database/sql"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agentcore/core/internal/agent"
	"github.com/agentcore/core/internal/config"
	"github.com/agentcore/core/internal/files"
	"github.com/agentcore/core/internal/llm"
	"github.com/agentcore/core/internal/observability"
	"github.com/agentcore/core/internal/sessions"
	"github.com/agentcore/core/internal/stream"
	"github.com/agentcore/core/internal/tools"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the core configuration file")
	flag.Parse()

	logger := observability.NewLogger(observability.DefaultLogConfig())

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	history, closeHistory, err := buildHistoryStore(cfg)
	if err != nil {
		logger.Error("build history store", "error", err)
		os.Exit(1)
	}
	defer closeHistory()

	fileStore, cleanup, err := buildFileStore(cfg)
	if err != nil {
		logger.Error("build file store", "error", err)
		os.Exit(1)
	}
	if cleanup != nil {
		cleanup.Start()
		defer cleanup.Stop()
	}

	registry := buildToolRegistry().ForSession(cfg.ExtraToolsEnabled)

	llmClient := buildLLMClient(cfg)

	executor := agent.NewExecutor(agent.ExecutorConfig{
		Concurrency: cfg.ExecutorConcurrency,
		Timeout:     time.Duration(cfg.ExecutorTimeoutSec) * time.Second,
	})

	loopConfig := cfg.Loop
	if loopConfig.MaxIterations == 0 {
		loopConfig = agent.DefaultLoopConfig()
	}

	guard := &agent.ToolResultGuard{MaxSize: agent.DefaultMaxToolResultSize}

	loop := agent.NewLoop(llmClient, history, fileStore, registry, executor, loopConfig, guard)

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	loop.SetMetrics(metrics)
	executor.SetMetrics(metrics)

	if cfg.Tracing.CollectorAddr != "" {
		shutdownTracing, err := observability.InitTracing(context.Background(), observability.TracingConfig{
			ServiceName:   cfg.Tracing.ServiceName,
			CollectorAddr: cfg.Tracing.CollectorAddr,
			Insecure:      cfg.Tracing.Insecure,
		})
		if err != nil {
			logger.Error("init tracing", "error", err)
			os.Exit(1)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownTracing(shutdownCtx)
		}()
	}

	mux := http.NewServeMux()
	mux.Handle("/v1/chat/stream", stream.NewHandler(loop))
	mux.Handle("/metrics", promhttp.Handler())

	addr := cfg.ListenAddr
	if addr == "" {
		addr = ":8080"
	}
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		logger.Info("agentcore listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server exited", "error", err)
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
}

func buildHistoryStore(cfg config.CoreConfig) (agent.HistoryStore, func(), error) {
	if cfg.Postgres.DSN == "" {
		return sessions.NewMemoryStore(), func() {}, nil
	}
	db, err := sql.Open("postgres", cfg.Postgres.DSN)
	if err != nil {
		return nil, nil, err
	}
	return sessions.NewPostgresStore(db), func() { _ = db.Close() }, nil
}

func buildFileStore(cfg config.CoreConfig) (agent.FileStore, *files.CleanupService, error) {
	meta := files.NewMemoryStore()
	cleanupInterval := time.Duration(cfg.CleanupIntervalMin) * time.Minute
	if cleanupInterval <= 0 {
		cleanupInterval = 10 * time.Minute
	}
	cleanup := files.NewCleanupService(meta, cleanupInterval)

	if cfg.S3.Bucket == "" {
		return meta, cleanup, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.S3.Region))
	if err != nil {
		return nil, nil, err
	}
	client := s3.NewFromConfig(awsCfg)
	return files.NewS3Store(client, cfg.S3.Bucket, meta), cleanup, nil
}

func buildToolRegistry() *tools.Registry {
	registry := tools.NewRegistry()
	registry.Register(tools.ReasoningTool{}, tools.TierCore)
	registry.Register(tools.CurrentTimeTool{}, tools.TierCore)
	registry.Register(tools.WebSearchTool{Backend: noopSearchBackend{}}, tools.TierExtra)
	registry.Register(tools.BrowseTool{Backend: noopBrowseBackend{}}, tools.TierExtra)
	return registry
}

func buildLLMClient(cfg config.CoreConfig) agent.LLMClient {
	if cfg.Anthropic.APIKey != "" {
		return llm.NewAnthropicClient(cfg.Anthropic.APIKey, cfg.Anthropic.DefaultModel)
	}
	return llm.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.DefaultModel)
}

// noopSearchBackend/noopBrowseBackend are placeholders wired in until a
// real SearchBackend/BrowseBackend is configured; both tools stay in
// the "extra" tier so a session must opt in before hitting them.
type noopSearchBackend struct{}

func (noopSearchBackend) Search(ctx context.Context, query string) ([]tools.SearchResult, error) {
	return nil, nil
}

type noopBrowseBackend struct{}

func (noopBrowseBackend) Browse(ctx context.Context, url string) (tools.BrowsedPage, error) {
	return tools.BrowsedPage{}, nil
}

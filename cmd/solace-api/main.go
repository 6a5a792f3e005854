package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/PabloGalante/solace/internal/adapters/http"
	"github.com/PabloGalante/solace/internal/adapters/llm"
	firestorestore "github.com/PabloGalante/solace/internal/adapters/storage/firestore"
	memstore "github.com/PabloGalante/solace/internal/adapters/storage/memory"
	redisstore "github.com/PabloGalante/solace/internal/adapters/storage/redis"
	supabasestore "github.com/PabloGalante/solace/internal/adapters/storage/supabase"
	"github.com/PabloGalante/solace/internal/app/agentflow"
	"github.com/PabloGalante/solace/internal/app/conversation"
	"github.com/PabloGalante/solace/internal/app/crisis"
	"github.com/PabloGalante/solace/internal/app/memory"
	"github.com/PabloGalante/solace/internal/app/progress"
	"github.com/PabloGalante/solace/internal/config"
	"github.com/PabloGalante/solace/internal/domain"
	"github.com/PabloGalante/solace/internal/observability"
)

func main() {
	cfg := config.Load()
	observability.Init(cfg.LogLevel, cfg.LogFormat)
	log := observability.WithFields("component", "solace-api")

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		log.Error("solace api stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := observability.Logger()
	var closers []io.Closer
	defer func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}()

	llmClient, err := buildLLM(ctx, cfg)
	if err != nil {
		return err
	}

	// Storage: Firestore or Memory
	var (
		sessionStore domain.SessionStore
		messageStore domain.MessageStore
		fsStore      *firestorestore.Store
	)
	needFirestore := cfg.StorageBackend == "firestore" || cfg.MemoryBackend == config.MemoryFirestore
	if needFirestore {
		log.Info("using firestore", "project", cfg.GCPProjectID)
		fsStore, err = firestorestore.NewStore(ctx, cfg.GCPProjectID)
		if err != nil {
			return fmt.Errorf("initializing firestore store: %w", err)
		}
		closers = append(closers, fsStore)
	}

	switch cfg.StorageBackend {
	case "firestore":
		// 1 store, implements 2 interfaces
		sessionStore = fsStore
		messageStore = fsStore
	default:
		log.Info("using in-memory session storage")
		sessionStore = memstore.NewSessionStore()
		messageStore = memstore.NewMessageStore()
	}

	remote, err := buildMemoryBackend(ctx, cfg, fsStore, &closers)
	if err != nil {
		return err
	}

	memStore := memory.NewStore(remote, memory.Options{
		CachePath:     cfg.MemoryCachePath,
		CacheLimit:    cfg.MemoryCacheLimit,
		RemoteTimeout: cfg.RemoteTimeout,
	})
	writer := memory.NewWriter(memStore, cfg.MemoryQueueSize)

	orch := agentflow.NewDefaultOrchestrator(agentflow.Options{
		Gate:       crisis.NewGate(cfg.ExtraCrisisKeywords...),
		LLM:        llmClient,
		LLMTimeout: cfg.LLMTimeout,
		Memory:     writer,
	})

	convSvc := conversation.NewService(orch, sessionStore, messageStore, memStore,
		conversation.WithSummaryTimeout(cfg.SummaryTimeout),
		conversation.WithIdleTTL(cfg.SessionIdleTTL),
	)
	progressSvc := progress.NewService(memStore)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		convSvc.RunEvictor(sweepCtx, cfg.SessionSweepInterval)
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpadapter.NewServer(convSvc, progressSvc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("solace api listening", "port", cfg.Port, "mode", cfg.Mode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "error", err)
	}
	stopSweep()
	<-sweepDone
	if err := writer.Close(shutdownCtx); err != nil {
		log.Warn("memory writer did not drain before shutdown", "error", err)
	}
	return nil
}

// buildLLM returns nil when no provider is configured; the orchestrator then
// answers with its rule-based replies.
func buildLLM(ctx context.Context, cfg *config.Config) (domain.LLMClient, error) {
	log := observability.Logger()
	var providers []llm.Named

	for _, p := range cfg.LLMProviders {
		switch p {
		case config.ProviderNone:
		case config.ProviderMock:
			providers = append(providers, llm.Named{Name: p, Client: llm.NewMockLLM()})
		case config.ProviderVertex:
			c, err := llm.NewVertexClient(ctx, llm.VertexConfig{
				Project:   cfg.GCPProjectID,
				Location:  cfg.GCPLocation,
				ModelName: cfg.ModelName,
			})
			if err != nil {
				return nil, fmt.Errorf("initializing vertex llm client: %w", err)
			}
			providers = append(providers, llm.Named{Name: p, Client: c})
		case config.ProviderGemini:
			c, err := llm.NewVertexClient(ctx, llm.VertexConfig{
				APIKey:    cfg.GeminiAPIKey,
				ModelName: cfg.ModelName,
			})
			if err != nil {
				return nil, fmt.Errorf("initializing gemini llm client: %w", err)
			}
			providers = append(providers, llm.Named{Name: p, Client: c})
		case config.ProviderOpenAI:
			c, err := llm.NewOpenAIClient(llm.OpenAIConfig{
				APIKey:  cfg.OpenAIAPIKey,
				BaseURL: cfg.OpenAIBaseURL,
				Model:   cfg.OpenAIModel,
			})
			if err != nil {
				return nil, fmt.Errorf("initializing openai llm client: %w", err)
			}
			providers = append(providers, llm.Named{Name: p, Client: c})
		}
	}

	if len(providers) == 0 {
		log.Info("no llm provider configured, using rule-based replies only")
		return nil, nil
	}
	log.Info("llm providers configured", "count", len(providers), "providers", cfg.LLMProviders)
	return llm.NewChain(providers...), nil
}

// buildMemoryBackend returns a nil interface when no remote memory is
// configured so the store runs local-only.
func buildMemoryBackend(
	ctx context.Context,
	cfg *config.Config,
	fsStore *firestorestore.Store,
	closers *[]io.Closer,
) (domain.MemoryBackend, error) {
	log := observability.Logger()

	switch cfg.MemoryBackend {
	case config.MemoryInMemory:
		log.Info("using in-process memory backend")
		return memstore.NewMemoryBackend(), nil
	case config.MemoryFirestore:
		log.Info("using firestore memory backend")
		return fsStore, nil
	case config.MemoryRedis:
		b, err := redisstore.New(redisstore.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("initializing redis memory backend: %w", err)
		}
		*closers = append(*closers, b)

		pingCtx, cancel := context.WithTimeout(ctx, cfg.RemoteTimeout)
		defer cancel()
		if err := b.Ping(pingCtx); err != nil {
			// Unreachable is a supported state; writes fall back to the cache.
			log.Warn("redis memory backend unreachable at startup", "addr", cfg.RedisAddr, "error", err)
		}
		log.Info("using redis memory backend", "addr", cfg.RedisAddr)
		return b, nil
	case config.MemorySupabase:
		b, err := supabasestore.New(supabasestore.Config{URL: cfg.SupabaseURL, APIKey: cfg.SupabaseKey})
		if err != nil {
			return nil, fmt.Errorf("initializing supabase memory backend: %w", err)
		}
		log.Info("using supabase memory backend")
		return b, nil
	default:
		log.Info("no remote memory backend, using local cache only", "path", cfg.MemoryCachePath)
		return nil, nil
	}
}

// cmd/assistant/main.go
//
// Interactive entry point for the HR assistant engine. Wires the record
// source, tiered cache, query analyzer, retrieval orchestrator, context
// budget manager, and chat client into one Engine, then serves a stdin
// REPL plus a Prometheus metrics endpoint.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hr-assistant/internal/analyzer"
	"hr-assistant/internal/assistant"
	"hr-assistant/internal/cache"
	"hr-assistant/internal/common/config"
	"hr-assistant/internal/common/database"
	apperrors "hr-assistant/internal/common/errors"
	"hr-assistant/internal/common/logger"
	"hr-assistant/internal/common/observability"
	"hr-assistant/internal/contextbudget"
	"hr-assistant/internal/llm"
	"hr-assistant/internal/models"
	"hr-assistant/internal/records"
	"hr-assistant/internal/retrieval"
	"hr-assistant/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	zapLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()
	log := logger.NewZapAdapter(zapLogger)

	log.Info("Starting HR assistant", map[string]interface{}{
		"app":         cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
		"records":     cfg.Records.Provider,
	})

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine, cleanup, err := buildEngine(ctx, cfg, obs, log)
	if err != nil {
		log.Error("Failed to build engine", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	defer cleanup()

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsServer = startMetricsServer(cfg.Metrics.Address, log)
	}

	runREPL(ctx, engine, log)

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Warn("Metrics server shutdown failed", map[string]interface{}{"error": err.Error()})
		}
	}
	log.Info("Shutdown complete", nil)
}

// buildEngine assembles the whole pipeline from configuration. The returned
// cleanup closes any database connections that were opened.
func buildEngine(ctx context.Context, cfg *config.Config, obs *observability.Observability, log logger.Logger) (*assistant.Engine, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	source, err := buildRecordSource(ctx, cfg, log, &closers)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	cacheOpts := &cache.Options{}
	if cfg.Database.Redis.Enabled {
		redisClient, err := database.NewRedis(cfg.Database.Redis)
		if err != nil {
			log.Warn("Redis unavailable, running tier-1 only", map[string]interface{}{
				"address": cfg.Database.Redis.Address,
				"error":   err.Error(),
			})
		} else if err := redisClient.Ping(ctx); err != nil {
			log.Warn("Redis ping failed, running tier-1 only", map[string]interface{}{
				"address": cfg.Database.Redis.Address,
				"error":   err.Error(),
			})
			redisClient.Close()
		} else {
			closers = append(closers, func() { redisClient.Close() })
			cacheOpts.Tier2 = cache.NewRedisTier(redisClient.Client, cfg.App.Name, log)
			log.Info("Redis tier-2 cache attached", map[string]interface{}{
				"address": cfg.Database.Redis.Address,
			})
		}
	}

	c := cache.New(log, cacheOpts)
	svc := service.New(c, source, cfg.Cache, cfg.Coalesce, log)

	a, err := analyzer.New(ctx, svc, cfg.Analyzer, log)
	if err != nil {
		if !errors.Is(err, apperrors.ErrAnalysisDegraded) {
			cleanup()
			return nil, nil, err
		}
		// Pattern-only analysis still works; name lookups recover once the
		// record source does.
		log.Warn("Analyzer running degraded, name indexes unavailable", map[string]interface{}{
			"error": err.Error(),
		})
	}

	orchestrator := retrieval.New(svc, log)
	budget := contextbudget.New(cfg.Budget, log)
	chat := buildChatClient(cfg, log)

	engine := assistant.New(svc, a, orchestrator, budget, chat, log,
		assistant.WithObservability(obs))
	return engine, cleanup, nil
}

func buildRecordSource(ctx context.Context, cfg *config.Config, log logger.Logger, closers *[]func()) (records.Source, error) {
	switch cfg.Records.Provider {
	case "memory":
		return records.Seed(time.Now()), nil
	case "file":
		return records.NewFileSource(cfg.Records.Dir, log), nil
	case "postgres":
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		if err := pg.Ping(ctx); err != nil {
			pg.Close()
			return nil, fmt.Errorf("pinging postgres: %w", err)
		}
		*closers = append(*closers, func() { pg.Close() })
		return records.NewSQLSource(pg.GetDB()), nil
	default:
		return nil, fmt.Errorf("unknown records provider %q", cfg.Records.Provider)
	}
}

// buildChatClient selects the outbound chat transport. Without an API key
// the engine runs offline against a canned client so the rest of the
// pipeline stays exercisable.
func buildChatClient(cfg *config.Config, log logger.Logger) llm.ChatClient {
	if cfg.LLM.APIKey == "" {
		log.Warn("No LLM API key configured, using offline responses", nil)
		return llm.NewFakeClient(llm.ChatResult{
			Content: "(offline mode: no LLM configured; the retrieved data above is what would be sent)",
		})
	}
	return llm.NewOpenAIClient(cfg.LLM, log)
}

func startMetricsServer(address string, log logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("Metrics server listening", map[string]interface{}{"address": address})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Metrics server failed", map[string]interface{}{"error": err.Error()})
		}
	}()
	return server
}

// runREPL drives the engine from stdin until EOF, :quit, or a signal. The
// conversation state lives here; the engine only reads snapshots of it.
func runREPL(ctx context.Context, engine *assistant.Engine, log logger.Logger) {
	state := &models.ConversationState{}
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	fmt.Println("HR assistant ready. Ask about schedules, tasks, jobs, or candidates.")
	fmt.Println("Commands: :metrics  :invalidate <kind...>  :reset  :quit")

	lines := make(chan string)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		fmt.Print("> ")
		select {
		case <-ctx.Done():
			fmt.Println()
			log.Info("Signal received, shutting down", nil)
			return
		case line, ok := <-lines:
			if !ok {
				fmt.Println()
				return
			}
			input := strings.TrimSpace(line)
			if input == "" {
				continue
			}
			if strings.HasPrefix(input, ":") {
				if quit := handleCommand(ctx, engine, state, input); quit {
					return
				}
				continue
			}
			askOnce(ctx, engine, state, input, log)
		}
	}
}

func handleCommand(ctx context.Context, engine *assistant.Engine, state *models.ConversationState, input string) (quit bool) {
	fields := strings.Fields(input)
	switch fields[0] {
	case ":quit", ":q", ":exit":
		return true
	case ":metrics":
		m := engine.GetMetrics()
		fmt.Printf("queries=%d cache_hit_rate=%.2f batched_rate=%.2f avg_latency=%s\n",
			m.QueriesProcessed, m.CacheHitRate, m.BatchedRequestRate, m.AverageLatency)
	case ":invalidate":
		if len(fields) < 2 {
			fmt.Println("usage: :invalidate <kind...> (employees, jobs, candidates, shifts, tasks, recognitions)")
			return false
		}
		engine.Invalidate(ctx, fields[1:])
		fmt.Printf("invalidated: %s\n", strings.Join(fields[1:], ", "))
	case ":reset":
		*state = models.ConversationState{}
		fmt.Println("conversation cleared")
	default:
		fmt.Printf("unknown command %s\n", fields[0])
	}
	return false
}

func askOnce(ctx context.Context, engine *assistant.Engine, state *models.ConversationState, query string, log logger.Logger) {
	resp, err := engine.Ask(ctx, state, query)
	if err != nil {
		log.Error("Query failed", map[string]interface{}{
			"error": err.Error(),
			"code":  string(apperrors.CodeOf(err)),
		})
		fmt.Printf("error: %v\n", err)
		return
	}

	fmt.Printf("[%s] %s\n", resp.AssistantType, resp.Content)
	if resp.Advisory != "" {
		fmt.Printf("note: %s\n", resp.Advisory)
	}

	now := time.Now()
	state.Messages = append(state.Messages,
		models.Message{Role: models.RoleUser, Content: query, Timestamp: now},
		models.Message{
			Role:          models.RoleAssistant,
			Content:       resp.Content,
			AssistantType: resp.AssistantType,
			Timestamp:     now,
		},
	)
	state.ActiveAssistantType = resp.AssistantType
}

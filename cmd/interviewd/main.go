package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/voxlab/interviewd/pkg/config"
	"github.com/voxlab/interviewd/pkg/genai"
	"github.com/voxlab/interviewd/pkg/httpapi"
	"github.com/voxlab/interviewd/pkg/interview"
	"github.com/voxlab/interviewd/pkg/orchestrator"
	"github.com/voxlab/interviewd/pkg/telemetry"
	"github.com/voxlab/interviewd/pkg/transport"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
	tel, err := telemetry.NewManager(ctx, telemetry.Config{
		ServiceName:  "interviewd",
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		Insecure:     cfg.Telemetry.Insecure,
	})
	if err != nil {
		log.Fatalf("init telemetry: %v", err)
	}
	telemetry.SetDefault(tel)

	provider, err := buildProvider(cfg)
	if err != nil {
		log.Fatalf("init provider: %v", err)
	}

	prompts := genai.NewPromptStore()
	var stopWatch func()
	if cfg.PromptDir != "" {
		if err := prompts.LoadDir(cfg.PromptDir); err != nil {
			log.Fatalf("load prompts: %v", err)
		}
		stopWatch, err = prompts.Watch()
		if err != nil {
			log.Fatalf("watch prompts: %v", err)
		}
	}

	gen := genai.NewClient(provider,
		genai.WithAttempts(cfg.RetryAttempts),
		genai.WithCallTimeout(cfg.GenerateTimeout.Std()),
		genai.WithPromptStore(prompts),
	)

	registry := interview.NewRegistry()
	orc := orchestrator.New(registry, gen, orchestrator.WithQuestionCount(cfg.QuestionCount))
	ws := transport.NewServer(orc, nil)
	rest := httpapi.NewServer(gen, cfg.QuestionCount)

	mux := http.NewServeMux()
	rest.RegisterRoutes(mux)
	mux.Handle("/ws", ws.Handler())

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httpapi.CORS(mux),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("interviewd listening on %s (provider=%s model=%s)", cfg.ListenAddr, cfg.Provider, cfg.Model)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server stopped unexpectedly: %v", err)
		}
	}()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
	orc.Close()
	if stopWatch != nil {
		stopWatch()
	}
	if err := tel.Shutdown(shutdownCtx); err != nil {
		log.Printf("telemetry shutdown: %v", err)
	}
	log.Println("server exited cleanly")
}

func buildProvider(cfg config.Config) (genai.Provider, error) {
	switch cfg.Provider {
	case "openai":
		return genai.NewOpenAIProvider(cfg.APIKey, cfg.Model), nil
	case "anthropic":
		return genai.NewAnthropicProvider(cfg.APIKey, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"llm-trader/internal/interfaces"
	"llm-trader/internal/llm/llmobs"
	"llm-trader/internal/llm/noop"
	"llm-trader/internal/llm/openai"
	"llm-trader/internal/logger"
	"llm-trader/internal/market"
	"llm-trader/internal/store"
	"llm-trader/internal/trace"
	"llm-trader/internal/tradelog"
)

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func main() {
	_ = godotenv.Load()
	must(logger.Init())
	if err := trace.Init(); err != nil {
		log.Printf("tracing disabled: %v", err)
	}

	cfg, err := store.LoadConfig(configPath())
	must(err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer func() { _ = trace.Shutdown(context.Background()) }()

	if v := os.Getenv("TRADER_LOG_RETENTION_DAYS"); v != "" {
		var n int
		fmt.Sscanf(v, "%d", &n)
		_ = tradelog.CompressOlder(n)
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigc
		log.Println("Shutting down...")
		cancel()
	}()

	decider := newDecider(cfg)
	source := newBarSource(cfg)

	switch cfg.Mode {
	case "BACKTEST":
		must(runBacktest(ctx, cfg, source, decider))
	case "PAPER":
		must(runPaper(ctx, cfg, source, decider))
	default:
		log.Fatalf("unknown mode %q", cfg.Mode)
	}
}

func configPath() string {
	if p := os.Getenv("TRADER_CONFIG"); p != "" {
		return p
	}
	return "config.yaml"
}

func newDecider(cfg *store.Config) interfaces.Decider {
	switch cfg.LLM.Provider {
	case "OPENAI":
		return llmobs.Wrap(openai.NewOpenAIDecider(cfg))
	default:
		log.Printf("llm provider %q not configured, every signal will be HOLD", cfg.LLM.Provider)
		return llmobs.Wrap(noop.NewNoopDecider())
	}
}

func newBarSource(cfg *store.Config) interfaces.BarSource {
	switch cfg.DataSource {
	case "BINANCE":
		return market.NewBinance(cfg.Interval)
	case "CSV":
		return market.NewCSVSource(cfg.CSVDir)
	default:
		return market.NewStatic(intervalDuration(cfg.Interval))
	}
}

func intervalDuration(interval string) time.Duration {
	d, err := time.ParseDuration(interval)
	if err != nil {
		return time.Hour
	}
	return d
}

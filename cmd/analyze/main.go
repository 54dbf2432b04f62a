package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"risk_analyzer/pkg/core/chunk"
	"risk_analyzer/pkg/core/ingest"
	"risk_analyzer/pkg/core/llm"
	"risk_analyzer/pkg/core/pipeline"
	"risk_analyzer/pkg/core/report"
	"risk_analyzer/pkg/core/score"
	"risk_analyzer/pkg/core/store"
	"risk_analyzer/pkg/core/utils"
)

func main() {
	var (
		tickers     = flag.String("tickers", "", "comma-separated ticker symbols (e.g. AAPL,MSFT)")
		currentYear = flag.Int("year", 0, "current fiscal year to compare")
		priorYear   = flag.Int("prior", 0, "prior fiscal year (defaults to year-1)")
		workers     = flag.Int("workers", 4, "concurrent companies; bound by SEC and provider rate limits")
		cacheDir    = flag.String("cache", ".cache/filings", "stage cache directory (empty to disable)")
		configPath  = flag.String("config", "config/provider.yaml", "provider config file")
		rule        = flag.String("agg", "weighted", "severity aggregation rule: weighted or max")
		reportPath  = flag.String("out", "risk_report.md", "markdown report output path")
		maxChunk    = flag.Int("chunk-size", chunk.DefaultMaxSize, "max chunk size in characters")
		overlap     = flag.Int("chunk-overlap", 800, "overlap carried across chunk splits")
	)
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, assuming environment variables are set.")
	}

	if *tickers == "" || *currentYear == 0 {
		flag.Usage()
		os.Exit(2)
	}
	if *priorYear == 0 {
		*priorYear = *currentYear - 1
	}

	cfg, err := llm.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	provider, err := llm.NewProvider(cfg)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	chunker, err := chunk.New(*maxChunk, *overlap)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	scorer := score.NewScorer(score.NewLLMAnalyzer(provider))
	switch *rule {
	case "weighted":
		scorer.Rule = score.AggregateWeighted
	case "max":
		scorer.Rule = score.AggregateMax
	default:
		log.Fatalf("Error: unknown aggregation rule %q", *rule)
	}

	orch := pipeline.NewOrchestrator(ingest.NewClient(), scorer, chunker)
	if *cacheDir != "" {
		cache, err := store.NewFileCache(*cacheDir)
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
		orch.SetCache(cache)
	}

	ctx := context.Background()
	companies := splitTickers(*tickers)
	summary := orch.RunBatch(ctx, companies, *priorYear, *currentYear, *workers)

	// Persist records when a database is configured; optional by design.
	if os.Getenv("DATABASE_URL") != "" {
		if err := persistRecords(ctx, summary); err != nil {
			log.Printf("Warning: failed to persist change records: %v", err)
		}
	}

	md := report.Render(summary)
	if !utils.ValidateMarkdown(md) {
		log.Println("Warning: rendered report failed markdown validation")
	}
	if err := os.WriteFile(*reportPath, []byte(md), 0o644); err != nil {
		log.Fatalf("Error: failed to write report: %v", err)
	}
	fmt.Printf("Report written to %s\n", *reportPath)

	// Batch semantics: individual company failures are reported, not fatal.
	os.Exit(0)
}

func splitTickers(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

func persistRecords(ctx context.Context, summary *pipeline.BatchSummary) error {
	if err := store.InitDB(ctx); err != nil {
		return err
	}
	defer store.Close()

	repo := store.NewChangeRepo()
	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}
	for _, out := range summary.Outcomes {
		if out.Record == nil {
			continue
		}
		if err := repo.Save(ctx, out.Record); err != nil {
			return err
		}
	}
	return nil
}

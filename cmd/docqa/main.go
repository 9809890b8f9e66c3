package main

import (
	"context"
	"errors"
	"flag"
	"math"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"document-qa/internal/chromemdb"
	"document-qa/internal/config"
	"document-qa/internal/embedding"
	"document-qa/internal/helper"
	"document-qa/internal/index"
	"document-qa/internal/indexer"
	"document-qa/internal/llmservice"
	"document-qa/internal/models"
	"document-qa/internal/pgvector"
	"document-qa/internal/rag"
	"document-qa/internal/retriever"
	"document-qa/internal/server"
)

const defaultConfigPath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", defaultConfigPath, "Path to the configuration file")
	buildIndex := flag.Bool("index", false, "Chunk the configured document and build the vector store")
	force := flag.Bool("force", false, "Delete and rebuild an existing collection (with -index)")
	question := flag.String("query", "", "Question to answer against the document")
	batchFile := flag.String("batch", "", "Path to a file with one question per line")
	stats := flag.Bool("stats", false, "Print vector store statistics")
	serve := flag.Bool("serve", false, "Start the HTTP API")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading configuration")
	}

	ctx := context.Background()

	store, err := openStore(&cfg.Index, &cfg.Database, &cfg.Embedding)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening vector store")
	}
	defer store.Close()

	switch {
	case *buildIndex:
		runIndex(ctx, cfg, store, *force)
	case *question != "":
		runQuery(ctx, cfg, store, *question)
	case *batchFile != "":
		runBatch(ctx, cfg, store, *batchFile)
	case *stats:
		helper.PrettyPrint(indexer.CollectStats(ctx, cfg, store))
	case *serve:
		runServe(ctx, cfg, store)
	default:
		log.Fatal().Msg("Provide one of -index, -query, -batch, -stats or -serve")
	}
}

// openStore builds the embedding function and wires it into the
// configured vector store backend.
func openStore(idx *config.IndexConfig, db *config.DatabaseConfig, embCfg *config.LLMConfig) (index.Store, error) {
	embed, err := embedding.ForConfig(embCfg)
	if err != nil {
		return nil, err
	}
	switch idx.Backend {
	case "pgvector":
		return pgvector.NewStore(db, embed)
	default:
		return chromemdb.NewStore(idx.Path, idx.Collection, idx.InMemory, idx.Compress, embed)
	}
}

func buildPipeline(ctx context.Context, cfg *config.Config, store index.Store) *rag.Pipeline {
	ret, err := retriever.New(ctx, store, &cfg.Retrieval)
	if err != nil {
		log.Fatal().Err(err).Msg("Error attaching retriever")
	}
	gen, err := llmservice.ForConfig(ctx, &cfg.LLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing LLM client")
	}
	return rag.New(ret, gen, &cfg.Document)
}

func runIndex(ctx context.Context, cfg *config.Config, store index.Store, force bool) {
	if err := indexer.Run(ctx, cfg, store, force); err != nil {
		log.Fatal().Err(err).Msg("Error building vector store")
	}
	helper.PrettyPrint(indexer.CollectStats(ctx, cfg, store))
}

func runQuery(ctx context.Context, cfg *config.Config, store index.Store, question string) {
	pipeline := buildPipeline(ctx, cfg, store)
	helper.PrettyPrint(pipeline.Query(ctx, question))
}

// batchReport summarizes one batch run over a question file.
type batchReport struct {
	RunID             string                  `json:"run_id"`
	Timestamp         string                  `json:"timestamp"`
	TotalQueries      int                     `json:"total_queries"`
	Successful        int                     `json:"successful"`
	Failed            int                     `json:"failed"`
	AverageConfidence float64                 `json:"average_confidence"`
	Results           []models.PipelineResult `json:"results"`
}

func runBatch(ctx context.Context, cfg *config.Config, store index.Store, path string) {
	questions, err := readQuestions(path)
	if err != nil {
		log.Fatal().Err(err).Msg("Error reading question file")
	}
	if len(questions) == 0 {
		log.Fatal().Str("path", path).Msg("Question file holds no questions")
	}

	pipeline := buildPipeline(ctx, cfg, store)

	runID, err := helper.GenerateUUID()
	if err != nil {
		log.Fatal().Err(err).Msg("Error generating run ID")
	}

	report := batchReport{
		RunID:        runID,
		Timestamp:    time.Now().Format(time.RFC3339),
		TotalQueries: len(questions),
		Results:      make([]models.PipelineResult, 0, len(questions)),
	}
	var confidenceSum float64
	for i, q := range questions {
		log.Info().Int("query", i+1).Int("of", len(questions)).Str("question", q).Msg("Running query")
		result := pipeline.Query(ctx, q)
		if result.Error == "" {
			report.Successful++
		} else {
			report.Failed++
		}
		confidenceSum += result.Confidence
		report.Results = append(report.Results, result)
	}
	report.AverageConfidence = math.Round(confidenceSum/float64(len(report.Results))*10000) / 10000

	log.Info().
		Int("total", report.TotalQueries).
		Int("successful", report.Successful).
		Int("failed", report.Failed).
		Float64("average_confidence", report.AverageConfidence).
		Msg("Batch complete")
	helper.PrettyPrint(report)
}

// readQuestions loads one question per line, skipping blanks and
// comment lines.
func readQuestions(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var questions []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		questions = append(questions, line)
	}
	return questions, nil
}

func runServe(ctx context.Context, cfg *config.Config, store index.Store) {
	pipeline := buildPipeline(ctx, cfg, store)
	statsFn := func(ctx context.Context) indexer.Stats {
		return indexer.CollectStats(ctx, cfg, store)
	}
	srv := server.New(pipeline, statsFn, &cfg.Server)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Server shutdown failed")
	}
}

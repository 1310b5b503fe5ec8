package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/example/lattice/internal/aggregator"
	"github.com/example/lattice/internal/ai"
	"github.com/example/lattice/internal/database"
	"github.com/example/lattice/internal/feed"
	"github.com/example/lattice/internal/importer"
	"github.com/example/lattice/internal/orchestrator"
	"github.com/example/lattice/internal/queue"
	"github.com/example/lattice/internal/ranking"
	"github.com/example/lattice/internal/server"
	"github.com/example/lattice/internal/taxonomy"
)

func main() {
	importPath := flag.String("import", "", "bulk-import content from an xlsx/csv file and exit")
	flag.Parse()

	// .env is optional; real deployments use the environment directly
	_ = godotenv.Load()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	if err := database.Connect(); err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close()

	catalog := taxonomy.DefaultCatalog()
	if path := os.Getenv("TAXONOMY_PATH"); path != "" {
		loaded, err := taxonomy.LoadCatalog(path)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to load taxonomy catalog")
		}
		catalog = loaded
	}
	guard := taxonomy.NewGuard(catalog, logger)

	if *importPath != "" {
		result, err := importer.ImportContent(importer.DefaultConfig(*importPath), guard, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("import failed")
		}
		for _, msg := range result.Errors {
			logger.Warn().Msg(msg)
		}
		return
	}

	// Generation capability; without a key the scheduled loop keeps
	// running and every unit falls through as a per-unit failure.
	var generator orchestrator.TextGenerator
	modelName := ai.DefaultModel
	gemini, err := ai.NewGemini()
	if err != nil {
		logger.Warn().Err(err).Msg("generation backend not configured, AI generation will fail")
		generator = ai.Unconfigured{}
	} else {
		generator = gemini
		modelName = gemini.Model()
	}

	templatePath := os.Getenv("PROMPT_TEMPLATE_PATH")
	if templatePath == "" {
		templatePath = "prompts/content.prompt.md"
	}
	template, err := ai.LoadPromptTemplate(templatePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load prompt template")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := queue.NewBus(logger)
	ingestion := queue.NewIngestionService(bus.Publisher(), logger)

	worker := aggregator.NewWorker(logger)
	router, err := aggregator.NewRouter(worker, bus.Subscriber(), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create aggregation router")
	}
	go func() {
		if err := router.Run(ctx); err != nil {
			logger.Error().Err(err).Msg("aggregation router stopped")
		}
	}()

	orch := orchestrator.New(guard, generator, template, modelName, os.Getenv("REFERENCE_USER_ID"), logger)
	schedule, err := orchestrator.NewSchedule(orch, generationInterval(), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create generation schedule")
	}
	schedule.Start()

	feedService := feed.NewService(ranking.NewEngine())
	srv := &http.Server{
		Addr:    httpAddr(),
		Handler: server.New(feedService, ingestion, orch, logger).Handler(),
	}
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info().Str("signal", sig.String()).Msg("shutting down")

	cancel()
	schedule.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("error during HTTP shutdown")
	}
	if err := bus.Close(); err != nil {
		logger.Error().Err(err).Msg("error closing interaction bus")
	}
	logger.Info().Msg("stopped")
}

func httpAddr() string {
	if addr := os.Getenv("HTTP_ADDR"); addr != "" {
		return addr
	}
	return ":3000"
}

func generationInterval() time.Duration {
	if raw := os.Getenv("GENERATION_INTERVAL_MINUTES"); raw != "" {
		if minutes, err := strconv.Atoi(raw); err == nil && minutes > 0 {
			return time.Duration(minutes) * time.Minute
		}
	}
	return orchestrator.DefaultInterval
}

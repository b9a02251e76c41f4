// neoguard serves a unified text and image generation API over OpenAI and Gemini.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/matiasleandrokruk/neoguard/internal/api"
	"github.com/matiasleandrokruk/neoguard/internal/domain/generation"
	"github.com/matiasleandrokruk/neoguard/internal/infra/config"
	"github.com/matiasleandrokruk/neoguard/internal/infra/history"
	"github.com/matiasleandrokruk/neoguard/internal/infra/llm"
	"github.com/matiasleandrokruk/neoguard/internal/infra/logging"
	"github.com/matiasleandrokruk/neoguard/internal/server"
	"github.com/matiasleandrokruk/neoguard/internal/version"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("neoguard", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	showVersion := fs.Bool("version", false, "Show version information")
	showHelp := fs.Bool("help", false, "Show help")
	envFile := fs.String("env-file", ".env", "Load environment variables from this file if it exists")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		fmt.Fprintln(out, version.String()) //nolint:errcheck
		return 0
	}

	if *showHelp {
		printHelp(out)
		return 0
	}

	if err := config.LoadDotEnv(*envFile); err != nil {
		fmt.Fprintf(errOut, "load %s: %v\n", *envFile, err) //nolint:errcheck
		return 1
	}
	cfg := config.Load()

	switch cmd := fs.Arg(0); cmd {
	case "", "serve":
		return serve(ctx, cfg, errOut)
	case "models":
		return listModels(cfg, out, errOut)
	default:
		fmt.Fprintf(errOut, "unknown command %q\n", cmd) //nolint:errcheck
		printHelp(errOut)
		return 2
	}
}

func serve(ctx context.Context, cfg config.Config, errOut io.Writer) int {
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, errOut)
	slog.SetDefault(logger)

	registry, err := generation.LoadRegistry(cfg.ModelsFile)
	if err != nil {
		logger.Error("load model registry", slog.Any("error", err))
		return 1
	}

	store := history.NewMemoryStore()
	deps := llm.Deps{Registry: registry, History: store, Logger: logger}

	openaiProvider := llm.NewOpenAIProvider(llm.OpenAIConfig{APIKey: cfg.OpenAIAPIKey, BaseURL: cfg.OpenAIBaseURL}, deps)
	geminiProvider, err := llm.NewGeminiProvider(ctx, llm.GeminiConfig{APIKey: cfg.GeminiAPIKey, BaseURL: cfg.GeminiBaseURL}, deps)
	if err != nil {
		logger.Error("init gemini client", slog.Any("error", err))
		return 1
	}
	warnMissingKeys(logger, cfg)

	service := generation.NewService(registry, generation.NewDispatcher(openaiProvider, geminiProvider), store)
	router := api.NewRouter(api.RouterConfig{
		Service:        service,
		Logger:         logger,
		APIPrefix:      cfg.APIPrefix,
		RequestTimeout: cfg.RequestTimeout,
		StaticDir:      cfg.StaticDir,
	})

	srv := server.NewServer(router, server.Config{
		Host:         cfg.Host,
		Port:         cfg.Port,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}, logger)

	logger.Info("service configured",
		slog.String("project", cfg.ProjectName),
		slog.String("version", version.Version),
		slog.String("api_prefix", cfg.APIPrefix),
	)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(ctx) }()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server stopped", slog.Any("error", err))
			return 1
		}
		return 0
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", slog.Any("error", err))
		return 1
	}
	logger.Info("conversation context discarded", slog.Int("conversations", store.Len()))
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server stopped", slog.Any("error", err))
		return 1
	}
	return 0
}

func warnMissingKeys(logger *slog.Logger, cfg config.Config) {
	if cfg.OpenAIAPIKey == "" {
		logger.Warn("OPENAI_API_KEY is not set; OpenAI requests will fail")
	}
	if cfg.GeminiAPIKey == "" {
		logger.Warn("GEMINI_API_KEY is not set; Gemini requests will fail")
	}
}

func listModels(cfg config.Config, out, errOut io.Writer) int {
	registry, err := generation.LoadRegistry(cfg.ModelsFile)
	if err != nil {
		fmt.Fprintf(errOut, "load model registry: %v\n", err) //nolint:errcheck
		return 1
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PROVIDER\tMODEL\tTYPE\tEDIT") //nolint:errcheck
	for _, p := range generation.Providers() {
		for _, m := range registry.ListModels(p) {
			edit := ""
			if registry.IsEditModel(m.ID) {
				edit = "yes"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p, m.ID, m.Type, edit) //nolint:errcheck
		}
	}
	if err := tw.Flush(); err != nil {
		return 1
	}
	return 0
}

func printHelp(out io.Writer) {
	helpText := `neoguard - unified text and image generation API

Usage:
  neoguard [options] [command]

Options:
  --version           Show version information
  --help              Show this help message
  --env-file <path>   Load environment from file (default .env)

Commands:
  serve        Start the HTTP server (default)
  models       Print the model registry

Examples:
  neoguard --version
  PORT=9000 neoguard serve
  MODELS_FILE=./models.yaml neoguard models`
	fmt.Fprintln(out, helpText) //nolint:errcheck
}

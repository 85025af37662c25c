// Package main is the Kiku CLI entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hyperjump/kiku/internal/chat"
	"github.com/hyperjump/kiku/internal/chunker"
	"github.com/hyperjump/kiku/internal/config"
	"github.com/hyperjump/kiku/internal/embedding"
	"github.com/hyperjump/kiku/internal/extract"
	"github.com/hyperjump/kiku/internal/history"
	"github.com/hyperjump/kiku/internal/index"
	"github.com/hyperjump/kiku/internal/models"
	"github.com/hyperjump/kiku/internal/pipeline"
	"github.com/hyperjump/kiku/internal/server"
	"github.com/hyperjump/kiku/internal/vector"
	"github.com/hyperjump/kiku/internal/watcher"
	"github.com/hyperjump/kiku/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/kiku/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "serve":
		runServe()
	case "ask":
		runAsk()
	case "history":
		runHistory()
	case "version", "--version", "-v":
		fmt.Printf("kiku version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// Components holds initialized services.
type Components struct {
	Embedder    embedding.Embedder
	Cache       *index.Cache
	Retriever   *vector.Retriever
	Synthesizer chat.Synthesizer
	History     history.Store
	Pipeline    *pipeline.Pipeline
	APIKey      string
}

func (c *Components) Close() {
	if c.History != nil {
		_ = c.History.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	apiKey := os.Getenv(cfg.Chat.APIKeyEnv)

	var embedder embedding.Embedder
	if apiKey != "" {
		gem, err := embedding.NewGeminiEmbedder(ctx, apiKey, cfg.Embedding.Model, cfg.Embedding.Dimensions)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize embedder: %w", err)
		}
		embedder = gem
	} else {
		logger.Warn("no API key in environment, using mock embedder",
			zap.String("env", cfg.Chat.APIKeyEnv))
		embedder = embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
	}
	embedder = embedding.NewCachedEmbedder(embedder, cfg.Embedding.CacheSize)

	var synthesizer chat.Synthesizer
	if apiKey != "" {
		gem, err := chat.NewGeminiSynthesizer(ctx, apiKey, cfg.Chat.Model, cfg.Chat.Temperature)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize synthesizer: %w", err)
		}
		synthesizer = gem
	} else {
		synthesizer = chat.NewMockSynthesizer()
	}

	ch, err := chunker.New(cfg.Chat.ChunkSize, cfg.Chat.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("invalid chunking settings: %w", err)
	}
	cache := index.NewCache(extract.NewExtractor(), ch, embedder, cfg.Storage.IndexPath,
		index.WithLogger(logger))
	retriever := vector.NewRetriever(embedder, cfg.Chat.TopK)

	var store history.Store
	switch cfg.Storage.HistoryBackend {
	case "sqlite":
		store, err = history.NewSQLiteStore(cfg.Storage.HistoryDatabasePath)
	default:
		store, err = history.NewDiskStore(cfg.Storage.HistoryDir)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize history store: %w", err)
	}

	p := pipeline.New(chat.NewInterceptor(), cache, retriever, synthesizer, store, logger)
	return &Components{
		Embedder:    embedder,
		Cache:       cache,
		Retriever:   retriever,
		Synthesizer: synthesizer,
		History:     store,
		Pipeline:    p,
		APIKey:      apiKey,
	}, nil
}

func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	ctx := context.Background()
	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	srv := server.NewServer(components.Pipeline, components.History, cfg, components.APIKey, logger)

	var watch *watcher.Watcher
	if cfg.Watch.Directory != "" {
		reload := func() {
			set, err := watcher.LoadDirectory(cfg.Watch.Directory, cfg.Watch.Extensions)
			if err != nil {
				logger.Warn("document reload failed", zap.Error(err))
				return
			}
			if _, err := components.Cache.EnsureIndex(ctx, set); err != nil {
				logger.Warn("index rebuild failed", zap.Error(err))
				return
			}
			srv.SetDocuments(set)
			logger.Info("documents reloaded", zap.Int("count", len(set)))
		}
		watchOpts := []watcher.Option{}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		watch = watcher.NewWatcher(cfg.Watch.Directory, cfg.Watch.Extensions, reload, watchOpts...)
		if err := watch.Start(); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer watch.Stop()
		reload()
	}

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(shutdownCtx)
}

func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	docsDir := fs.String("docs", "", "directory with documents to answer against")
	user := fs.String("user", "cli", "user ID for the conversation log")
	persona := fs.String("persona", "", "answer persona: default, lawyer, teacher, researcher, student")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: kiku ask [flags] <question>")
		os.Exit(1)
	}
	question := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if question == "" {
		fmt.Println("Usage: kiku ask [flags] <question>")
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()
	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	var docs models.DocumentSet
	dir := *docsDir
	if dir == "" {
		dir = cfg.Watch.Directory
	}
	if dir != "" {
		docs, err = watcher.LoadDirectory(dir, cfg.Watch.Extensions)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load documents: %v\n", err)
			os.Exit(1)
		}
	}

	personaName := *persona
	if personaName == "" {
		personaName = cfg.Chat.Persona
	}

	resp, err := components.Pipeline.Ask(ctx, pipeline.Request{
		UserID:    *user,
		Question:  question,
		Documents: docs,
		APIKey:    components.APIKey,
		Persona:   chat.ParsePersona(personaName),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(resp.Turn.Answer)
	if resp.Turn.Documents != "" {
		fmt.Printf("\n(answered by %s from: %s)\n", resp.Turn.Responder, resp.Turn.Documents)
	}
}

func runHistory() {
	if len(os.Args) < 3 {
		printHistoryUsage()
		os.Exit(1)
	}
	sub := os.Args[2]
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	date := fs.String("date", "", "restrict to one date (YYYY-MM-DD)")
	_ = fs.Parse(os.Args[3:])

	if fs.NArg() < 1 {
		printHistoryUsage()
		os.Exit(1)
	}
	user := fs.Arg(0)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	var store history.Store
	switch cfg.Storage.HistoryBackend {
	case "sqlite":
		store, err = history.NewSQLiteStore(cfg.Storage.HistoryDatabasePath)
	default:
		store, err = history.NewDiskStore(cfg.Storage.HistoryDir)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open history store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	switch sub {
	case "list":
		log, err := store.List(ctx, user)
		if err != nil {
			fmt.Fprintf(os.Stderr, "List failed: %v\n", err)
			os.Exit(1)
		}
		if *date != "" {
			fmt.Print(history.FormatTurns(log[*date]))
			return
		}
		fmt.Print(history.FormatLog(log))
	case "export":
		log, err := store.List(ctx, user)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
			os.Exit(1)
		}
		var body string
		if *date != "" {
			body = history.FormatTurns(log[*date])
		} else {
			body = history.FormatLog(log)
		}
		out := user + "_history.txt"
		if err := os.WriteFile(out, []byte(body), 0600); err != nil {
			fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Exported to %s\n", out)
	case "clear":
		if err := store.Delete(ctx, user, *date); err != nil {
			fmt.Fprintf(os.Stderr, "Clear failed: %v\n", err)
			os.Exit(1)
		}
		if *date != "" {
			fmt.Printf("Cleared %s for %s\n", *date, user)
		} else {
			fmt.Printf("Cleared history for %s\n", user)
		}
	default:
		fmt.Printf("Unknown history subcommand: %s\n", sub)
		printHistoryUsage()
		os.Exit(1)
	}
}

func printHistoryUsage() {
	fmt.Println("Usage: kiku history <list|export|clear> [flags] <user>")
	fmt.Println("  kiku history list alice            Print the full log")
	fmt.Println("  kiku history list --date 2025-07-01 alice")
	fmt.Println("  kiku history export alice          Write <user>_history.txt")
	fmt.Println("  kiku history clear --date 2025-07-01 alice")
}

func printUsage() {
	fmt.Println(`kiku - chat with your documents

Usage:
  kiku serve [flags]                Start the HTTP server
  kiku ask [flags] <question>       Ask a one-shot question
  kiku history <list|export|clear>  Inspect or prune conversation logs
  kiku version                      Show version
  kiku help                         Show this help

Serve Flags:
  --config string    Config file path (default: /usr/local/etc/kiku/config.yaml)
  --debug            Enable debug logging

Ask Flags:
  --config string    Config file path
  --docs string      Directory with documents (default: watch directory from config)
  --user string      User ID for the conversation log (default: cli)
  --persona string   Answer persona: default, lawyer, teacher, researcher, student

History Flags:
  --config string    Config file path
  --date string      Restrict to one date (YYYY-MM-DD)

Examples:
  kiku serve
  kiku ask --docs ./reports "what was Q3 revenue"
  kiku ask --persona lawyer "summarize the liability clauses"
  kiku history list alice
  kiku history clear --date 2025-07-01 alice`)
}

// Package main is the kotae CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/chunker"
	"github.com/hyperjump/kotae/internal/cli"
	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/llm"
	"github.com/hyperjump/kotae/internal/loader"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/pipeline"
	"github.com/hyperjump/kotae/internal/rag"
	"github.com/hyperjump/kotae/internal/server"
	"github.com/hyperjump/kotae/internal/storage"
	"github.com/hyperjump/kotae/internal/vectorstore"
	"github.com/hyperjump/kotae/internal/watcher"
	"github.com/hyperjump/kotae/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/kotae/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used, so that "kotae server" from the project dir picks up the
// project's config. Returns the config and the path that was actually loaded.
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
	// API keys are commonly kept in a .env file during development.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	switch os.Args[1] {
	case "server":
		runServer()
	case "ingest":
		runIngest()
	case "query":
		runQuery()
	case "delete":
		runDelete()
	case "sources":
		runSources()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("kotae version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
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

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if len(cfg.Watch.Directories) > 0 {
		bridge := watcher.NewBridge(components.Sources, components.Ingestion, components.Deletion,
			watcher.WithBridgeLogger(logger))
		watchSvc := watcher.New(
			cfg.Watch.Directories,
			cfg.Watch.Extensions,
			cfg.Watch.RecursiveOrDefault(),
			bridge.HandleChange,
			bridge.HandleRemove,
			watcher.WithLogger(logger),
		)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer watchSvc.Stop()
		go watchSvc.ScanExisting()
	}

	ingest := func(ctx context.Context, src *models.Source) {
		components.Ingestion.Run(ctx, src)
	}
	srv := server.NewServer(
		components.Sources,
		components.Artifacts,
		components.Vectors,
		components.Synthesizer,
		components.Deletion,
		ingest,
		cfg,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: kotae ingest [flags] <file-or-directory>")
		os.Exit(1)
	}
	path, err := filepath.Abs(fs.Arg(0))
	if err != nil {
		fmt.Printf("Invalid path: %v\n", err)
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

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	bridge := watcher.NewBridge(components.Sources, components.Ingestion, components.Deletion,
		watcher.WithBridgeLogger(logger))

	info, err := os.Stat(path)
	if err != nil {
		fmt.Printf("Failed to stat path: %v\n", err)
		os.Exit(1)
	}

	var paths []string
	if info.IsDir() {
		_ = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			if matchesAny(p, cfg.Watch.Extensions) {
				paths = append(paths, p)
			}
			return nil
		})
		if len(paths) == 0 {
			fmt.Printf("No matching files under %s\n", path)
			return
		}
	} else {
		paths = []string{path}
	}

	ctx := context.Background()
	failed := 0
	for _, p := range paths {
		bridge.HandleChange(p)
		src, err := components.Sources.FindSourceByOrigin(ctx, p)
		if err != nil {
			fmt.Printf("%-10s  %s\n", "error", p)
			failed++
			continue
		}
		fmt.Printf("%-10s  %s  %s\n", src.Status, src.ID, p)
		if src.Status == models.StatusFailed {
			failed++
			if src.Error != "" {
				fmt.Printf("            %s\n", src.Error)
			}
		}
	}
	fmt.Printf("\nIngested %d of %d file(s)\n", len(paths)-failed, len(paths))
	if failed > 0 {
		os.Exit(1)
	}
}

// reorderArgs moves any flags (and their values) that appear after the
// question to the front of the slice so that flag.Parse() sees them. Go's
// flag package stops at the first non-flag argument, so
// "kotae query \"question\" -top-k 3" would otherwise leave -top-k unparsed.
func reorderArgs(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// buildQuestion joins all positional args with spaces so multi-word
// questions work the same with or without shell quoting.
func buildQuestion(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func runQuery() {
	queryArgs := reorderArgs(os.Args[2:])

	fs := flag.NewFlagSet("query", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for direct mode)")
	serverURL := fs.String("server", "http://localhost:8080", `server URL (use --server "" for direct mode)`)
	topK := fs.Int("top-k", 0, "number of chunks to retrieve (0 = server default)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(queryArgs)

	question := buildQuestion(fs.Args())
	if question == "" {
		fmt.Println("Usage: kotae query [flags] <question>")
		os.Exit(1)
	}
	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	req := &models.QueryRequest{Question: question, TopK: *topK}

	if *serverURL != "" {
		var result models.QueryResult
		if err := postJSON(*serverURL+"/api/v1/query", req, &result); err != nil {
			fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteAnswer(os.Stdout, &result, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	if req.TopK <= 0 {
		req.TopK = cfg.Pipeline.TopK
	}
	if err := req.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	result, err := components.Synthesizer.Answer(context.Background(), req.Question, req.TopK)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteAnswer(os.Stdout, result, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for direct mode)")
	serverURL := fs.String("server", "http://localhost:8080", `server URL (use --server "" for direct mode)`)
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: kotae delete [flags] <source-id>")
		os.Exit(1)
	}
	sourceID := fs.Arg(0)
	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	if *serverURL != "" {
		var result pipeline.DeletionResult
		if err := deleteJSON(*serverURL+"/api/v1/sources/"+sourceID, &result); err != nil {
			fmt.Fprintf(os.Stderr, "Delete failed: %v\n", err)
			os.Exit(1)
		}
		_ = cli.WriteDeletion(os.Stdout, &result, format)
		return
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	result, err := components.Deletion.Run(context.Background(), sourceID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Delete failed: %v\n", err)
		os.Exit(1)
	}
	_ = cli.WriteDeletion(os.Stdout, result, format)
}

func runSources() {
	fs := flag.NewFlagSet("sources", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for direct mode)")
	serverURL := fs.String("server", "http://localhost:8080", `server URL (use --server "" for direct mode)`)
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	if *serverURL != "" {
		var out struct {
			Sources []*models.Source `json:"sources"`
		}
		if err := getJSON(*serverURL+"/api/v1/sources", &out); err != nil {
			fmt.Fprintf(os.Stderr, "List failed: %v\n", err)
			os.Exit(1)
		}
		_ = cli.WriteSources(os.Stdout, out.Sources, format)
		return
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	sources, err := components.Sources.ListSources(context.Background(), 0, 500)
	if err != nil {
		fmt.Fprintf(os.Stderr, "List failed: %v\n", err)
		os.Exit(1)
	}
	_ = cli.WriteSources(os.Stdout, sources, format)
}

// statusConfig holds configuration info returned by status.
type statusConfig struct {
	EmbeddingModel string `json:"embedding_model,omitempty"`
	ChunkSize      int    `json:"chunk_size,omitempty"`
	ChunkOverlap   int    `json:"chunk_overlap,omitempty"`
	TopK           int    `json:"top_k,omitempty"`
	Collection     string `json:"collection,omitempty"`
	DatabasePath   string `json:"database_path,omitempty"`
}

// statusResponse is the shape of the GET /api/v1/status response.
type statusResponse struct {
	Sources        int64         `json:"sources"`
	Chunks         int           `json:"chunks"`
	DiskUsageBytes *int64        `json:"disk_usage_bytes,omitempty"`
	Config         *statusConfig `json:"config,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for direct mode)")
	serverURL := fs.String("server", "http://localhost:8080", `server URL (use --server "" for direct mode)`)
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	var status statusResponse
	if *serverURL != "" {
		if err := getJSON(*serverURL+"/api/v1/status", &status); err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		logger, err := utils.NewLogger(cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		components, err := initializeComponents(cfg, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer components.Close()
		ctx := context.Background()
		sourceCount, err := components.Sources.CountSources(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count sources failed: %v\n", err)
			os.Exit(1)
		}
		chunkCount, err := components.Vectors.Count(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count chunks failed: %v\n", err)
			os.Exit(1)
		}
		status = statusResponse{
			Sources: sourceCount,
			Chunks:  chunkCount,
			Config: &statusConfig{
				EmbeddingModel: cfg.Embedding.Model,
				ChunkSize:      cfg.Pipeline.ChunkSize,
				ChunkOverlap:   cfg.Pipeline.ChunkOverlap,
				TopK:           cfg.Pipeline.TopK,
				Collection:     cfg.VectorStore.Collection,
				DatabasePath:   cfg.Storage.DatabasePath,
			},
		}
		if diskBytes, err := components.Artifacts.DiskUsageBytes(); err == nil {
			status.DiskUsageBytes = &diskBytes
		}
	}

	if format == cli.OutputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}
	fmt.Printf("sources:           %d   # count of ingested sources\n", status.Sources)
	fmt.Printf("chunks:            %d   # count of embedded chunks\n", status.Chunks)
	if status.DiskUsageBytes != nil {
		fmt.Printf("disk_usage_bytes:  %d   # uploads + transcripts + chunk caches\n", *status.DiskUsageBytes)
	}
	if status.Config != nil {
		fmt.Println()
		fmt.Println("# configuration")
		fmt.Printf("embedding_model:   %s\n", status.Config.EmbeddingModel)
		fmt.Printf("chunk_size:        %d\n", status.Config.ChunkSize)
		fmt.Printf("chunk_overlap:     %d\n", status.Config.ChunkOverlap)
		fmt.Printf("top_k:             %d\n", status.Config.TopK)
		if status.Config.Collection != "" {
			fmt.Printf("collection:        %s\n", status.Config.Collection)
		}
		if status.Config.DatabasePath != "" {
			fmt.Printf("database_path:     %s\n", status.Config.DatabasePath)
		}
	}
}

// Components holds initialized services.
type Components struct {
	Sources     *storage.SQLiteStore
	Artifacts   *storage.Artifacts
	Client      *embedding.Client
	Vectors     *vectorstore.Adapter
	Ingestion   *pipeline.Ingestion
	Deletion    *pipeline.Deletion
	Synthesizer *rag.Synthesizer
}

func (c *Components) Close() {
	if c.Sources != nil {
		_ = c.Sources.Close()
	}
	if c.Vectors != nil {
		_ = c.Vectors.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	sources, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	artifacts, err := storage.NewArtifacts(cfg.Storage.DataDir, logger)
	if err != nil {
		_ = sources.Close()
		return nil, fmt.Errorf("failed to initialize data directory: %w", err)
	}

	ch, err := chunker.New(cfg.Pipeline.ChunkSize, cfg.Pipeline.ChunkOverlap)
	if err != nil {
		_ = sources.Close()
		return nil, err
	}

	var embedProvider embedding.Provider
	if apiKey := os.Getenv(cfg.Embedding.APIKeyEnv); apiKey != "" {
		embedProvider, err = embedding.NewOpenAIProvider(embedding.OpenAIConfig{
			BaseURL: cfg.Embedding.BaseURL,
			APIKey:  apiKey,
			Model:   cfg.Embedding.Model,
			Timeout: cfg.Embedding.Timeout(),
		})
		if err != nil {
			_ = sources.Close()
			return nil, fmt.Errorf("failed to initialize embedding provider: %w", err)
		}
	} else {
		logger.Warn("embedding API key not set, using mock embeddings",
			zap.String("env", cfg.Embedding.APIKeyEnv))
		embedProvider = embedding.NewMockProvider(embedding.ModelDimensions(cfg.Embedding.Model, 1536))
	}
	client := embedding.NewClient(embedProvider,
		embedding.WithBatchTimeout(cfg.Embedding.Timeout()),
		embedding.WithLogger(logger),
	)

	var store vectorstore.Store
	switch cfg.VectorStore.Backend {
	case "memory":
		store = vectorstore.NewMemoryStore()
	default:
		store = vectorstore.NewChromaStore(vectorstore.ChromaConfig{
			URL:        cfg.VectorStore.URL,
			Collection: cfg.VectorStore.Collection,
		})
	}
	vectors := vectorstore.NewAdapter(store, client.Dimensions(), vectorstore.WithLogger(logger))

	ld := loader.New(loader.WithTranscriptsDir(artifacts.TranscriptsDir()))

	ingestion := pipeline.NewIngestion(ld, ch, client, vectors, sources, artifacts, logger)
	deletion := pipeline.NewDeletion(vectors, sources, artifacts, logger)

	retriever := rag.NewRetriever(client, vectors,
		rag.WithQueryCache(embedding.NewCache(cfg.Embedding.CacheSize)),
		rag.WithRetrieverLogger(logger),
	)

	var generator llm.Provider
	if apiKey := os.Getenv(cfg.LLM.APIKeyEnv); apiKey != "" {
		generator, err = llm.NewOpenAIProvider(llm.OpenAIConfig{
			BaseURL:   cfg.LLM.BaseURL,
			APIKey:    apiKey,
			Model:     cfg.LLM.Model,
			MaxTokens: cfg.LLM.MaxTokens,
			Timeout:   cfg.LLM.Timeout(),
		})
		if err != nil {
			_ = sources.Close()
			return nil, fmt.Errorf("failed to initialize chat provider: %w", err)
		}
	} else {
		logger.Warn("chat API key not set, answers will not be synthesized",
			zap.String("env", cfg.LLM.APIKeyEnv))
		generator = &llm.MockProvider{
			Response: "Step 1: No language model is configured, so the retrieved sources cannot be summarized.\n" +
				"Final answer: No language model is configured. Set " + cfg.LLM.APIKeyEnv + " to enable answer synthesis.",
		}
	}
	synthesizer := rag.NewSynthesizer(retriever, generator, rag.WithSynthesizerLogger(logger))

	return &Components{
		Sources:     sources,
		Artifacts:   artifacts,
		Client:      client,
		Vectors:     vectors,
		Ingestion:   ingestion,
		Deletion:    deletion,
		Synthesizer: synthesizer,
	}, nil
}

func matchesAny(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range extensions {
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

func postJSON(url string, body interface{}, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func getJSON(url string, out interface{}) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func deleteJSON(url string, out interface{}) error {
	req, err := http.NewRequest(http.MethodDelete, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func printUsage() {
	fmt.Println(`kotae - Retrieval-augmented question answering over your documents

Usage:
  kotae server [flags]             Start the HTTP server
  kotae ingest [flags] <path>      Ingest a file or directory
  kotae query [flags] <question>   Ask a question against ingested sources
  kotae sources [flags]            List ingested sources
  kotae delete [flags] <id>        Delete a source and its chunks
  kotae status [flags]             Show source/chunk/storage status
  kotae version                    Show version
  kotae help                       Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/kotae/config.yaml)
  --debug            Enable debug logging

Query Flags:
  --config string    Config file path (for direct mode)
  --server string    Server URL (default: http://localhost:8080). Use --server "" for direct mode.
  --top-k int        Number of chunks to retrieve (0 = default)
  --output string    Output format: text or json (default: text)

Ingest Flags:
  --config string    Config file path

Sources / Delete / Status Flags:
  --config string    Config file path (for direct mode)
  --server string    Server URL (default: http://localhost:8080). Use --server "" for direct mode.
  --output string    Output format: text or json (default: text)

Examples:
  kotae server
  kotae ingest report.pdf
  kotae ingest ./docs
  kotae query "What does the report conclude?"
  kotae query --top-k 10 --output json "key findings"
  kotae sources
  kotae delete 6e1c...
  kotae status --output json`)
}

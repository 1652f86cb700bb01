// Package main is the grantseek CLI entry point.
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
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

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/hyperjump/grantseek/internal/chat"
	"github.com/hyperjump/grantseek/internal/cli"
	"github.com/hyperjump/grantseek/internal/config"
	"github.com/hyperjump/grantseek/internal/embedding"
	"github.com/hyperjump/grantseek/internal/indexer"
	"github.com/hyperjump/grantseek/internal/manifest"
	"github.com/hyperjump/grantseek/internal/models"
	"github.com/hyperjump/grantseek/internal/search"
	"github.com/hyperjump/grantseek/internal/server"
	"github.com/hyperjump/grantseek/internal/source"
	"github.com/hyperjump/grantseek/internal/storage"
	"github.com/hyperjump/grantseek/internal/watcher"
	"github.com/hyperjump/grantseek/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/grantseek/config.yaml"

// loadConfig loads config from path. When path is the default, GRANTSEEK_CONFIG wins,
// then config.yaml in the current directory. If neither exists and the default file is
// missing too, built-in defaults rooted at the current directory are returned with an
// empty resolved path.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if env := os.Getenv(config.EnvConfigPath); env != "" {
			cfg, err := config.Load(env)
			if err != nil {
				return nil, "", err
			}
			return cfg, env, nil
		}
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
			if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
				return config.Default(cwd), "", nil
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
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "index":
		runIndex()
	case "search":
		runSearch()
	case "chat":
		runChat()
	case "demo":
		runDemo()
	case "server":
		runServer()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("grantseek version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// setup loads the config and builds the logger shared by every command.
func setup(configPath string, debug bool) (*config.Config, *zap.Logger) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("config loaded",
		zap.String("config_path", resolved),
		zap.Bool("debug", debugMode))
	return cfg, logger
}

// openEngine builds the configured embedder and loads the persisted index pair with it.
func openEngine(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*search.Engine, error) {
	emb, err := embedding.New(cfg.Embedding, logger)
	if err != nil {
		return nil, err
	}
	return search.Open(ctx, cfg, emb, logger)
}

// exitOnOpenError prints a user-facing message for engine load failures and exits.
func exitOnOpenError(err error) {
	switch {
	case errors.Is(err, search.ErrMissingArtifact):
		fmt.Fprintln(os.Stderr, "Index files are missing or corrupt. Run `grantseek index` first.")
	case errors.Is(err, search.ErrMisaligned):
		fmt.Fprintln(os.Stderr, "Index and records do not belong to the same run. Run `grantseek index` again.")
	case errors.Is(err, search.ErrModelMismatch):
		fmt.Fprintln(os.Stderr, "Index was built with a different embedding model. Run `grantseek index` again.")
	default:
		fmt.Fprintf(os.Stderr, "Failed to open index: %v\n", err)
	}
	os.Exit(1)
}

func runIndex() {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	categories := fs.String("categories", "", "comma-separated category keywords (default from config)")
	rows := fs.Int("rows", 0, "listings requested per category (default from config)")
	demo := fs.Bool("demo", false, "index the built-in sample records without calling the listing API")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()
	if list := splitList(*categories); len(list) > 0 {
		cfg.Source.Categories = list
	}
	if *rows > 0 {
		cfg.Source.Rows = *rows
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	var (
		records      []models.Record
		usedFallback bool
	)
	if *demo {
		records = source.DemoRecords()
		usedFallback = true
	} else {
		fmt.Printf("Fetching grants for %d categories: %s\n",
			len(cfg.Source.Categories), strings.Join(cfg.Source.Categories, ", "))
		client := source.NewGrantsGovClient(cfg.Source, source.WithClientLogger(logger))
		res, err := source.Collect(ctx, client, cfg.Source.Categories, source.WithLogger(logger))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Fetching grants failed: %v\n", err)
			os.Exit(1)
		}
		if len(res.Failed) > 0 {
			fmt.Printf("Skipped categories: %s\n", strings.Join(res.Failed, ", "))
		}
		if res.UsedFallback {
			fmt.Println("No grants retrieved; indexing the built-in sample records instead.")
		}
		records, usedFallback = res.Records, res.UsedFallback
	}

	m, err := components.IndexRecords(ctx, records, usedFallback, newProgressBar())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Indexing failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Indexed %d grants (%s, %d dimensions, %s index)\n", m.Count, m.Model, m.Dimensions, m.IndexType)
	fmt.Printf("Index:   %s\n", cfg.Storage.IndexPath)
	fmt.Printf("Records: %s\n", cfg.Storage.RecordsPath)
}

// newProgressBar returns a ProgressFunc drawing a terminal bar sized on the first call.
func newProgressBar() indexer.ProgressFunc {
	var bar *progressbar.ProgressBar
	return func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Embedding[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}
		_ = bar.Set(done)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// printSearchUsage prints search subcommand usage.
func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: grantseek search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Results are ordered by squared Euclidean distance; lower is closer.

Examples:
  grantseek search climate resilience
  grantseek search --limit 10 "mental health services"
  grantseek search --output json clean drinking water
  grantseek search --server http://localhost:8080 youth education
`)
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchArgsReorder moves any flags (and their values) that appear after or between
// query words to the front of the slice so that flag.Parse() sees them. Go's flag
// package stops at the first non-flag argument, so "grantseek search climate --limit 3"
// would otherwise leave --limit unparsed. Query words keep their order. Every search
// flag takes a value, so a flag without "=" consumes the next argument.
func searchArgsReorder(args []string) []string {
	flags := make([]string, 0, len(args))
	words := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		a := args[i]
		if len(a) == 0 || a[0] != '-' {
			words = append(words, a)
			continue
		}
		flags = append(flags, a)
		if !strings.Contains(a, "=") && i+1 < len(args) {
			i++
			flags = append(flags, args[i])
		}
	}
	if len(flags) == 0 {
		return args
	}
	return append(flags, words...)
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL; empty searches the local index files")
	limit := fs.Int("limit", 0, "number of results (default from config)")
	output := fs.String("output", "text", "output format: text, compact or json")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(searchArgsReorder(os.Args[2:]))

	queryText := buildSearchQuery(fs.Args())
	if queryText == "" {
		fs.Usage()
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*output)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	query := &models.SearchQuery{Query: queryText, Limit: *limit}

	var response *models.SearchResponse
	if *serverURL != "" {
		response, err = searchViaHTTP(*serverURL, query)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg, logger := setup(*configPath, false)
		defer logger.Sync()
		ctx := context.Background()
		engine, err := openEngine(ctx, cfg, logger)
		if err != nil {
			exitOnOpenError(err)
		}
		defer engine.Close()
		response, err = engine.Search(ctx, query)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
	}

	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write results: %v\n", err)
		os.Exit(1)
	}
}

func searchViaHTTP(serverURL string, query *models.SearchQuery) (*models.SearchResponse, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(strings.TrimRight(serverURL, "/")+"/api/v1/search", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var response models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func runChat() {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	demo := fs.Bool("demo", false, "run the prepared conversations instead of reading stdin")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()

	model, err := chat.NewOpenAIModel(cfg.Chat)
	if errors.Is(err, chat.ErrNoAPIKey) {
		fmt.Fprintf(os.Stderr, "Chat needs an API key. Set %s and try again.\n", cfg.Chat.APIKeyEnv)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create chat model: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	engine, err := openEngine(ctx, cfg, logger)
	if err != nil {
		exitOnOpenError(err)
	}
	defer engine.Close()

	assistant := chat.NewAssistant(model, engine, cfg.Chat, chat.WithLogger(logger))
	if *demo {
		err = runChatScenarios(ctx, assistant, cli.ChatScenarios, os.Stdout)
	} else {
		err = chatLoop(ctx, assistant, os.Stdin, os.Stdout)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Chat failed: %v\n", err)
		os.Exit(1)
	}
}

// chatLoop reads user turns from in until EOF or an exit word and writes replies to out.
// A failed turn is reported and the conversation continues without it.
func chatLoop(ctx context.Context, assistant *chat.Assistant, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "Ask about grants for your municipality. Type 'exit' to quit.")
	scanner := bufio.NewScanner(in)
	var history []chat.Message
	for {
		fmt.Fprint(out, "\nYou: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit", "q":
			return nil
		}
		reply, err := assistant.Respond(ctx, history, line)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}
		history = reply.History
		fmt.Fprintf(out, "\n[searched: %q, %d matches]\n", reply.Query, len(reply.Results))
		fmt.Fprintf(out, "Assistant: %s\n", reply.Reply)
	}
}

// runChatScenarios sends each scenario to the assistant as a new conversation and prints
// the search it ran and its reply.
func runChatScenarios(ctx context.Context, assistant *chat.Assistant, scenarios []cli.ChatScenario, w io.Writer) error {
	for i, s := range scenarios {
		reply, err := assistant.Respond(ctx, nil, s.Message)
		if err != nil {
			return fmt.Errorf("scenario %q: %w", s.Name, err)
		}
		cli.WriteChatScenario(w, i+1, s, reply.Query, reply.Reply, len(reply.Results))
	}
	return nil
}

func runDemo() {
	fs := flag.NewFlagSet("demo", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	limit := fs.Int("limit", 3, "matches shown per scenario")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, false)
	defer logger.Sync()
	ctx := context.Background()
	engine, err := openEngine(ctx, cfg, logger)
	if err != nil {
		exitOnOpenError(err)
	}
	defer engine.Close()

	if err := runScenarios(ctx, engine, cli.DemoScenarios, *limit, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Demo failed: %v\n", err)
		os.Exit(1)
	}
}

// runScenarios queries retriever for each scenario and prints the top k matches.
func runScenarios(ctx context.Context, retriever chat.Retriever, scenarios []cli.Scenario, k int, w io.Writer) error {
	for i, s := range scenarios {
		results, err := retriever.Query(ctx, s.Query, k)
		if err != nil {
			return fmt.Errorf("scenario %q: %w", s.Name, err)
		}
		cli.WriteScenario(w, i+1, s, results)
	}
	return nil
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (reloads, request logs, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reload := func(ctx context.Context) (*search.Engine, error) {
		return openEngine(ctx, cfg, logger)
	}
	engine, err := reload(ctx)
	if err != nil {
		if !errors.Is(err, search.ErrMissingArtifact) {
			exitOnOpenError(err)
		}
		logger.Warn("no index yet, serving without one until `grantseek index` runs", zap.Error(err))
	}

	catalog, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Fatal("Failed to open catalog", zap.Error(err))
	}
	defer catalog.Close()

	opts := []server.Option{server.WithCatalog(catalog), server.WithReload(reload)}
	if model, err := chat.NewOpenAIModel(cfg.Chat); err == nil {
		opts = append(opts, server.WithChatModel(model))
	} else {
		logger.Info("chat endpoint disabled", zap.Error(err))
	}
	srv := server.NewServer(engine, cfg, logger, opts...)

	if cfg.Server.WatchArtifactsOrDefault() {
		watchOpts := []watcher.WatcherOption{}
		if *debug || cfg.Debug {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		w := watcher.NewWatcher([]string{cfg.Storage.ManifestPath}, func(path string) {
			logger.Info("index manifest changed, reloading", zap.String("path", path))
			_ = srv.Reload(ctx)
		}, watchOpts...)
		if err := w.Start(ctx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer w.Stop()
	}

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cancel()
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	_ = srv.Stop(stopCtx)
}

// statusResponse is the shape of GET /api/v1/status and of the local status report.
type statusResponse struct {
	Records         int64                  `json:"records"`
	VectorIndexSize int                    `json:"vector_index_size"`
	VectorIndexType string                 `json:"vector_index_type,omitempty"`
	Dimensions      int                    `json:"dimensions,omitempty"`
	Model           string                 `json:"model,omitempty"`
	LastIndexRun    *storage.IndexRun      `json:"last_index_run,omitempty"`
	DiskUsageBytes  *int64                 `json:"disk_usage_bytes,omitempty"`
	Config          map[string]interface{} `json:"config,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL; empty reads the local index files")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var (
		status *statusResponse
		err    error
	)
	if *serverURL != "" {
		status, err = statusViaHTTP(*serverURL)
	} else {
		cfg, logger := setup(*configPath, false)
		defer logger.Sync()
		status, err = localStatus(context.Background(), cfg)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}

	if strings.EqualFold(*outputFormat, "json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write status: %v\n", err)
			os.Exit(1)
		}
		return
	}
	writeStatusText(os.Stdout, status)
}

// localStatus reads the manifest and, when it exists, the catalog. It never creates files.
func localStatus(ctx context.Context, cfg *config.Config) (*statusResponse, error) {
	st := cfg.Storage
	status := &statusResponse{
		Config: map[string]interface{}{
			"index_path":    st.IndexPath,
			"records_path":  st.RecordsPath,
			"database_path": st.DatabasePath,
			"provider":      cfg.Embedding.Provider,
		},
	}
	if m, err := manifest.Read(st.ManifestPath); err == nil {
		status.Records = int64(m.Count)
		status.VectorIndexSize = m.Count
		status.VectorIndexType = m.IndexType
		status.Dimensions = m.Dimensions
		status.Model = m.Model
	}
	if _, err := os.Stat(st.DatabasePath); err == nil {
		catalog, err := storage.NewSQLiteStorage(st.DatabasePath)
		if err != nil {
			return nil, err
		}
		defer catalog.Close()
		run, err := catalog.LatestIndexRun(ctx)
		switch {
		case err == nil:
			status.LastIndexRun = run
		case errors.Is(err, storage.ErrNotFound):
		default:
			return nil, err
		}
	}
	if total, err := storage.DiskUsageBytes(st.IndexPath, st.IndexPath+".faiss", st.RecordsPath, st.ManifestPath, st.DatabasePath); err == nil {
		status.DiskUsageBytes = &total
	}
	return status, nil
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(strings.TrimRight(serverURL, "/") + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var status statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &status, nil
}

func writeStatusText(w io.Writer, s *statusResponse) {
	fmt.Fprintln(w, "Index")
	if s.Model == "" {
		fmt.Fprintln(w, "  (no index yet; run `grantseek index`)")
	} else {
		fmt.Fprintf(w, "  Records:     %d\n", s.Records)
		fmt.Fprintf(w, "  Vectors:     %d\n", s.VectorIndexSize)
		fmt.Fprintf(w, "  Index type:  %s\n", s.VectorIndexType)
		fmt.Fprintf(w, "  Dimensions:  %d\n", s.Dimensions)
		fmt.Fprintf(w, "  Model:       %s\n", s.Model)
	}
	if run := s.LastIndexRun; run != nil {
		fmt.Fprintln(w, "Last run")
		fmt.Fprintf(w, "  At:          %s\n", run.IndexedAt.Local().Format(time.RFC3339))
		fmt.Fprintf(w, "  Records:     %d\n", run.RecordCount)
		if run.UsedFallback {
			fmt.Fprintln(w, "  Source:      built-in sample records")
		}
	}
	if s.DiskUsageBytes != nil {
		fmt.Fprintf(w, "Disk usage:    %d bytes\n", *s.DiskUsageBytes)
	}
}

// Components holds the services used to build an index.
type Components struct {
	Config   *config.Config
	Logger   *zap.Logger
	Embedder embedding.Embedder
	Catalog  storage.Catalog
}

// IndexRecords builds the vector index over records and persists the pair, the manifest
// and the catalog mirror.
func (c *Components) IndexRecords(ctx context.Context, records []models.Record, usedFallback bool, progress indexer.ProgressFunc) (*manifest.Manifest, error) {
	opts := []indexer.IndexerOption{indexer.WithLogger(c.Logger)}
	if c.Catalog != nil {
		opts = append(opts, indexer.WithCatalog(c.Catalog))
	}
	if progress != nil {
		opts = append(opts, indexer.WithProgress(progress))
	}
	idx := indexer.NewIndexer(c.Embedder, c.Config, opts...)
	built, err := idx.Build(ctx, records)
	if err != nil {
		return nil, err
	}
	defer built.Close()
	built.UsedFallback = usedFallback
	return idx.Persist(ctx, built)
}

func (c *Components) Close() {
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Catalog != nil {
		_ = c.Catalog.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	emb, err := embedding.New(cfg.Embedding, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	catalog, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		_ = emb.Close()
		return nil, fmt.Errorf("failed to initialize catalog: %w", err)
	}
	return &Components{
		Config:   cfg,
		Logger:   logger,
		Embedder: emb,
		Catalog:  catalog,
	}, nil
}

func printUsage() {
	fmt.Println(`grantseek - Semantic search over public grant listings

Usage:
  grantseek index [flags]            Fetch grant listings and build the index
  grantseek search [flags] <query>   Search indexed grants
  grantseek chat [flags]             Ask about grants in a conversation
  grantseek demo [flags]             Run the prepared municipality scenarios
  grantseek server [flags]           Start the HTTP server
  grantseek status [flags]           Show index and catalog status
  grantseek version                  Show version
  grantseek help                     Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/grantseek/config.yaml,
                     or $GRANTSEEK_CONFIG, or ./config.yaml when present)

Index Flags:
  --categories string   Comma-separated category keywords (default from config)
  --rows int            Listings requested per category (default from config)
  --demo                Index the built-in sample records only
  --debug               Enable debug logging

Search Flags:
  --server string    Server URL. Empty (default) searches the local index files.
  --limit int        Number of results (default from config, 5)
  --output string    Output format: text, compact or json (default: text)

Chat Flags:
  --demo             Run the prepared conversations instead of reading stdin
  --debug            Enable debug logging

Demo Flags:
  --limit int        Matches per scenario (default: 3)

Server Flags:
  --debug            Enable debug logging

Status Flags:
  --server string    Server URL. Empty (default) reads the local index files.
  --output string    Output format: text or json (default: text)

Examples:
  grantseek index
  grantseek index --categories education,health --rows 50
  grantseek search climate resilience funding
  grantseek search --output json "mental health"
  grantseek chat
  grantseek chat --demo
  grantseek demo
  grantseek server
  grantseek status --output json`)
}

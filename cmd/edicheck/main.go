package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/gops/agent"
	"github.com/viant/afs"
	_ "github.com/viant/afsc/gs"

	"github.com/viant/edicheck/service"
	"github.com/viant/edicheck/store"
)

func main() {
	startGops()
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "init":
		initCmd(os.Args[2:])
	case "ingest":
		ingestCmd(os.Args[2:])
	case "validate":
		validateCmd(os.Args[2:])
	case "analyze":
		analyzeCmd(os.Args[2:])
	case "enqueue":
		enqueueCmd(os.Args[2:])
	case "worker":
		workerCmd(os.Args[2:])
	case "search":
		searchCmd(os.Args[2:])
	case "rule":
		ruleCmd(os.Args[2:])
	case "template":
		templateCmd(os.Args[2:])
	case "schema":
		schemaCmd(os.Args[2:])
	case "feedback":
		feedbackCmd(os.Args[2:])
	case "report":
		reportCmd(os.Args[2:])
	case "serve":
		serveCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: edicheck <command> [options]")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  init      Create tables and seed the base rule and template")
	fmt.Fprintln(os.Stderr, "  ingest    Store invoice documents (optionally validate/analyze)")
	fmt.Fprintln(os.Stderr, "  validate  Validate a file or a stored document")
	fmt.Fprintln(os.Stderr, "  analyze   Run the AI analysis of a stored document")
	fmt.Fprintln(os.Stderr, "  enqueue   Schedule analyses on the task queue")
	fmt.Fprintln(os.Stderr, "  worker    Consume analysis tasks from the queue")
	fmt.Fprintln(os.Stderr, "  search    Search approved knowledge rules")
	fmt.Fprintln(os.Stderr, "  rule      Add rules or change their review status")
	fmt.Fprintln(os.Stderr, "  template  Create or list prompt template versions")
	fmt.Fprintln(os.Stderr, "  schema    Create or list validation schema versions")
	fmt.Fprintln(os.Stderr, "  feedback  Record reviewer feedback on an analysis result")
	fmt.Fprintln(os.Stderr, "  report    Summarize a JSON log and ask for an analyst report")
	fmt.Fprintln(os.Stderr, "  serve     Run the MCP server (and optionally a worker)")
}

// commonOptions are the flags shared by all commands; they override config values.
type commonOptions struct {
	configPath string
	db         string
	driver     string
	embedder   string
	engine     string
	model      string
	queue      string
	redisAddr  string
	logLevel   string
	debugSleep int
}

func registerCommon(flags *flag.FlagSet) *commonOptions {
	o := &commonOptions{}
	flags.StringVar(&o.configPath, "config", "", "config yaml (optional, defaults to ~/.edicheck/config.yaml if present)")
	flags.StringVar(&o.db, "db", "", "database DSN or sqlite path (overrides config)")
	flags.StringVar(&o.driver, "driver", "", "database driver: sqlite|postgres")
	flags.StringVar(&o.embedder, "embedder", "", "embedder: simple|ollama|openai|vertexai")
	flags.StringVar(&o.engine, "engine", "", "inference engine: ollama|vertex|none")
	flags.StringVar(&o.model, "model", "", "inference model")
	flags.StringVar(&o.queue, "queue", "", "task queue: memory|redis")
	flags.StringVar(&o.redisAddr, "redis-addr", "", "redis address")
	flags.StringVar(&o.logLevel, "log-level", "", "log level: debug|info|warn|error")
	flags.IntVar(&o.debugSleep, "debug-sleep", 0, "debug: sleep N seconds before execution (for gops)")
	return o
}

func (o *commonOptions) config() (*service.Config, error) {
	cfg := service.DefaultConfig()
	if path := resolveConfigPath(o.configPath); path != "" {
		loaded, err := service.LoadConfig(path)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if o.db != "" {
		cfg.Store.DSN = o.db
	}
	if o.driver != "" {
		cfg.Store.Driver = o.driver
	}
	if o.embedder != "" {
		cfg.Embedder.Provider = o.embedder
	}
	if o.engine != "" {
		cfg.Engine.Provider = o.engine
	}
	if o.model != "" {
		cfg.Engine.Model = o.model
	}
	if o.queue != "" {
		cfg.Queue.Provider = o.queue
	}
	if o.redisAddr != "" {
		cfg.Queue.Addr = o.redisAddr
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if strings.HasPrefix(cfg.Store.DSN, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		cfg.Store.DSN = filepath.Join(home, strings.TrimPrefix(cfg.Store.DSN, "~"))
	}
	return cfg, nil
}

// openService builds the service for a command and creates missing tables.
func openService(ctx context.Context, cmd string, o *commonOptions) (*service.Service, *service.Config) {
	maybeDebugSleep(cmd, o.debugSleep)
	cfg, err := o.config()
	if err != nil {
		log.Fatalf("%s: %v", cmd, err)
	}
	logger := service.NewLogger(os.Stderr, cfg.Log)
	slog.SetDefault(logger)
	if store.ResolveDialect(cfg.Store.Driver) == store.DialectSQLite {
		if err := ensureParentDir(cfg.Store.DSN); err != nil {
			log.Fatalf("%s: %v", cmd, err)
		}
	}
	svc, err := service.NewFromConfig(ctx, cfg, logger.With("cmd", cmd))
	if err != nil {
		log.Fatalf("%s: service init: %v", cmd, err)
	}
	if err := svc.Init(ctx); err != nil {
		_ = svc.Close()
		log.Fatalf("%s: %v", cmd, err)
	}
	return svc, cfg
}

func resolveConfigPath(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	candidate := filepath.Join(home, ".edicheck", "config.yaml")
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return ""
}

func ensureParentDir(dsn string) error {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || strings.Contains(path, ":memory:") {
		return nil
	}
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

// loadText reads a local path or any afs supported URL.
func loadText(ctx context.Context, fs afs.Service, location string) (string, error) {
	data, err := fs.DownloadWithURL(ctx, location)
	if err != nil {
		return "", fmt.Errorf("load %s: %w", location, err)
	}
	return string(data), nil
}

func printJSON(v any) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		log.Fatalf("encode output: %v", err)
	}
}

func parseCSV(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func maybeDebugSleep(cmd string, seconds int) {
	if seconds <= 0 {
		seconds = debugSleepFromEnv()
	}
	if seconds <= 0 {
		return
	}
	log.Printf("debug: cmd=%s pid=%d sleep=%ds", cmd, os.Getpid(), seconds)
	time.Sleep(time.Duration(seconds) * time.Second)
}

func startGops() {
	if err := agent.Listen(agent.Options{ShutdownCleanup: true}); err != nil {
		log.Printf("gops: %v", err)
	}
}

func debugSleepFromEnv() int {
	val := strings.TrimSpace(os.Getenv("EDICHECK_DEBUG_SLEEP"))
	if val == "" {
		return 0
	}
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

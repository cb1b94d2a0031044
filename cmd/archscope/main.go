// Command archscope analyzes a source tree and prints the analysis result.
// The JSON result goes to stdout (or --output); logs go to stderr.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/archscope/archscope/internal/analyzer"
	"github.com/archscope/archscope/internal/config"
	"github.com/archscope/archscope/internal/export"
	"github.com/archscope/archscope/internal/graph"
	"github.com/archscope/archscope/internal/logging"
	"github.com/archscope/archscope/internal/model"
)

// version is set by goreleaser at build time.
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet("archscope", pflag.ContinueOnError)
	fs.String("root", ".", "path to the source tree to analyze")
	fs.String("output", "", "write the result to a file instead of stdout")
	fs.String("format", "json", "output format: json or mermaid")
	fs.StringSlice("ignore", nil, "path patterns to skip")
	fs.StringSlice("languages", nil, "restrict analysis to these languages")
	fs.Int("max-depth", 0, "directory recursion depth cap (0 = unlimited)")
	fs.Int64("max-file-size", 0, "per-file size cap in bytes")
	fs.Int("max-files", 0, "cap on analyzed file count (0 = unlimited)")
	fs.Int("workers", 0, "extraction parallelism (0 = GOMAXPROCS)")
	fs.Int("max-cycles", 0, "cycle enumeration cap")
	fs.String("store", "", "persist the result to a graph database directory")
	fs.Bool("verbose", false, "enable debug logging")
	fs.Bool("log-json", false, "emit logs as JSON")
	showVersion := fs.Bool("version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *showVersion {
		fmt.Println(version)
		return nil
	}

	cfg, err := config.Load(fs)
	if err != nil {
		return err
	}
	log := logging.Setup(cfg.Verbose, cfg.LogJSON)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	langs := make([]model.Language, 0, len(cfg.Languages))
	for _, l := range cfg.Languages {
		langs = append(langs, model.Language(l))
	}

	a := analyzer.New(analyzer.Options{
		IgnorePatterns: cfg.Ignore,
		MaxDepth:       cfg.MaxDepth,
		Languages:      langs,
		MaxFileSize:    cfg.MaxFileSize,
		MaxFiles:       cfg.MaxFiles,
		Workers:        cfg.Workers,
		Graph:          graph.Options{MaxCycles: cfg.MaxCycles},
		Logger:         log,
	})

	started := time.Now()
	result, err := a.Analyze(ctx, cfg.Root)
	if err != nil {
		return err
	}
	log.Debug("run finished", "elapsed", time.Since(started))

	if cfg.StoreDir != "" {
		if err := persist(ctx, cfg.StoreDir, result); err != nil {
			return fmt.Errorf("persist result: %w", err)
		}
		log.Info("result persisted", "dir", cfg.StoreDir)
	}

	switch cfg.Format {
	case "mermaid":
		return writeOutput(cfg.Output, []byte(export.GenerateMermaid(result)))
	default:
		if cfg.Output != "" {
			return export.WriteJSON(cfg.Output, result)
		}
		return export.EncodeJSON(os.Stdout, result)
	}
}

func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/ripple"
	"github.com/jward/ripple/internal/config"
	"github.com/jward/ripple/internal/extract"
	"github.com/jward/ripple/internal/store"
)

func main() {
	a := newApp(os.Stdout, os.Stderr)
	if err := a.rootCmd().Execute(); err != nil {
		if !a.errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", ripple.NotFoundMessage(err))
		}
		os.Exit(1)
	}
}

// app holds the global flags and what PersistentPreRunE derives from them.
type app struct {
	stdout io.Writer
	stderr io.Writer

	dbPath     string
	format     string
	configPath string
	verbose    bool

	// query pagination and ordering
	limit  int
	offset int
	sortBy string
	order  string

	cfg    config.Config
	logger *slog.Logger

	// errorHandled is set by outputError so main() doesn't double-print.
	errorHandled bool
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout: stdout,
		stderr: stderr,
		cfg:    config.Default(),
		logger: slog.New(slog.DiscardHandler),
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ripple",
		Short:         "Change impact analysis over a code relationship graph",
		Long:          "Ripple indexes Go and Rust sources with tree-sitter into a SQLite database, loads the resulting entity graph into memory and answers blast-radius and impact queries against it.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		// No Run — prints help by default.
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.dbPath, "db", "", "database path (default: .ripple/index.db relative to repo root)")
	pf.StringVar(&a.format, "format", "json", "output format: json|text")
	pf.StringVar(&a.configPath, "config", "", "YAML config file")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(a.indexCmd())
	root.AddCommand(a.queryCmd())
	root.AddCommand(a.scriptCmd())
	root.AddCommand(a.configCmd())
	return root
}

// setup validates the global flags, loads the config and builds the logger.
func (a *app) setup() error {
	if err := validateFormat(a.format); err != nil {
		return err
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Logging.Level)); err != nil {
		return fmt.Errorf("logging level: %w", err)
	}
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))
	return nil
}

func (a *app) indexCmd() *cobra.Command {
	var (
		force     bool
		languages string
	)
	cmd := &cobra.Command{
		Use:   "index [path]",
		Short: "Index a repository",
		Long:  "Parses Go and Rust files with tree-sitter, resolves references into relationships and writes the result to the SQLite database. Unchanged files are skipped.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runIndex(cmd, args, force, languages)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "delete database and reindex from scratch")
	cmd.Flags().StringVar(&languages, "languages", "", "comma-separated language filter (e.g. go,rust)")
	return cmd
}

func (a *app) runIndex(cmd *cobra.Command, args []string, force bool, languages string) error {
	start := time.Now()

	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return a.outputError("index", err)
	}
	repoRoot := findRepoRoot(targetDir)
	dbPath := a.resolveDBPath(repoRoot)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return a.outputError("index", fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err))
	}
	if force {
		if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
			return a.outputError("index", fmt.Errorf("removing database for --force: %w", err))
		}
		fmt.Fprintf(a.stderr, "Cleared database: %s\n", dbPath)
	}

	s, err := store.NewStore(dbPath)
	if err != nil {
		return a.outputError("index", fmt.Errorf("opening store: %w", err))
	}
	defer s.Close()
	if err := s.Migrate(); err != nil {
		return a.outputError("index", fmt.Errorf("migrating store: %w", err))
	}

	langs := a.cfg.Index.Languages
	if languages != "" {
		langs = strings.Split(languages, ",")
		for i := range langs {
			langs[i] = strings.TrimSpace(langs[i])
		}
	}
	ix := extract.NewIndexer(s,
		extract.WithLogger(a.logger),
		extract.WithLanguages(langs...),
		extract.WithExclude(a.cfg.Index.Exclude...),
		extract.WithWorkers(a.cfg.Engine.MaxConcurrency),
	)

	res, err := ix.IndexDirectory(cmd.Context(), targetDir)
	if err != nil {
		return a.outputError("index", fmt.Errorf("indexing: %w", err))
	}

	elapsed := time.Since(start)
	fmt.Fprintf(a.stderr, "Indexed %s in %s (%d indexed, %d unchanged, %d removed)\n",
		targetDir, elapsed.Round(time.Millisecond), res.Indexed, res.Unchanged, res.Removed)
	fmt.Fprintf(a.stderr, "Database: %s\n", dbPath)

	return a.output(CLIResult{Command: "index", Results: CLIIndexSummary{
		Root:          targetDir,
		Database:      dbPath,
		Scanned:       res.Scanned,
		Indexed:       res.Indexed,
		Unchanged:     res.Unchanged,
		Removed:       res.Removed,
		Affected:      nonNil(res.Affected),
		Relationships: res.Resolve.Relationships,
		Unresolved:    res.Resolve.Unresolved,
		ElapsedMS:     elapsed.Milliseconds(),
	}})
}

func (a *app) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := config.Marshal(a.cfg)
			if err != nil {
				return err
			}
			_, err = a.stdout.Write(data)
			return err
		},
	}
}

// resolveTargetDir returns the absolute path of the directory to index.
func resolveTargetDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}

// findRepoRoot walks up from startDir looking for a .git directory.
// Returns the directory containing .git, or startDir if not found.
func findRepoRoot(startDir string) string {
	dir := startDir
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir
		}
		dir = parent
	}
}

// resolveDBPath returns the database path from the --db flag or the default.
func (a *app) resolveDBPath(repoRoot string) string {
	if a.dbPath != "" {
		if filepath.IsAbs(a.dbPath) {
			return a.dbPath
		}
		return filepath.Join(repoRoot, a.dbPath)
	}
	return filepath.Join(repoRoot, ".ripple", "index.db")
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

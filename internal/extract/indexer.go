package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	ignore "github.com/sabhiram/go-gitignore"
	"golang.org/x/sync/errgroup"

	"github.com/jward/ripple/internal/config"
	"github.com/jward/ripple/internal/store"
)

// Indexer keeps a Store in sync with a source tree.
type Indexer struct {
	store     *store.Store
	logger    *slog.Logger
	languages map[string]bool // nil means all languages
	exclude   map[string]bool
	workers   int
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(ix *Indexer) {
		if logger != nil {
			ix.logger = logger
		}
	}
}

// WithLanguages restricts which languages the Indexer will process.
func WithLanguages(languages ...string) Option {
	return func(ix *Indexer) {
		if len(languages) == 0 {
			ix.languages = nil
			return
		}
		ix.languages = make(map[string]bool, len(languages))
		for _, lang := range languages {
			ix.languages[lang] = true
		}
	}
}

// WithExclude replaces the directory names skipped while walking.
func WithExclude(dirs ...string) Option {
	return func(ix *Indexer) {
		ix.exclude = make(map[string]bool, len(dirs))
		for _, d := range dirs {
			ix.exclude[d] = true
		}
	}
}

// WithWorkers bounds the number of files parsed at once. Values below 1
// mean one worker per CPU.
func WithWorkers(n int) Option {
	return func(ix *Indexer) {
		ix.workers = n
	}
}

// NewIndexer returns an Indexer writing to s.
func NewIndexer(s *store.Store, opts ...Option) *Indexer {
	ix := &Indexer{
		store:  s,
		logger: slog.New(slog.DiscardHandler),
	}
	WithExclude(config.Default().Index.Exclude...)(ix)
	for _, opt := range opts {
		opt(ix)
	}
	if ix.workers < 1 {
		ix.workers = runtime.NumCPU()
	}
	return ix
}

// Result summarizes one indexing run.
type Result struct {
	Scanned   int      // supported files considered
	Indexed   int      // files (re)extracted
	Unchanged int      // files skipped because their content hash matched
	Removed   int      // files pruned because they no longer exist
	Affected  []string // other files whose relationships may have changed
	Resolve   store.ResolveStats
}

// IndexDirectory indexes every supported file under root and forgets files
// that have disappeared since the last run. Inside a git checkout the file
// list comes from git ls-files, so .gitignore is respected; otherwise the
// tree is walked.
func (ix *Indexer) IndexDirectory(ctx context.Context, root string) (*Result, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	paths, err := ix.gitListFiles(root)
	if err != nil {
		paths, err = ix.walkListFiles(root)
		if err != nil {
			return nil, err
		}
	}

	res := &Result{}
	affected := map[string]bool{}
	if err := ix.prune(paths, res, affected); err != nil {
		return nil, err
	}
	return ix.index(ctx, root, paths, res, affected)
}

// IndexFiles indexes the given files. Paths may be absolute or relative to
// root; they are stored relative to root with forward slashes.
func (ix *Indexer) IndexFiles(ctx context.Context, root string, paths []string) (*Result, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	rels := make([]string, 0, len(paths))
	for _, p := range paths {
		rel, err := relPath(root, p)
		if err != nil {
			return nil, err
		}
		rels = append(rels, rel)
	}
	return ix.index(ctx, root, rels, &Result{}, map[string]bool{})
}

// workItem is one file moving through the pipeline.
type workItem struct {
	path   string // relative, slash separated
	lang   string
	src    []byte
	hash   string
	before []*store.Entity

	batch *store.BatchedStore
	err   error
}

// index runs the three phases:
//
//	Phase A (serial):   hash check, capture the previous declarations.
//	Phase B (parallel): parse and extract into a BatchedStore per file.
//	Phase C (serial):   commit each batch, collect affected files.
//
// and then resolves references once. Errors on individual files are logged
// and reported together; the remaining files are still committed.
func (ix *Indexer) index(ctx context.Context, root string, paths []string, res *Result, affected map[string]bool) (*Result, error) {
	start := time.Now()

	// ---- Phase A ----
	var items []*workItem
	for _, p := range paths {
		item, skip, err := ix.prepareFile(root, p, res)
		if err != nil {
			return nil, fmt.Errorf("prepare %s: %w", p, err)
		}
		if !skip {
			items = append(items, item)
		}
	}

	// ---- Phase B ----
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.workers)
	for _, item := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			item.batch = store.NewBatchedStore()
			item.err = Extract(gctx, item.lang, item.path, item.src, item.batch)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// ---- Phase C ----
	var errs []error
	for _, item := range items {
		if item.err != nil {
			ix.logger.Warn("extraction failed", slog.String("path", item.path), slog.Any("error", item.err))
			errs = append(errs, item.err)
			continue
		}
		f := &store.File{Path: item.path, Language: item.lang, Hash: item.hash, LastIndexed: time.Now()}
		if _, err := ix.store.ReplaceFile(f, item.batch); err != nil {
			errs = append(errs, fmt.Errorf("commit %s: %w", item.path, err))
			continue
		}
		res.Indexed++

		after, _ := item.batch.EntitiesByFile(f.ID)
		names := store.ChangedNames(item.before, after)
		others, err := ix.store.AffectedFiles(names, item.path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, o := range others {
			affected[o] = true
		}
	}

	for p := range affected {
		res.Affected = append(res.Affected, p)
	}
	sort.Strings(res.Affected)

	if res.Indexed > 0 || res.Removed > 0 {
		stats, err := ix.store.Resolve(ctx)
		if err != nil {
			return nil, err
		}
		res.Resolve = stats
	}

	ix.logger.Info("index complete",
		slog.Int("scanned", res.Scanned),
		slog.Int("indexed", res.Indexed),
		slog.Int("unchanged", res.Unchanged),
		slog.Int("removed", res.Removed),
		slog.Int("relationships", res.Resolve.Relationships),
		slog.Duration("elapsed", time.Since(start)),
	)

	if len(errs) > 0 {
		return res, fmt.Errorf("indexing had %d error(s): %w", len(errs), errors.Join(errs...))
	}
	return res, nil
}

// prepareFile is the Phase A work for one file. skip is true for
// unsupported, filtered out and unchanged files.
func (ix *Indexer) prepareFile(root, path string, res *Result) (*workItem, bool, error) {
	lang, ok := ix.accepts(path)
	if !ok {
		return nil, true, nil
	}
	res.Scanned++

	src, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(path)))
	if err != nil {
		return nil, false, fmt.Errorf("read file: %w", err)
	}
	hash := store.ContentHash(src)

	existing, err := ix.store.FileByPath(path)
	if err != nil {
		return nil, false, fmt.Errorf("lookup file: %w", err)
	}
	if existing != nil && existing.Hash == hash {
		res.Unchanged++
		return nil, true, nil
	}

	item := &workItem{path: path, lang: lang, src: src, hash: hash}
	if existing != nil {
		if item.before, err = ix.store.EntitiesByFile(existing.ID); err != nil {
			return nil, false, fmt.Errorf("capture old entities: %w", err)
		}
	}
	return item, false, nil
}

// prune deletes stored files missing from paths and marks the files that
// referred to their entities as affected.
func (ix *Indexer) prune(paths []string, res *Result, affected map[string]bool) error {
	present := make(map[string]bool, len(paths))
	for _, p := range paths {
		present[p] = true
	}
	files, err := ix.store.Files()
	if err != nil {
		return err
	}
	for _, f := range files {
		if present[f.Path] {
			continue
		}
		before, err := ix.store.EntitiesByFile(f.ID)
		if err != nil {
			return err
		}
		if err := ix.store.DeleteFile(f.Path); err != nil {
			return err
		}
		res.Removed++
		ix.logger.Debug("file removed", slog.String("path", f.Path))

		others, err := ix.store.AffectedFiles(store.ChangedNames(before, nil), f.Path)
		if err != nil {
			return err
		}
		for _, o := range others {
			affected[o] = true
		}
	}
	return nil
}

func (ix *Indexer) accepts(path string) (string, bool) {
	lang, ok := LanguageForFile(path)
	if !ok {
		return "", false
	}
	if ix.languages != nil && !ix.languages[lang] {
		return "", false
	}
	return lang, true
}

// excluded reports whether any directory of the slash separated path is
// hidden or in the exclude list.
func (ix *Indexer) excluded(path string) bool {
	dirs := strings.Split(path, "/")
	for _, d := range dirs[:len(dirs)-1] {
		if strings.HasPrefix(d, ".") || ix.exclude[d] {
			return true
		}
	}
	return false
}

// gitListFiles lists tracked and untracked (but not ignored) files under
// root, relative to root.
func (ix *Indexer) gitListFiles(root string) ([]string, error) {
	cmd := exec.Command("git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git ls-files: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	var paths []string
	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || ix.excluded(line) {
			continue
		}
		if _, ok := ix.accepts(line); ok {
			paths = append(paths, line)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// walkListFiles discovers files by walking the filesystem when git is not
// available. Hidden and excluded directories are skipped, as is anything a
// top-level .gitignore matches.
func (ix *Indexer) walkListFiles(root string) ([]string, error) {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read .gitignore: %w", err)
		}
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, err := relPath(root, path)
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if strings.HasPrefix(name, ".") || ix.exclude[name] || (gi != nil && gi.MatchesPath(rel+"/")) {
				return filepath.SkipDir
			}
			return nil
		}
		if gi != nil && gi.MatchesPath(rel) {
			return nil
		}
		if _, ok := ix.accepts(path); !ok {
			return nil
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}
	return paths, nil
}

func relPath(root, path string) (string, error) {
	if !filepath.IsAbs(path) {
		return filepath.ToSlash(filepath.Clean(path)), nil
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", fmt.Errorf("path %s: %w", path, err)
	}
	if strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("path %s is outside %s", path, root)
	}
	return filepath.ToSlash(rel), nil
}

package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/sqlcst/internal/cli/output"
	"github.com/leapstack-labs/sqlcst/internal/state"
	"github.com/leapstack-labs/sqlcst/pkg/dialect"
	"github.com/leapstack-labs/sqlcst/pkg/parser"
)

// ErrCheckFailed is returned when at least one file does not parse.
var ErrCheckFailed = errors.New("check failed")

// watchDebounce is how long the watcher waits for file events to settle.
const watchDebounce = 100 * time.Millisecond

// FileResult is the outcome of checking one file.
type FileResult struct {
	Path    string       `json:"path"`
	Status  state.Status `json:"status"`
	Message string       `json:"message,omitempty"`
	Cached  bool         `json:"cached"`
}

// CheckReport summarizes one check pass.
type CheckReport struct {
	RunID    string       `json:"runId,omitempty"`
	Dialect  string       `json:"dialect"`
	Files    []FileResult `json:"files"`
	Failures int          `json:"failures"`
	Cached   int          `json:"cached"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "check [paths...]",
		Short: "Verify that SQL files parse",
		Long: `Parse every .sql file under the given paths and report the files that fail.

Directories are searched recursively, skipping hidden directories. Files are
parsed concurrently. Results are cached by content hash and dialect, so
unchanged files are not parsed again; use --no-cache to disable this.

With --watch, the paths are checked again whenever a .sql file changes.`,
		Example: `  sqlcst check
  sqlcst check models/ -d postgresql --jobs 4
  sqlcst check queries/ --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args, watch)
		},
	}

	cmd.Flags().IntP("jobs", "j", 0, "Files parsed concurrently (default: number of CPUs)")
	cmd.Flags().Bool("no-cache", false, "Do not read or write the result cache")
	cmd.Flags().String("cache-path", "", "Result cache database (default: .sqlcst/cache.db)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Re-check files when they change")
	return cmd
}

func runCheck(cmd *cobra.Command, args []string, watch bool) error {
	ctx := cmd.Context()
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		args = []string{"."}
	}
	files, err := collectSQLFiles(args)
	if err != nil {
		return err
	}

	c, err := newChecker(cmdCtx)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	report, err := c.Run(ctx, files)
	if err != nil {
		return err
	}
	if err := renderCheckReport(cmdCtx.Renderer, report); err != nil {
		return err
	}

	if watch {
		cmdCtx.Renderer.Muted("watching for changes (Ctrl+C to stop)")
		return c.Watch(ctx, args, func(r *CheckReport) {
			if err := renderCheckReport(cmdCtx.Renderer, r); err != nil {
				cmdCtx.Renderer.Error(err)
			}
		})
	}

	if report.Failures > 0 {
		return fmt.Errorf("%w: %d of %d files failed to parse", ErrCheckFailed, report.Failures, len(report.Files))
	}
	return nil
}

// checker parses files with one dialect and consults the result cache.
// Its parser is shared by all workers.
type checker struct {
	dialect    dialect.Config
	dialectKey string
	parser     *parser.Parser
	store      *state.Store
	logger     *slog.Logger
	jobs       int
}

func newChecker(cmdCtx *CommandContext) (*checker, error) {
	key, err := dialectCacheKey(cmdCtx.Dialect)
	if err != nil {
		return nil, err
	}

	p, err := parser.New(cmdCtx.Dialect, parser.WithLogger(cmdCtx.Logger))
	if err != nil {
		return nil, err
	}

	c := &checker{
		dialect:    cmdCtx.Dialect,
		dialectKey: key,
		parser:     p,
		logger:     cmdCtx.Logger,
		jobs:       cmdCtx.Cfg.Jobs,
	}
	if c.jobs <= 0 {
		c.jobs = runtime.NumCPU()
	}

	if !cmdCtx.Cfg.NoCache {
		store := state.NewStore(cmdCtx.Logger)
		if err := store.Open(cmdCtx.Cfg.CachePath); err != nil {
			cmdCtx.Renderer.Warning(fmt.Sprintf("result cache disabled: %v", err))
		} else {
			c.store = store
		}
	}
	return c, nil
}

// dialectCacheKey identifies a dialect by name and content, so editing a
// dialect file invalidates cached results.
func dialectCacheKey(d dialect.Config) (string, error) {
	data, err := dialect.Marshal(d)
	if err != nil {
		return "", err
	}
	return d.Name + "@" + state.HashContent(data)[:12], nil
}

// Close releases the result cache.
func (c *checker) Close() error {
	if c.store == nil {
		return nil
	}
	return c.store.Close()
}

// Run checks files concurrently. Results keep the order of files.
func (c *checker) Run(ctx context.Context, files []string) (*CheckReport, error) {
	report := &CheckReport{Dialect: c.dialect.Name}

	if c.store != nil {
		run, err := c.store.StartRun(ctx, c.dialectKey)
		if err != nil {
			c.logger.Warn("failed to record check run", slog.String("error", err.Error()))
		} else {
			report.RunID = run.ID
		}
	}

	results := make([]FileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.jobs)
	for i, path := range files {
		g.Go(func() error {
			res, err := c.checkFile(gctx, path)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report.Files = results
	for _, r := range results {
		if r.Status == state.StatusFailed {
			report.Failures++
		}
		if r.Cached {
			report.Cached++
		}
	}

	if report.RunID != "" {
		if err := c.store.FinishRun(ctx, report.RunID, len(files), report.Failures); err != nil {
			c.logger.Warn("failed to finish check run", slog.String("error", err.Error()))
		}
	}
	return report, nil
}

func (c *checker) checkFile(ctx context.Context, path string) (FileResult, error) {
	if err := ctx.Err(); err != nil {
		return FileResult{}, err
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return FileResult{Path: path, Status: state.StatusFailed, Message: err.Error()}, nil
	}
	hash := state.HashContent(src)

	if c.store != nil {
		cached, err := c.store.Lookup(ctx, path, hash, c.dialectKey)
		if err != nil {
			c.logger.Warn("cache lookup failed", slog.String("path", path), slog.String("error", err.Error()))
		} else if cached != nil {
			c.logger.Debug("cache hit", slog.String("path", path))
			return FileResult{Path: path, Status: cached.Status, Message: cached.Message, Cached: true}, nil
		}
	}

	res := FileResult{Path: path, Status: state.StatusOK}
	if _, err := c.parser.ParseString(string(src)); err != nil {
		res.Status = state.StatusFailed
		res.Message = err.Error()
	}

	if c.store != nil {
		err := c.store.Record(ctx, &state.CheckResult{
			FilePath:    path,
			ContentHash: hash,
			Dialect:     c.dialectKey,
			Status:      res.Status,
			Message:     res.Message,
		})
		if err != nil {
			c.logger.Warn("failed to cache result", slog.String("path", path), slog.String("error", err.Error()))
		}
	}
	return res, nil
}

// Watch re-checks changed .sql files under roots until ctx is done. Results
// of deleted files are dropped from the cache.
func (c *checker) Watch(ctx context.Context, roots []string, onReport func(*CheckReport)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	explicit := map[string]bool{}
	var dirs []string
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return err
		}
		if info.IsDir() {
			if err := watchDirRecursive(watcher, root); err != nil {
				return fmt.Errorf("failed to watch %s: %w", root, err)
			}
			dirs = append(dirs, root)
			continue
		}
		explicit[filepath.Clean(root)] = true
		if err := watcher.Add(filepath.Dir(root)); err != nil {
			return fmt.Errorf("failed to watch %s: %w", root, err)
		}
	}

	wanted := func(path string) bool {
		if explicit[filepath.Clean(path)] {
			return true
		}
		return isSQLFile(path) && underAny(path, dirs)
	}

	changed := map[string]bool{}
	removed := map[string]bool{}
	timer := time.NewTimer(watchDebounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !isHidden(info.Name()) {
					_ = watchDirRecursive(watcher, event.Name)
					continue
				}
			}
			if !wanted(event.Name) {
				continue
			}
			switch {
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				removed[event.Name] = true
				delete(changed, event.Name)
			case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
				changed[event.Name] = true
				delete(removed, event.Name)
			default:
				continue
			}
			timer.Reset(watchDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.logger.Warn("watch error", slog.String("error", err.Error()))

		case <-timer.C:
			if len(removed) > 0 && c.store != nil {
				if _, err := c.store.Prune(ctx, sortedKeys(removed)); err != nil {
					c.logger.Warn("failed to prune cache", slog.String("error", err.Error()))
				}
			}
			files := sortedKeys(changed)
			clear(changed)
			clear(removed)
			if len(files) == 0 {
				continue
			}
			c.logger.Debug("files changed, re-checking", slog.Int("files", len(files)))
			report, err := c.Run(ctx, files)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			onReport(report)
		}
	}
}

// underAny reports whether path lies inside one of dirs.
func underAny(path string, dirs []string) bool {
	for _, dir := range dirs {
		rel, err := filepath.Rel(dir, path)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// watchDirRecursive adds a directory and all non-hidden subdirectories to
// the watcher.
func watchDirRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

// collectSQLFiles expands paths into a sorted list of files. Directories
// contribute their .sql files, recursively; files are taken as given.
func collectSQLFiles(paths []string) ([]string, error) {
	seen := map[string]bool{}
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			seen[filepath.Clean(root)] = true
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && isHidden(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if isSQLFile(path) {
				seen[path] = true
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", root, err)
		}
	}
	return sortedKeys(seen), nil
}

func isSQLFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".sql")
}

func isHidden(name string) bool {
	return len(name) > 1 && strings.HasPrefix(name, ".")
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func renderCheckReport(r *output.Renderer, report *CheckReport) error {
	if wrote, err := r.Structured(report); wrote || err != nil {
		return err
	}

	for _, f := range report.Files {
		line := f.Path
		if f.Cached {
			line += " (cached)"
		}
		if f.Status == state.StatusOK {
			r.Success(line)
		} else {
			r.Fail(line + ": " + f.Message)
		}
	}
	r.Muted(fmt.Sprintf("%d files checked, %d failed, %d cached", len(report.Files), report.Failures, report.Cached))
	return nil
}

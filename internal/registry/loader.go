package registry

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/sglre6355/vaneta/internal/metrics"
	"github.com/sglre6355/vaneta/internal/plugin"
)

// Pattern selects plugin descriptor files.
const Pattern = "**/*.{yaml,yml}"

// DefaultConcurrency bounds the number of descriptors decoded at once.
const DefaultConcurrency = 8

// LoadOptions configures Load.
type LoadOptions struct {
	Handlers    plugin.Handlers
	Concurrency int
	Metrics     *metrics.Metrics
}

// Report summarizes a Load call.
type Report struct {
	Files    int
	Commands int
	Contexts int
	Events   int
	Errors   []*plugin.LoadError
}

type loaded struct {
	path  string
	entry plugin.Entry
	err   *plugin.LoadError
}

// Load discovers every descriptor under dir, builds them concurrently and
// inserts the valid ones in lexical path order. It returns once every
// descriptor has been processed. Invalid descriptors are logged and reported,
// never fatal; the returned error is set only when dir cannot be walked or ctx
// is cancelled.
func (r *Registry) Load(ctx context.Context, dir string, opts LoadOptions) (Report, error) {
	var report Report

	paths, err := doublestar.Glob(os.DirFS(dir), Pattern, doublestar.WithFilesOnly())
	if err != nil {
		return report, fmt.Errorf("discover plugins in %s: %w", dir, err)
	}
	sort.Strings(paths)
	report.Files = len(paths)

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]loaded, len(paths))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(concurrency)

	for i, rel := range paths {
		i := i
		path := filepath.Join(dir, filepath.FromSlash(rel))
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			results[i] = loadFile(path, opts.Handlers)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return report, fmt.Errorf("load plugins in %s: %w", dir, err)
	}

	for _, res := range results {
		if res.err != nil {
			r.logger.Error("failed to load plugin", "path", res.path, "error", res.err.Err)
			opts.Metrics.LoadError()
			report.Errors = append(report.Errors, res.err)
			continue
		}

		r.Add(res.entry)
		switch {
		case res.entry.Command != nil:
			report.Commands++
		case res.entry.Context != nil:
			report.Contexts++
		case res.entry.Event != nil:
			report.Events++
		}
	}

	commands, contexts, events := r.Counts()
	opts.Metrics.Loaded(plugin.KindCommand, commands)
	opts.Metrics.Loaded(plugin.KindContext, contexts)
	opts.Metrics.Loaded(plugin.KindEvent, events)

	r.logger.Info("loaded plugins",
		"dir", dir,
		"files", report.Files,
		"commands", report.Commands,
		"contexts", report.Contexts,
		"events", report.Events,
		"errors", len(report.Errors),
	)

	return report, nil
}

// LoadAll loads each directory in order. A directory that does not exist is
// skipped with a warning.
func (r *Registry) LoadAll(ctx context.Context, dirs []string, opts LoadOptions) (Report, error) {
	var total Report
	for _, dir := range dirs {
		if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
			r.logger.Warn("plugin directory does not exist", "dir", dir)
			continue
		}

		report, err := r.Load(ctx, dir, opts)
		if err != nil {
			return total, err
		}
		total.Files += report.Files
		total.Commands += report.Commands
		total.Contexts += report.Contexts
		total.Events += report.Events
		total.Errors = append(total.Errors, report.Errors...)
	}
	return total, nil
}

func loadFile(path string, handlers plugin.Handlers) loaded {
	fail := func(err error) loaded {
		return loaded{path: path, err: &plugin.LoadError{Path: path, Err: err}}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fail(err)
	}

	desc, err := plugin.Decode(data)
	if err != nil {
		return fail(err)
	}

	entry, err := plugin.Build(desc, handlers)
	if err != nil {
		return fail(err)
	}

	return loaded{path: path, entry: entry}
}

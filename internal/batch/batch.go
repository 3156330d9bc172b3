// Package batch runs one job per monster file on a bounded worker pool.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/LudovicGuerra/ifrit-enhanced/internal/logger"
	"github.com/LudovicGuerra/ifrit-enhanced/internal/monster"
)

// ErrFailed is returned by Report.Err when at least one file failed.
var ErrFailed = errors.New("batch: some files failed")

// Func processes one file. log is already tagged with the run id and the
// file label.
type Func func(ctx context.Context, path string, log logger.Logger) error

// Options configures a run.
type Options struct {
	// Workers bounds the number of files processed at once. Zero means
	// GOMAXPROCS.
	Workers int
	Log     logger.Logger
}

// Result is the outcome for one file.
type Result struct {
	Label    string        `json:"label"`
	Path     string        `json:"path"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// Report collects the results of a run in input order.
type Report struct {
	RunID   string   `json:"run_id"`
	Results []Result `json:"results"`
}

// Failed returns the results that carry an error.
func (r Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// Err joins every per-file error under ErrFailed, or returns nil.
func (r Report) Err() error {
	failed := r.Failed()
	if len(failed) == 0 {
		return nil
	}
	errs := make([]error, 0, len(failed)+1)
	errs = append(errs, ErrFailed)
	for _, res := range failed {
		errs = append(errs, fmt.Errorf("%s: %w", res.Label, res.Err))
	}
	return errors.Join(errs...)
}

// Discover lists the c0m###.dat files directly under dir, ordered by
// monster index.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	type found struct {
		path  string
		index int
	}
	var files []found
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		idx, err := monster.FileIndex(e.Name())
		if err != nil {
			continue
		}
		files = append(files, found{filepath.Join(dir, e.Name()), idx})
	}
	slices.SortFunc(files, func(a, b found) int {
		if a.index != b.index {
			return a.index - b.index
		}
		return strings.Compare(a.path, b.path)
	})
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.path
	}
	return paths, nil
}

// Run calls fn for every path. A failing file is logged and recorded; it
// does not stop the others. Run only returns an error when ctx is done
// before every file was attempted.
func Run(ctx context.Context, paths []string, opts Options, fn Func) (Report, error) {
	log := opts.Log
	if log == nil {
		log = logger.FromContext(ctx)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	report := Report{
		RunID:   uuid.NewString(),
		Results: make([]Result, len(paths)),
	}
	log = logger.WithRun(log, report.RunID)
	log.Info("batch started", "files", len(paths), "workers", workers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		label := filepath.Base(path)
		report.Results[i] = Result{Label: label, Path: path}
		if gctx.Err() != nil {
			report.Results[i].Err = gctx.Err()
			continue
		}
		g.Go(func() error {
			flog := logger.WithFile(log, label)
			start := time.Now()
			err := fn(gctx, path, flog)
			report.Results[i].Duration = time.Since(start)
			if err != nil {
				report.Results[i].Err = err
				flog.Error("file failed", "error", err)
				return nil
			}
			flog.Debug("file done", "duration", report.Results[i].Duration)
			return nil
		})
	}
	_ = g.Wait()

	failed := len(report.Failed())
	log.Info("batch finished", "files", len(paths), "failed", failed)
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

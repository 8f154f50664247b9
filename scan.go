package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/phobologic/unsafe-finder/internal/analyze"
	"github.com/phobologic/unsafe-finder/internal/lang"
	"github.com/phobologic/unsafe-finder/internal/model"
	"github.com/phobologic/unsafe-finder/internal/report"
	"github.com/phobologic/unsafe-finder/internal/walk"
)

// outcome is the result of visiting one walked path. report is nil when the
// path itself could not be walked.
type outcome struct {
	index  int
	path   string
	report *model.FileReport
	err    error
}

type scanner struct {
	lang   *lang.Language
	opts   options
	walker *walk.Walker
	out    report.Writer
	logger hclog.Logger

	files    int
	findings int
	skipped  int
}

func scan(paths []string, opts options, stdout, stderr io.Writer) error {
	logger := hclog.New(&hclog.LoggerOptions{
		Name:        "unsafe-finder",
		Level:       hclog.LevelFromString(opts.logLevel),
		Output:      stderr,
		DisableTime: true,
	})

	l := lang.Languages[lang.Rust]
	walker, err := walk.New(walk.Options{
		Exclude:   opts.exclude,
		Gitignore: opts.gitignore,
		Logger:    logger.Named("walk"),
	})
	if err != nil {
		return err
	}

	out, err := report.New(opts.format, stdout, report.Options{
		Color:   useColor(opts.color, stdout),
		Version: version,
	})
	if err != nil {
		return err
	}

	s := &scanner{lang: l, opts: opts, walker: walker, out: out, logger: logger}
	if opts.jobs > 1 {
		err = s.runConcurrent(paths)
	} else {
		err = s.runSequential(paths)
	}
	if err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	logger.Debug("scan complete", "files", s.files, "findings", s.findings, "skipped", s.skipped)
	if opts.strict && s.skipped > 0 {
		return fmt.Errorf("%d path(s) skipped", s.skipped)
	}
	return nil
}

func (s *scanner) runSequential(paths []string) error {
	a, err := analyze.New(s.lang, s.opts.maxFileSize)
	if err != nil {
		return err
	}
	return s.walker.Walk(paths, func(path string, err error) error {
		o := outcome{path: path, err: err}
		if err == nil {
			s.logger.Debug("analyzing file", "path", path)
			o.report, o.err = a.File(path)
		}
		return s.emit(o)
	})
}

// runConcurrent analyzes files on a worker pool while the walk is still in
// progress, and emits outcomes in traversal order.
func (s *scanner) runConcurrent(paths []string) error {
	type task struct {
		index int
		path  string
		err   error
	}

	analyzers := make([]*analyze.Analyzer, s.opts.jobs)
	for i := range analyzers {
		a, err := analyze.New(s.lang, s.opts.maxFileSize)
		if err != nil {
			return err
		}
		analyzers[i] = a
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	work := make(chan task, len(analyzers))
	results := make(chan outcome, len(analyzers))

	var wg sync.WaitGroup
	for _, a := range analyzers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range work {
				o := outcome{index: t.index, path: t.path, err: t.err}
				if t.err == nil {
					o.report, o.err = a.File(t.path)
				}
				select {
				case results <- o:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	var walkErr error
	go func() {
		defer close(work)
		next := 0
		walkErr = s.walker.Walk(paths, func(path string, err error) error {
			select {
			case work <- task{index: next, path: path, err: err}:
				next++
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	// Collect results in traversal order
	pending := make(map[int]outcome)
	next := 0
	var emitErr error
	for o := range results {
		if emitErr != nil {
			continue
		}
		pending[o.index] = o
		for {
			p, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++
			if err := s.emit(p); err != nil {
				emitErr = err
				cancel()
				break
			}
		}
	}

	if emitErr != nil {
		return emitErr
	}
	return walkErr
}

// emit writes one outcome. Unreadable and unparsable files keep their
// section header and are reported on the log; the scan continues.
func (s *scanner) emit(o outcome) error {
	if o.report == nil {
		s.skipped++
		s.logger.Warn("skipping path", "path", o.path, "error", o.err)
		return nil
	}

	s.files++
	if o.err != nil {
		o.report.Skipped = o.err.Error()
	}
	if err := s.out.File(o.report); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	if o.err != nil {
		s.skipped++
		s.logger.Warn("skipping file", "path", o.path, "error", o.err)
		return nil
	}
	s.findings += o.report.FindingCount()
	return nil
}

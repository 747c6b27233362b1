// Package batch imports every statement of a directory.
//
// Files are decoded and previewed concurrently, then committed one at a time
// in file name order so that a row present in two files is stored once.
package batch

import (
	"context"
	"path/filepath"
	"runtime"
	"time"

	"fjacquet/expense-import/internal/fileutils"
	"fjacquet/expense-import/internal/importer"
	"fjacquet/expense-import/internal/logging"
	"fjacquet/expense-import/internal/models"

	"golang.org/x/sync/errgroup"
)

// StatementExtension selects the files of a directory that are imported.
const StatementExtension = ".csv"

// Service is the part of importer.Service a batch needs.
type Service interface {
	Preview(ctx context.Context, owner models.OwnerID, filename string, data []byte, opts importer.PreviewOptions) (*importer.Preview, error)
	Commit(ctx context.Context, owner models.OwnerID, preview *importer.Preview, opts importer.CommitOptions) (*importer.CommitResult, error)
}

// Options tunes one batch run.
type Options struct {
	Commit            bool
	IncludeDuplicates bool
	// Concurrency bounds parallel previews; zero uses GOMAXPROCS.
	Concurrency int
	// OnFile, when set, is called once per file after it is fully handled,
	// in file name order.
	OnFile func(FileResult)
}

// FileResult is the outcome for one file. Err is set when the file could not
// be read, previewed or committed; other files are still processed.
type FileResult struct {
	Path    string
	Preview *importer.Preview
	Commit  *importer.CommitResult
	Err     error
}

// Report aggregates a batch run.
type Report struct {
	Files    []FileResult
	Duration time.Duration
}

// Totals sums the per-file counts.
type Totals struct {
	Files             int
	Failed            int
	Rows              int
	Inserted          int
	SkippedInvalid    int
	SkippedDuplicates int
}

// Totals tallies the report.
func (r *Report) Totals() Totals {
	t := Totals{Files: len(r.Files)}
	for _, f := range r.Files {
		if f.Err != nil {
			t.Failed++
		}
		if f.Preview != nil {
			t.Rows += len(f.Preview.Rows)
		}
		if f.Commit != nil {
			t.Inserted += f.Commit.Inserted()
			t.SkippedInvalid += f.Commit.SkippedInvalid
			t.SkippedDuplicates += f.Commit.SkippedDuplicates
		}
	}
	return t
}

// Importer runs directory imports.
type Importer struct {
	service Service
	logger  logging.Logger
}

// NewImporter creates an Importer over service.
func NewImporter(service Service, logger logging.Logger) *Importer {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Importer{service: service, logger: logger}
}

// Files lists the statements of dir in import order.
func (b *Importer) Files(dir string) ([]string, error) {
	return fileutils.ListFilesWithExtension(dir, StatementExtension)
}

// Run imports every statement of dir for owner. Only a missing directory or
// context cancellation fails the run; per-file failures are in the report.
func (b *Importer) Run(ctx context.Context, owner models.OwnerID, dir string, opts Options) (*Report, error) {
	start := time.Now()
	files, err := b.Files(dir)
	if err != nil {
		return nil, err
	}

	results := make([]FileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	limit := opts.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(limit)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = b.preview(gctx, owner, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range results {
		r := &results[i]
		if r.Err == nil && opts.Commit {
			r.Commit, r.Err = b.service.Commit(ctx, owner, r.Preview, importer.CommitOptions{IncludeDuplicates: opts.IncludeDuplicates})
			if r.Err != nil {
				b.logger.WithError(r.Err).Warn("Failed to commit statement", logging.F(logging.FieldFile, r.Path))
			}
		}
		if opts.OnFile != nil {
			opts.OnFile(*r)
		}
	}

	report := &Report{Files: results, Duration: time.Since(start)}
	totals := report.Totals()
	b.logger.Info("Batch import finished",
		logging.F("input_dir", dir),
		logging.F("files", totals.Files),
		logging.F("failed", totals.Failed),
		logging.F("inserted", totals.Inserted),
		logging.F(logging.FieldDuration, report.Duration.Milliseconds()))
	return report, nil
}

func (b *Importer) preview(ctx context.Context, owner models.OwnerID, path string) FileResult {
	result := FileResult{Path: path}
	data, err := fileutils.ReadFile(path)
	if err != nil {
		result.Err = err
		return result
	}
	result.Preview, result.Err = b.service.Preview(ctx, owner, filepath.Base(path), data, importer.PreviewOptions{})
	if result.Err != nil {
		b.logger.WithError(result.Err).Warn("Failed to preview statement", logging.F(logging.FieldFile, path))
	}
	return result
}

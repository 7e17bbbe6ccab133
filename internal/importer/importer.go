// Package importer runs IMPORT and EXPORT for configured address books.
//
// An import reads a book's contact files and the aggregate received from a
// device, merges them, post-processes every output file and replaces the
// book's contents with the result. Each book is processed independently.
package importer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/uncaged-coder/vcardtools/internal/batch"
	"github.com/uncaged-coder/vcardtools/internal/book"
	"github.com/uncaged-coder/vcardtools/internal/config"
	"github.com/uncaged-coder/vcardtools/internal/history"
	"github.com/uncaged-coder/vcardtools/internal/postprocess"
	"github.com/uncaged-coder/vcardtools/internal/sink"
	"github.com/uncaged-coder/vcardtools/internal/vcard"
)

// NoInputError reports that a book has no aggregate file to import.
type NoInputError struct {
	Book string
	Path string
}

func (e *NoInputError) Error() string {
	return fmt.Sprintf("no input for book %s: %s does not exist", e.Book, e.Path)
}

// Status is the outcome of one book's import.
type Status string

const (
	StatusImported  Status = "imported"
	StatusDryRun    Status = "dry-run"
	StatusSkipped   Status = "skipped"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

// Deps are the collaborators of an import. Zero values are valid: no commit,
// no journal, no logs.
type Deps struct {
	Sink    sink.Sink
	History *history.Store
	Logger  *zap.Logger
}

// Options tune one invocation.
type Options struct {
	// File replaces the book's aggregate as the imported input.
	File string
	// DryRun computes the outcome without touching the book.
	DryRun bool
	// NoCommit skips the sink even when the book enables committing.
	NoCommit bool
	// Confirm is asked before contact files are removed from the book.
	// Returning false cancels the import. Nil proceeds.
	Confirm func(book string, removed []Removal) bool
}

// Removal is a contact file an import removes from the book.
type Removal struct {
	File        string `json:"file"`
	MergedInto  string `json:"merged_into,omitempty"`
	Fingerprint string `json:"fingerprint"`
}

// Report describes one book's import.
type Report struct {
	Book      string    `json:"book"`
	Status    Status    `json:"status"`
	Input     string    `json:"input,omitempty"`
	Existing  int       `json:"existing"`
	Imported  int       `json:"imported"`
	Outputs   int       `json:"outputs"`
	Merged    int       `json:"merged"`
	Written   []string  `json:"written,omitempty"`
	Removed   []Removal `json:"removed,omitempty"`
	Committed bool      `json:"committed"`
	RunID     int64     `json:"run_id,omitempty"`
	Err       error     `json:"-"`
}

// Import merges the book's aggregate (or opts.File) into the book.
func Import(ctx context.Context, s config.BookSettings, deps Deps, opts Options) (*Report, error) {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("book", s.Name))

	input := s.Aggregate
	if opts.File != "" {
		input = opts.File
	}
	report := &Report{Book: s.Name, Input: input}
	if input == "" {
		return report, fmt.Errorf("book %s has no aggregate path configured", s.Name)
	}
	if _, err := os.Stat(input); errors.Is(err, os.ErrNotExist) {
		return report, &NoInputError{Book: s.Name, Path: input}
	}

	lock, err := history.AcquireBookLock(s.WorkDir, s.Name)
	if err != nil {
		return report, err
	}
	defer lock.Release()

	b := &book.Book{Name: s.Name, Dir: s.Dir, Ext: s.Names.Ext()}
	snap, err := b.Load()
	if err != nil {
		return report, err
	}
	existing := snap.Inputs()

	records, err := vcard.ParseFile(input)
	if err != nil {
		return report, err
	}
	imported := batch.Inputs(records, batch.Imported, input)

	res := batch.Run(existing, imported, batch.Options{Match: s.Match, Names: s.Names, Logger: log})
	report.Existing = len(existing)
	report.Imported = len(imported)
	report.Outputs = len(res.Outputs)
	report.Merged = res.Merged()

	writeOpts := writeOptions(s)
	for _, f := range batch.Plan(res, writeOpts) {
		report.Written = append(report.Written, f.Path)
	}
	report.Removed = removals(snap, res, report.Written)
	for _, r := range report.Removed {
		log.Warn("contact file will be removed", zap.String("file", r.File), zap.String("merged_into", r.MergedInto))
	}

	if opts.DryRun {
		report.Status = StatusDryRun
		return report, nil
	}
	if len(report.Removed) > 0 && opts.Confirm != nil && !opts.Confirm(s.Name, report.Removed) {
		report.Status = StatusCancelled
		return report, nil
	}

	if err := os.MkdirAll(filepath.Dir(s.Dir), 0o755); err != nil {
		return report, &batch.OutputWriteError{Path: filepath.Dir(s.Dir), Err: err}
	}
	// Staged next to the book so the final moves stay on one filesystem.
	tmp, err := os.MkdirTemp(filepath.Dir(s.Dir), "."+s.Name+".import-*")
	if err != nil {
		return report, &batch.OutputWriteError{Path: filepath.Dir(s.Dir), Err: err}
	}
	defer os.RemoveAll(tmp)

	staged := filepath.Join(tmp, s.Name)
	if _, err := batch.WriteDir(staged, res, writeOpts); err != nil {
		return report, err
	}
	if _, err := b.Replace(staged); err != nil {
		return report, &batch.OutputWriteError{Path: s.Dir, Err: err}
	}
	report.Status = StatusImported
	log.Info("imported contacts",
		zap.Int("existing", report.Existing),
		zap.Int("imported", report.Imported),
		zap.Int("outputs", report.Outputs),
		zap.Int("removed", len(report.Removed)))

	var commitErr error
	if s.Commit && !opts.NoCommit && deps.Sink != nil {
		switch err := deps.Sink.Commit(ctx, s.Dir, s.CommitMessage); {
		case err == nil:
			report.Committed = true
		case errors.Is(err, sink.ErrNothingToCommit):
		default:
			commitErr = fmt.Errorf("failed to commit book %s: %w", s.Name, err)
		}
	}

	if deps.History != nil {
		id, err := deps.History.RecordRun(ctx, historyRun(report))
		if err != nil {
			log.Error("failed to record import history", zap.Error(err))
		}
		report.RunID = id
	}
	return report, commitErr
}

// ImportAll imports every book in order. A book without input is skipped and
// a failing book does not stop the others; its error is kept in Report.Err.
func ImportAll(ctx context.Context, books []config.BookSettings, deps Deps, opts Options) []*Report {
	reports := make([]*Report, 0, len(books))
	for _, s := range books {
		report, err := Import(ctx, s, deps, opts)
		var noInput *NoInputError
		switch {
		case errors.As(err, &noInput):
			report.Status = StatusSkipped
		case err != nil:
			if report.Status == "" {
				report.Status = StatusFailed
			}
			report.Err = err
		}
		reports = append(reports, report)
	}
	return reports
}

func writeOptions(s config.BookSettings) batch.WriteOptions {
	pipeline := postprocess.Pipeline{Category: s.Category, LineEnding: s.LineEnding}
	return batch.WriteOptions{
		Encoder: vcard.Encoder{LineEnding: s.LineEnding.Sequence(), FoldWidth: vcard.DefaultFoldWidth},
		Layout:  batch.LayoutMerge,
		Names:   s.Names,
		Transform: func(_ string, data []byte) []byte {
			return pipeline.Apply(data)
		},
	}
}

// removals lists the snapshot files that no output will overwrite, with the
// output that absorbed each file's records.
func removals(snap *book.Snapshot, res *batch.Result, written []string) []Removal {
	kept := make(map[string]bool, len(written))
	for _, w := range written {
		kept[w] = true
	}
	absorbedBy := make(map[string]string)
	for _, out := range res.Outputs {
		for _, src := range out.Sources {
			if src.Source == batch.Existing {
				if _, ok := absorbedBy[src.Origin]; !ok {
					absorbedBy[src.Origin] = out.Name
				}
			}
		}
	}

	var out []Removal
	for _, c := range snap.Contacts {
		if kept[c.File] {
			continue
		}
		out = append(out, Removal{
			File:        c.File,
			MergedInto:  absorbedBy[c.File],
			Fingerprint: history.Fingerprint(c.Content),
		})
	}
	return out
}

func historyRun(r *Report) history.Run {
	run := history.Run{
		Book:      r.Book,
		Input:     r.Input,
		Existing:  r.Existing,
		Imported:  r.Imported,
		Outputs:   r.Outputs,
		Committed: r.Committed,
	}
	for _, rm := range r.Removed {
		run.Removed = append(run.Removed, history.Removal{
			File:        rm.File,
			MergedInto:  rm.MergedInto,
			Fingerprint: rm.Fingerprint,
		})
	}
	return run
}

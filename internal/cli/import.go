package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/uncaged-coder/vcardtools/internal/history"
	"github.com/uncaged-coder/vcardtools/internal/importer"
	"github.com/uncaged-coder/vcardtools/internal/sink"
	"github.com/uncaged-coder/vcardtools/internal/ui"
)

var (
	importFile     string
	importDryRun   bool
	importNoCommit bool
	importYes      bool
)

// importResult is one book's report as it appears in --json output.
type importResult struct {
	*importer.Report
	Error *ErrorInfo `json:"error,omitempty"`
}

var importCmd = &cobra.Command{
	Use:   "import [book...]",
	Short: "Merge device exports into address books",
	Long: `Merge each book's aggregate file (<work_dir>/<book>.vcf) into the book.

Existing contact files and the imported records are matched, duplicates are
merged, every contact is written to its own file and the book is committed.
Books without an aggregate are skipped. Contact files absorbed by a merge are
removed from the book and recorded in the history; see 'vcardtools removed'.

Examples:
  vcardtools import
  vcardtools import perso --dry-run
  vcardtools import perso --file ~/Downloads/contacts.vcf`,
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	books, err := bookSettings(args)
	if err != nil {
		return handleError(errorCode(err), err, suggestionFor(err))
	}
	if importFile != "" && len(books) != 1 {
		return handleErrorMsg(ErrInvalidInput, "--file requires exactly one book", "Name the book to import into: vcardtools import <book> --file FILE")
	}

	deps := importer.Deps{Logger: logger}
	if !importDryRun {
		store, err := history.Open(getConfig().WorkDir)
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		defer store.Close()
		deps.History = store
		if !importNoCommit {
			deps.Sink = &sink.Git{Binary: books[0].GitBinary, Logger: logger}
		}
	}

	opts := importer.Options{
		File:     importFile,
		DryRun:   importDryRun,
		NoCommit: importNoCommit,
		Confirm:  confirmRemovals,
	}

	ctx := cmd.Context()
	// A single named book reports a missing aggregate as an error instead of
	// skipping it.
	if len(args) == 1 {
		report, err := importer.Import(ctx, books[0], deps, opts)
		if err != nil {
			report.Err = err
			if report.Status == "" {
				report.Status = importer.StatusFailed
			}
			if !isJSONOutput() && report.Status == importer.StatusImported {
				printImportReport(report)
			}
			return handleErrorWithDetails(errorCode(err), err.Error(), suggestionFor(err), importResult{Report: report})
		}
		return outputImport([]*importer.Report{report})
	}
	return outputImport(importer.ImportAll(ctx, books, deps, opts))
}

// confirmRemovals asks before an import removes contact files. Runs without
// a terminal and runs with --yes proceed; the history keeps what was removed.
func confirmRemovals(bookName string, removed []importer.Removal) bool {
	if importYes || !shouldPromptForConfirm() {
		return true
	}
	fmt.Println(ui.Warningf("Importing into %s will remove %s:", bookName, ui.Count(len(removed), "contact file", "contact files")))
	for _, r := range removed {
		fmt.Println("  " + describeRemoval(r))
	}
	return promptForConfirm("Continue?")
}

func describeRemoval(r importer.Removal) string {
	if r.MergedInto == "" {
		return r.File
	}
	return fmt.Sprintf("%s (merged into %s)", r.File, r.MergedInto)
}

func importWarnings(reports []*importer.Report) []Warning {
	var warnings []Warning
	for _, r := range reports {
		switch r.Status {
		case importer.StatusSkipped:
			warnings = append(warnings, Warning{
				Code:    WarnBookSkipped,
				Message: fmt.Sprintf("no aggregate to import at %s", r.Input),
				Book:    r.Book,
			})
		case importer.StatusCancelled:
			warnings = append(warnings, Warning{
				Code:    WarnImportCancelled,
				Message: "import cancelled; the book was not changed",
				Book:    r.Book,
			})
		case importer.StatusImported, importer.StatusDryRun:
			for _, rm := range r.Removed {
				warnings = append(warnings, Warning{
					Code:    WarnContactRemoved,
					Message: describeRemoval(rm),
					Book:    r.Book,
					File:    rm.File,
				})
			}
		}
	}
	return warnings
}

func outputImport(reports []*importer.Report) error {
	var failed []*importer.Report
	results := make([]importResult, 0, len(reports))
	for _, r := range reports {
		res := importResult{Report: r}
		if r.Err != nil {
			failed = append(failed, r)
			res.Error = &ErrorInfo{Code: errorCode(r.Err), Message: r.Err.Error(), Suggestion: suggestionFor(r.Err)}
		}
		results = append(results, res)
	}

	if isJSONOutput() {
		data := map[string]interface{}{"books": results}
		resp := Response{
			OK:       len(failed) == 0,
			Data:     data,
			Warnings: importWarnings(reports),
			Meta:     &Meta{Count: len(results)},
		}
		if len(failed) > 0 {
			code := ErrImportFailed
			if len(failed) == 1 {
				code = errorCode(failed[0].Err)
			}
			resp.Error = &ErrorInfo{
				Code:    code,
				Message: fmt.Sprintf("%d of %d books failed", len(failed), len(reports)),
				Details: failedBooks(failed),
			}
		}
		outputJSON(resp)
		return nil
	}

	for _, r := range reports {
		printImportReport(r)
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d books failed", len(failed), len(reports))
	}
	return nil
}

func failedBooks(failed []*importer.Report) map[string]string {
	out := make(map[string]string, len(failed))
	for _, r := range failed {
		out[r.Book] = r.Err.Error()
	}
	return out
}

func printImportReport(r *importer.Report) {
	summary := fmt.Sprintf("%s from %d existing + %d imported",
		ui.Count(r.Outputs, "contact", "contacts"), r.Existing, r.Imported)
	if r.Merged > 0 {
		summary += fmt.Sprintf(" (%d merged)", r.Merged)
	}

	switch r.Status {
	case importer.StatusImported:
		var notes []string
		if r.Committed {
			notes = append(notes, "committed")
		}
		if r.Err != nil {
			notes = append(notes, "commit failed")
		}
		line := fmt.Sprintf("%s: %s", ui.Header(r.Book), summary)
		if len(notes) > 0 {
			line += ", " + strings.Join(notes, ", ")
		}
		fmt.Println(ui.Success(line))
	case importer.StatusDryRun:
		fmt.Println(ui.Infof("%s: would write %s", ui.Header(r.Book), summary))
	case importer.StatusSkipped:
		fmt.Println(ui.Skippedf("%s: skipped, no input at %s", ui.Header(r.Book), ui.FilePath(r.Input)))
	case importer.StatusCancelled:
		fmt.Println(ui.Skippedf("%s: cancelled", ui.Header(r.Book)))
	case importer.StatusFailed:
		fmt.Println(ui.Errorf("%s: %v", ui.Header(r.Book), r.Err))
		return
	}

	if r.Status == importer.StatusImported || r.Status == importer.StatusDryRun {
		verb := "removed"
		if r.Status == importer.StatusDryRun {
			verb = "would remove"
		}
		for _, rm := range r.Removed {
			fmt.Println("  " + ui.Warningf("%s %s", verb, describeRemoval(rm)))
		}
	}
	if r.Err != nil && r.Status == importer.StatusImported {
		fmt.Println("  " + ui.Hint(r.Err.Error()))
	}
}

func init() {
	importCmd.Flags().StringVar(&importFile, "file", "", "Import this file instead of the book's aggregate (one book only)")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Show what would change without touching the book")
	importCmd.Flags().BoolVar(&importNoCommit, "no-commit", false, "Do not commit the book after importing")
	importCmd.Flags().BoolVarP(&importYes, "yes", "y", false, "Remove absorbed contact files without asking")
	rootCmd.AddCommand(importCmd)
}

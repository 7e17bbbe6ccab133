package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/uncaged-coder/vcardtools/internal/history"
	"github.com/uncaged-coder/vcardtools/internal/ui"
)

var (
	removedLimit    int
	removedMarkdown bool
)

type removedEntry struct {
	RunID       int64     `json:"run_id"`
	File        string    `json:"file"`
	MergedInto  string    `json:"merged_into,omitempty"`
	Fingerprint string    `json:"fingerprint"`
	RemovedAt   time.Time `json:"removed_at"`
}

var removedCmd = &cobra.Command{
	Use:   "removed <book>",
	Short: "List contact files removed by previous imports",
	Long: `List the contact files that imports removed from a book, newest first,
with the file each one was merged into. Removed files can be restored from the
book's git history.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		books, err := bookSettings(args)
		if err != nil {
			return handleError(errorCode(err), err, suggestionFor(err))
		}
		name := books[0].Name

		store, err := history.Open(getConfig().WorkDir)
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		defer store.Close()

		removals, err := store.Removed(cmd.Context(), name, removedLimit)
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}

		entries := make([]removedEntry, 0, len(removals))
		for _, r := range removals {
			entries = append(entries, removedEntry{
				RunID:       r.RunID,
				File:        r.File,
				MergedInto:  r.MergedInto,
				Fingerprint: r.Fingerprint,
				RemovedAt:   r.RemovedAt,
			})
		}

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{"book": name, "removed": entries}, &Meta{Count: len(entries)})
			return nil
		}

		if len(entries) == 0 {
			fmt.Println(ui.Hint(fmt.Sprintf("No contact files removed from %s.", name)))
			return nil
		}

		if removedMarkdown {
			md := removedReport(name, entries)
			display := ui.NewDisplayContext()
			if !display.IsTTY {
				fmt.Print(md)
				return nil
			}
			rendered, err := ui.RenderMarkdown(md, display.MarkdownWidth())
			if err != nil {
				return handleError(ErrInternal, err, "")
			}
			fmt.Print(rendered)
			return nil
		}

		table := ui.NewTable("REMOVED", "FILE", "MERGED INTO", "RUN")
		for _, e := range entries {
			into := e.MergedInto
			if into == "" {
				into = ui.Hint("-")
			}
			table.AddRow(e.RemovedAt.Local().Format("2006-01-02 15:04"), e.File, into, fmt.Sprintf("#%d", e.RunID))
		}
		fmt.Print(table.String())
		return nil
	},
}

// removedReport renders entries as a markdown document.
func removedReport(book string, entries []removedEntry) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Contacts removed from %s\n\n", book)
	sb.WriteString("| Removed | File | Merged into | Fingerprint |\n")
	sb.WriteString("|---|---|---|---|\n")
	for _, e := range entries {
		into := e.MergedInto
		if into == "" {
			into = "-"
		}
		fmt.Fprintf(&sb, "| %s | %s | %s | `%s` |\n",
			e.RemovedAt.UTC().Format("2006-01-02 15:04"),
			markdownCell(e.File),
			markdownCell(into),
			shortFingerprint(e.Fingerprint))
	}
	return sb.String()
}

func markdownCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// shortFingerprint keeps the algorithm prefix and the first 12 hex digits.
func shortFingerprint(fp string) string {
	algo, sum, ok := strings.Cut(fp, ":")
	if !ok || len(sum) <= 12 {
		return fp
	}
	return algo + ":" + sum[:12]
}

func init() {
	removedCmd.Flags().IntVar(&removedLimit, "limit", 50, "Maximum number of entries (0 for all)")
	removedCmd.Flags().BoolVar(&removedMarkdown, "markdown", false, "Print a markdown report")
	rootCmd.AddCommand(removedCmd)
}

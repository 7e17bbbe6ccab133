package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/uncaged-coder/vcardtools/internal/book"
	"github.com/uncaged-coder/vcardtools/internal/config"
	"github.com/uncaged-coder/vcardtools/internal/ui"
)

// bookSettings resolves the named books, or every configured book when names
// is empty. Duplicate names are resolved once.
func bookSettings(names []string) ([]config.BookSettings, error) {
	if cfgErr != nil {
		return nil, &configInvalidError{Err: cfgErr}
	}
	c := getConfig()
	if err := c.Validate(); err != nil {
		return nil, &configInvalidError{Err: err}
	}
	if len(names) == 0 {
		names = c.BookNames()
		if len(names) == 0 {
			return nil, &configInvalidError{Err: errors.New("no books configured")}
		}
	}

	seen := make(map[string]bool, len(names))
	var out []config.BookSettings
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		if !c.HasBook(name) {
			return nil, &bookNotFoundError{Book: name}
		}
		s, err := c.Book(name)
		if err != nil {
			return nil, &configInvalidError{Err: err}
		}
		out = append(out, s)
	}
	return out, nil
}

type bookInfo struct {
	Name            string `json:"name"`
	Dir             string `json:"dir"`
	Aggregate       string `json:"aggregate"`
	PendingImport   bool   `json:"pending_import"`
	Contacts        int    `json:"contacts"`
	Category        string `json:"category"`
	MatchAttributes string `json:"match_attributes"`
	LineEnding      string `json:"line_ending"`
	Commit          bool   `json:"commit"`
}

var booksCmd = &cobra.Command{
	Use:   "books",
	Short: "List configured address books",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		books, err := bookSettings(nil)
		if err != nil {
			return handleError(errorCode(err), err, suggestionFor(err))
		}

		infos := make([]bookInfo, 0, len(books))
		for _, s := range books {
			files, err := book.ContactFiles(s.Dir, s.Names.Ext())
			if err != nil {
				return handleError(ErrInternal, fmt.Errorf("failed to list book %s: %w", s.Name, err), "")
			}
			_, statErr := os.Stat(s.Aggregate)
			infos = append(infos, bookInfo{
				Name:            s.Name,
				Dir:             s.Dir,
				Aggregate:       s.Aggregate,
				PendingImport:   statErr == nil,
				Contacts:        len(files),
				Category:        s.Category,
				MatchAttributes: s.Match.Attributes.String(),
				LineEnding:      string(s.LineEnding),
				Commit:          s.Commit,
			})
		}

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{"books": infos}, &Meta{Count: len(infos)})
			return nil
		}

		table := ui.NewTable("BOOK", "CONTACTS", "CATEGORY", "MATCH", "DIRECTORY")
		for _, info := range infos {
			name := info.Name
			if info.PendingImport {
				name += " *"
			}
			table.AddRow(name, strconv.Itoa(info.Contacts), info.Category, info.MatchAttributes, ui.FilePath(info.Dir))
		}
		fmt.Print(table.String())
		for _, info := range infos {
			if info.PendingImport {
				fmt.Println(ui.Hint("* an aggregate is waiting in the work directory; run 'vcardtools import'"))
				break
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(booksCmd)
}

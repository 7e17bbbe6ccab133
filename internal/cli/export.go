package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/uncaged-coder/vcardtools/internal/importer"
	"github.com/uncaged-coder/vcardtools/internal/ui"
)

type exportResult struct {
	*importer.ExportReport
	Error *ErrorInfo `json:"error,omitempty"`
}

var exportCmd = &cobra.Command{
	Use:   "export [book...]",
	Short: "Concatenate address books into aggregate files",
	Long: `Write every contact file of each book into <work_dir>/<book>.vcf, ready to
be sent to a device. Defaults to all configured books.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		books, err := bookSettings(args)
		if err != nil {
			return handleError(errorCode(err), err, suggestionFor(err))
		}

		reports := importer.ExportAll(books, logger)
		results := make([]exportResult, 0, len(reports))
		failed := make(map[string]string)
		for _, r := range reports {
			res := exportResult{ExportReport: r}
			if r.Err != nil {
				failed[r.Book] = r.Err.Error()
				res.Error = &ErrorInfo{Code: ErrExportFailed, Message: r.Err.Error()}
			}
			results = append(results, res)
		}

		if isJSONOutput() {
			resp := Response{
				OK:   len(failed) == 0,
				Data: map[string]interface{}{"books": results},
				Meta: &Meta{Count: len(results)},
			}
			if len(failed) > 0 {
				resp.Error = &ErrorInfo{
					Code:    ErrExportFailed,
					Message: fmt.Sprintf("%d of %d books failed", len(failed), len(reports)),
					Details: failed,
				}
			}
			outputJSON(resp)
			return nil
		}

		for _, r := range reports {
			if r.Err != nil {
				fmt.Println(ui.Errorf("%s: %v", ui.Header(r.Book), r.Err))
				continue
			}
			fmt.Println(ui.Successf("%s: %s into %s", ui.Header(r.Book), ui.Count(r.Files, "contact file", "contact files"), ui.FilePath(r.Path)))
		}
		if len(failed) > 0 {
			return fmt.Errorf("%d of %d books failed", len(failed), len(reports))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

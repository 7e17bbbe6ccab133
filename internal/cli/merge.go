package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/uncaged-coder/vcardtools/internal/batch"
	"github.com/uncaged-coder/vcardtools/internal/config"
	"github.com/uncaged-coder/vcardtools/internal/match"
	"github.com/uncaged-coder/vcardtools/internal/postprocess"
	"github.com/uncaged-coder/vcardtools/internal/ui"
	"github.com/uncaged-coder/vcardtools/internal/vcard"
)

var (
	mergeAttributes  []string
	mergeExtension   string
	mergeGroup       bool
	mergeNoSpace     bool
	mergeLowerCase   bool
	mergeReplacement string
)

type mergeResult struct {
	Dest    string   `json:"dest"`
	Layout  string   `json:"layout"`
	Inputs  int      `json:"inputs"`
	Outputs int      `json:"outputs"`
	Merged  int      `json:"merged"`
	Files   []string `json:"files"`
}

var mergeCmd = &cobra.Command{
	Use:   "merge DESTDIR FILES...",
	Short: "Merge vCard files into a new directory",
	Long: `Read every record from FILES, merge the records that match and write one
file per contact into DESTDIR, which must not exist yet.

With --group, matching records are not merged: each set of matches becomes a
directory holding one file per original record.

Examples:
  vcardtools merge out/ phone.vcf laptop.vcf
  vcardtools merge out/ all.vcf -a email -a tel --group`,
	Args: cobra.MinimumNArgs(2),
	RunE: runMerge,
}

func runMerge(cmd *cobra.Command, args []string) error {
	dest, files := args[0], args[1:]

	s, err := mergeSettings(cmd)
	if err != nil {
		return handleError(ErrConfigInvalid, err, "")
	}

	if _, err := os.Stat(dest); err == nil {
		return handleErrorMsg(ErrDestinationExists,
			fmt.Sprintf("directory '%s' exists; refusing to overwrite it", dest),
			"Choose a destination directory that does not exist yet")
	}
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			return handleErrorMsg(ErrFileNotFound, fmt.Sprintf("file '%s' doesn't exist", f), "")
		}
		if !info.Mode().IsRegular() {
			return handleErrorMsg(ErrInvalidInput, fmt.Sprintf("'%s' is not a regular file", f), "")
		}
	}

	var inputs []batch.Input
	for _, f := range files {
		records, err := vcard.ParseFile(f)
		if err != nil {
			return handleError(errorCode(err), err, suggestionFor(err))
		}
		logger.Debug("read vcards", zap.String("file", f), zap.Int("records", len(records)))
		inputs = append(inputs, batch.Inputs(records, batch.Imported, f)...)
	}

	res := batch.Run(nil, inputs, batch.Options{Match: s.Match, Names: s.Names, Logger: logger})

	layout := batch.LayoutMerge
	if mergeGroup {
		layout = batch.LayoutGroup
	}
	pipeline := postprocess.Pipeline{LineEnding: s.LineEnding}
	written, err := batch.WriteDir(dest, res, batch.WriteOptions{
		Encoder: vcard.Encoder{LineEnding: s.LineEnding.Sequence(), FoldWidth: vcard.DefaultFoldWidth},
		Layout:  layout,
		Names:   s.Names,
		Transform: func(_ string, data []byte) []byte {
			return pipeline.Apply(data)
		},
	})
	if err != nil {
		return handleError(errorCode(err), err, suggestionFor(err))
	}

	result := mergeResult{
		Dest:    dest,
		Layout:  string(layout),
		Inputs:  res.Inputs,
		Outputs: len(res.Outputs),
		Merged:  res.Merged(),
		Files:   written,
	}
	if isJSONOutput() {
		outputSuccess(result, &Meta{Count: len(written)})
		return nil
	}

	fmt.Println(ui.Successf("Wrote %s from %s into %s",
		ui.Count(len(written), "file", "files"),
		ui.Count(res.Inputs, "record", "records"),
		ui.FilePath(dest)))
	if result.Merged > 0 {
		fmt.Println(ui.Hint(fmt.Sprintf("  %d contacts combine several records", result.Merged)))
	}
	return nil
}

// mergeSettings starts from the config's defaults, when a config is
// available, and applies the command-line flags on top.
func mergeSettings(cmd *cobra.Command) (config.BookSettings, error) {
	if cfgErr != nil {
		return config.BookSettings{}, cfgErr
	}
	s, err := getConfig().Defaults()
	if err != nil {
		return config.BookSettings{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("match-attributes") {
		attrs, err := match.ParseAttributes(mergeAttributes)
		if err != nil {
			return config.BookSettings{}, err
		}
		s.Match.Attributes = attrs
	}
	if flags.Changed("vcard-extension") {
		if mergeExtension == "" {
			return config.BookSettings{}, errors.New("the vcard extension cannot be empty")
		}
		s.Names.Extension = mergeExtension
	}
	if mergeNoSpace {
		s.Names.NoSpace = true
	}
	if mergeLowerCase {
		s.Names.LowerCase = true
	}
	if flags.Changed("rep-invalid-fn-char-by") {
		s.Names.Replacement = mergeReplacement
	}
	return s, nil
}

func init() {
	mergeCmd.Flags().StringSliceVarP(&mergeAttributes, "match-attributes", "a", nil, "Match on these attributes: email, names, tel, mobiles (repeatable)")
	mergeCmd.Flags().StringVarP(&mergeExtension, "vcard-extension", "e", ".vcf", "Extension of the written files")
	mergeCmd.Flags().BoolVarP(&mergeGroup, "group", "g", false, "Group matching records into a directory instead of merging them")
	mergeCmd.Flags().BoolVar(&mergeNoSpace, "no-space-in-filename", false, "Replace spaces in file names")
	mergeCmd.Flags().BoolVar(&mergeLowerCase, "force-lower-case-in-filename", false, "Lower-case file names")
	mergeCmd.Flags().StringVar(&mergeReplacement, "rep-invalid-fn-char-by", "_", "Replacement for characters that are invalid in file names")
	rootCmd.AddCommand(mergeCmd)
}

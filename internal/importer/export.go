package importer

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/uncaged-coder/vcardtools/internal/book"
	"github.com/uncaged-coder/vcardtools/internal/config"
)

// ExportReport describes one book's export.
type ExportReport struct {
	Book  string `json:"book"`
	Path  string `json:"path"`
	Files int    `json:"files"`
	Err   error  `json:"-"`
}

// Export concatenates the book's contact files into its aggregate file.
func Export(s config.BookSettings, log *zap.Logger) (*ExportReport, error) {
	if log == nil {
		log = zap.NewNop()
	}
	report := &ExportReport{Book: s.Name, Path: s.Aggregate}
	if s.Aggregate == "" {
		return report, fmt.Errorf("book %s has no aggregate path configured", s.Name)
	}

	b := &book.Book{Name: s.Name, Dir: s.Dir, Ext: s.Names.Ext()}
	n, err := b.Export(s.Aggregate, s.LineEnding)
	if err != nil {
		return report, err
	}
	report.Files = n
	log.Info("exported book", zap.String("book", s.Name), zap.String("path", s.Aggregate), zap.Int("files", n))
	return report, nil
}

// ExportAll exports every book; a failing book does not stop the others.
func ExportAll(books []config.BookSettings, log *zap.Logger) []*ExportReport {
	reports := make([]*ExportReport, 0, len(books))
	for _, s := range books {
		report, err := Export(s, log)
		report.Err = err
		reports = append(reports, report)
	}
	return reports
}

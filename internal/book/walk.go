package book

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/uncaged-coder/vcardtools/internal/filenames"
	"github.com/uncaged-coder/vcardtools/internal/vcard"
)

// WalkResult is one contact file visited by WalkContacts.
type WalkResult struct {
	Path         string
	RelativePath string
	Content      []byte
	Records      []vcard.Record
	Error        error
}

// WalkContacts calls handler for every contact file under dir, in lexical
// order. It skips hidden directories and files without the given extension
// (compared case-insensitively). Read and parse failures are passed to the
// handler rather than aborting the walk.
func WalkContacts(dir, ext string, handler func(result WalkResult) error) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		relativePath, _ := filepath.Rel(dir, path)
		if err != nil {
			return handler(WalkResult{Path: path, RelativePath: relativePath, Error: err})
		}

		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") || !strings.EqualFold(filepath.Ext(path), ext) {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return handler(WalkResult{Path: path, RelativePath: relativePath, Error: err})
		}

		records, err := vcard.ParseString(string(content))
		if err != nil {
			setSource(err, path)
		}
		return handler(WalkResult{
			Path:         path,
			RelativePath: filepath.ToSlash(relativePath),
			Content:      content,
			Records:      records,
			Error:        err,
		})
	})
}

// ContactFiles lists the relative, slash-separated paths of the contact files
// in dir, in filenames.Less order. A missing dir has no contacts.
func ContactFiles(dir, ext string) ([]string, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") || !strings.EqualFold(filepath.Ext(path), ext) {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool { return filenames.Less(files[i], files[j]) })
	return files, nil
}

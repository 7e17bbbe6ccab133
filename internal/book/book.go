// Package book reads and replaces address book directories: one vCard file
// per contact, kept under version control by the caller.
package book

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/uncaged-coder/vcardtools/internal/atomicfile"
	"github.com/uncaged-coder/vcardtools/internal/batch"
	"github.com/uncaged-coder/vcardtools/internal/filenames"
	"github.com/uncaged-coder/vcardtools/internal/postprocess"
	"github.com/uncaged-coder/vcardtools/internal/vcard"
)

// Book is an address book directory.
type Book struct {
	Name string
	Dir  string
	// Ext is the contact file extension, including the dot.
	Ext string
}

// Contact is one existing contact file and what it parsed to.
type Contact struct {
	// File is relative to the book directory, slash-separated.
	File    string
	Content []byte
	Records []vcard.Record
}

// Snapshot is the parsed content of a book at one point in time.
type Snapshot struct {
	Contacts []Contact
}

// Inputs returns the snapshot's records tagged as existing, with each
// record's origin set to its file.
func (s *Snapshot) Inputs() []batch.Input {
	var out []batch.Input
	for _, c := range s.Contacts {
		out = append(out, batch.Inputs(c.Records, batch.Existing, c.File)...)
	}
	return out
}

// Files returns the snapshot's contact files in order.
func (s *Snapshot) Files() []string {
	files := make([]string, len(s.Contacts))
	for i, c := range s.Contacts {
		files[i] = c.File
	}
	return files
}

// Lookup returns the contact stored in file.
func (s *Snapshot) Lookup(file string) (Contact, bool) {
	for _, c := range s.Contacts {
		if c.File == file {
			return c, true
		}
	}
	return Contact{}, false
}

// Load reads and parses every contact file, in filenames.Less order. The
// first malformed file aborts the load with a *vcard.MalformedRecordError
// naming it. A missing directory is an empty book.
func (b *Book) Load() (*Snapshot, error) {
	snap := &Snapshot{}
	if _, err := os.Stat(b.Dir); os.IsNotExist(err) {
		return snap, nil
	}

	err := WalkContacts(b.Dir, b.Ext, func(result WalkResult) error {
		if result.Error != nil {
			return result.Error
		}
		snap.Contacts = append(snap.Contacts, Contact{
			File:    result.RelativePath,
			Content: result.Content,
			Records: result.Records,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load book %s: %w", b.Name, err)
	}
	sort.SliceStable(snap.Contacts, func(i, j int) bool {
		return filenames.Less(snap.Contacts[i].File, snap.Contacts[j].File)
	})
	return snap, nil
}

// Export concatenates the book's contact files, in file name order, into dest
// with the given line ending. Each file is terminated by a line break. dest
// is replaced atomically. Returns the number of files exported.
func (b *Book) Export(dest string, lineEnding postprocess.LineEnding) (int, error) {
	files, err := ContactFiles(b.Dir, b.Ext)
	if err != nil {
		return 0, fmt.Errorf("failed to list book %s: %w", b.Name, err)
	}

	var buf bytes.Buffer
	for _, f := range files {
		data, err := os.ReadFile(filepath.Join(b.Dir, filepath.FromSlash(f)))
		if err != nil {
			return 0, fmt.Errorf("failed to read %s: %w", f, err)
		}
		buf.Write(data)
		if len(data) > 0 && data[len(data)-1] != '\n' {
			buf.WriteByte('\n')
		}
	}

	out := postprocess.NormalizeLineEndings(buf.String(), lineEnding)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", filepath.Dir(dest), err)
	}
	if err := atomicfile.WriteFile(dest, []byte(out), 0o644); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return len(files), nil
}

// rename is swapped in tests.
var rename = os.Rename

// Replace makes the book's contact files match the flat directory staged.
// Contact files absent from staged are deleted, then every staged file is
// moved in, overwriting files of the same name. Files that are not contact
// files (book.yaml, dot files) are left alone. The files being deleted or
// overwritten are first moved aside next to staged; if any step fails they
// are restored and the book is left as it was. staged is removed afterwards.
// Returns the deleted files, relative to the book directory.
func (b *Book) Replace(staged string) ([]string, error) {
	incoming, err := ContactFiles(staged, b.Ext)
	if err != nil {
		return nil, fmt.Errorf("failed to list staged contacts: %w", err)
	}
	keep := make(map[string]bool, len(incoming))
	for _, f := range incoming {
		keep[f] = true
	}

	current, err := ContactFiles(b.Dir, b.Ext)
	if err != nil {
		return nil, fmt.Errorf("failed to list book %s: %w", b.Name, err)
	}

	backup := filepath.Clean(staged) + ".previous"
	if err := os.RemoveAll(backup); err != nil {
		return nil, fmt.Errorf("failed to clear %s: %w", backup, err)
	}
	tx := &replacement{book: b.Dir, backup: backup}

	var removed []string
	for _, f := range current {
		if keep[f] {
			continue
		}
		if err := tx.moveAside(f); err != nil {
			return nil, tx.rollback(fmt.Errorf("failed to remove %s: %w", f, err))
		}
		removed = append(removed, f)
	}

	if err := os.MkdirAll(b.Dir, 0o755); err != nil {
		return nil, tx.rollback(fmt.Errorf("failed to create %s: %w", b.Dir, err))
	}
	for _, f := range incoming {
		dst := filepath.Join(b.Dir, filepath.FromSlash(f))
		if _, err := os.Lstat(dst); err == nil {
			if err := tx.moveAside(f); err != nil {
				return nil, tx.rollback(fmt.Errorf("failed to replace %s: %w", f, err))
			}
		}
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return nil, tx.rollback(err)
		}
		if err := rename(filepath.Join(staged, filepath.FromSlash(f)), dst); err != nil {
			return nil, tx.rollback(fmt.Errorf("failed to move %s into %s: %w", f, b.Name, err))
		}
		tx.placed = append(tx.placed, f)
	}

	if err := os.RemoveAll(backup); err != nil {
		return removed, fmt.Errorf("failed to clean up %s: %w", backup, err)
	}
	if err := os.RemoveAll(staged); err != nil {
		return removed, fmt.Errorf("failed to clean up %s: %w", staged, err)
	}
	return removed, nil
}

// replacement tracks the moves made by Replace so they can be undone.
type replacement struct {
	book   string
	backup string
	aside  []string
	placed []string
}

func (r *replacement) moveAside(f string) error {
	src := filepath.Join(r.book, filepath.FromSlash(f))
	dst := filepath.Join(r.backup, filepath.FromSlash(f))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if err := rename(src, dst); err != nil {
		return err
	}
	r.aside = append(r.aside, f)
	return nil
}

// rollback removes placed files and restores those moved aside. Restore
// failures are joined to cause and the backup is left in place; past that
// point the book's version history is the way back.
func (r *replacement) rollback(cause error) error {
	errs := []error{cause}
	for _, f := range r.placed {
		if err := os.Remove(filepath.Join(r.book, filepath.FromSlash(f))); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	restored := true
	for _, f := range r.aside {
		if err := os.Rename(filepath.Join(r.backup, filepath.FromSlash(f)), filepath.Join(r.book, filepath.FromSlash(f))); err != nil {
			errs = append(errs, fmt.Errorf("failed to restore %s: %w", f, err))
			restored = false
		}
	}
	if restored {
		os.RemoveAll(r.backup)
	}
	return errors.Join(errs...)
}

func setSource(err error, path string) {
	var malformed *vcard.MalformedRecordError
	if errors.As(err, &malformed) && malformed.Source == "" {
		malformed.Source = path
	}
}

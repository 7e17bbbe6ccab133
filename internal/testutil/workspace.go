// Package testutil provides reusable test utilities for vcardtools integration tests.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// TestWorkspace is a temporary contacts root, work directory and config file.
type TestWorkspace struct {
	// Root holds contacts/, work/ and config.toml.
	Root         string
	ContactsRoot string
	WorkDir      string
	ConfigPath   string

	t        *testing.T
	books    []string
	files    map[string]string
	extraCfg string
}

// NewTestWorkspace creates a new test workspace builder.
// Call Build() to create the actual directories.
func NewTestWorkspace(t *testing.T) *TestWorkspace {
	t.Helper()
	return &TestWorkspace{
		t:     t,
		files: make(map[string]string),
	}
}

// WithBook configures a book, created empty unless contacts are added.
func (w *TestWorkspace) WithBook(name string) *TestWorkspace {
	for _, b := range w.books {
		if b == name {
			return w
		}
	}
	w.books = append(w.books, name)
	return w
}

// WithContact adds a contact file to a book, configuring the book if needed.
func (w *TestWorkspace) WithContact(book, file, content string) *TestWorkspace {
	w.WithBook(book)
	w.files[filepath.Join("contacts", book, file)] = content
	return w
}

// WithBookYAML sets the book.yaml content for a book.
func (w *TestWorkspace) WithBookYAML(book, yaml string) *TestWorkspace {
	w.WithBook(book)
	w.files[filepath.Join("contacts", book, "book.yaml")] = yaml
	return w
}

// WithAggregate writes the device export for a book: work/<book>.vcf.
func (w *TestWorkspace) WithAggregate(book, content string) *TestWorkspace {
	w.WithBook(book)
	w.files[filepath.Join("work", book+".vcf")] = content
	return w
}

// WithConfig appends raw TOML to the generated config.toml.
func (w *TestWorkspace) WithConfig(toml string) *TestWorkspace {
	w.extraCfg += toml + "\n"
	return w
}

// Build creates the workspace and writes config.toml with git commits
// disabled. Returns the TestWorkspace for method chaining.
func (w *TestWorkspace) Build() *TestWorkspace {
	w.t.Helper()

	w.Root = w.t.TempDir()
	w.ContactsRoot = filepath.Join(w.Root, "contacts")
	w.WorkDir = filepath.Join(w.Root, "work")
	w.ConfigPath = filepath.Join(w.Root, "config.toml")

	for _, dir := range []string{w.ContactsRoot, w.WorkDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			w.t.Fatalf("failed to create directory %s: %v", dir, err)
		}
	}
	for _, b := range w.books {
		if err := os.MkdirAll(filepath.Join(w.ContactsRoot, b), 0755); err != nil {
			w.t.Fatalf("failed to create book %s: %v", b, err)
		}
	}

	quoted := make([]string, len(w.books))
	for i, b := range w.books {
		quoted[i] = fmt.Sprintf("%q", b)
	}
	cfg := fmt.Sprintf("work_dir = %q\ncontacts_root = %q\nbooks = [%s]\n",
		w.WorkDir, w.ContactsRoot, strings.Join(quoted, ", "))
	if !strings.Contains(w.extraCfg, "[git]") {
		cfg += "\n[git]\nenabled = false\n"
	}
	cfg += w.extraCfg
	w.writeFile("config.toml", cfg)

	for path, content := range w.files {
		w.writeFile(path, content)
	}

	return w
}

// writeFile writes a file below Root, creating directories as needed.
func (w *TestWorkspace) writeFile(relPath, content string) {
	w.t.Helper()
	fullPath := filepath.Join(w.Root, relPath)

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		w.t.Fatalf("failed to create directory %s: %v", dir, err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		w.t.Fatalf("failed to write file %s: %v", fullPath, err)
	}
}

// BookDir returns the directory of a book.
func (w *TestWorkspace) BookDir(book string) string {
	return filepath.Join(w.ContactsRoot, book)
}

// ReadFile reads a file relative to Root.
func (w *TestWorkspace) ReadFile(relPath string) string {
	w.t.Helper()
	fullPath := filepath.Join(w.Root, relPath)
	content, err := os.ReadFile(fullPath)
	if err != nil {
		w.t.Fatalf("failed to read file %s: %v", fullPath, err)
	}
	return string(content)
}

// FileExists checks if a file exists relative to Root.
func (w *TestWorkspace) FileExists(relPath string) bool {
	w.t.Helper()
	_, err := os.Stat(filepath.Join(w.Root, relPath))
	return err == nil
}

// BookFiles lists the .vcf files of a book, sorted.
func (w *TestWorkspace) BookFiles(book string) []string {
	w.t.Helper()
	entries, err := os.ReadDir(w.BookDir(book))
	if err != nil {
		w.t.Fatalf("failed to list book %s: %v", book, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".vcf") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files
}

// Card renders a minimal vCard 3.0 from alternating tag/value pairs.
func Card(pairs ...string) string {
	var b strings.Builder
	b.WriteString("BEGIN:VCARD\r\nVERSION:3.0\r\n")
	for i := 0; i+1 < len(pairs); i += 2 {
		b.WriteString(pairs[i] + ":" + pairs[i+1] + "\r\n")
	}
	b.WriteString("END:VCARD\r\n")
	return b.String()
}

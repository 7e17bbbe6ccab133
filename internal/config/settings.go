package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/uncaged-coder/vcardtools/internal/filenames"
	"github.com/uncaged-coder/vcardtools/internal/match"
	"github.com/uncaged-coder/vcardtools/internal/postprocess"
)

// BookSettings is the fully resolved configuration for one address book.
// It is a plain value: resolving never mutates the Config it came from.
type BookSettings struct {
	Name string
	// Dir is the book directory holding one file per contact.
	Dir string
	// WorkDir is the global work directory.
	WorkDir string
	// Aggregate is the exported / device-supplied file: <work_dir>/<book><ext>.
	Aggregate string

	Category   string
	Match      match.Options
	Names      filenames.Policy
	LineEnding postprocess.LineEnding

	Commit        bool
	GitBinary     string
	CommitMessage string
}

// Book resolves the settings for a configured book, applying its book.yaml.
func (c *Config) Book(name string) (BookSettings, error) {
	if err := c.Validate(); err != nil {
		return BookSettings{}, err
	}
	if !c.HasBook(name) {
		return BookSettings{}, fmt.Errorf("book '%s' is not configured", name)
	}

	dir := filepath.Join(c.ContactsRoot, name)
	bookCfg, err := LoadBookConfig(dir)
	if err != nil {
		return BookSettings{}, err
	}
	return c.resolve(name, dir, bookCfg)
}

// Defaults resolves settings that do not belong to any book, for ad-hoc merges.
func (c *Config) Defaults() (BookSettings, error) {
	return c.resolve("", "", &BookConfig{})
}

func (c *Config) resolve(name, dir string, bookCfg *BookConfig) (BookSettings, error) {
	attrNames := c.MatchAttributes
	if len(bookCfg.MatchAttributes) > 0 {
		attrNames = bookCfg.MatchAttributes
	}
	attrs, err := match.ParseAttributes(attrNames)
	if err != nil {
		return BookSettings{}, err
	}

	lineEnding := firstNonEmpty(bookCfg.LineEnding, c.LineEnding, string(postprocess.CRLF))
	le, err := postprocess.ParseLineEnding(lineEnding)
	if err != nil {
		return BookSettings{}, err
	}

	names := filenames.DefaultPolicy()
	names.Extension = firstNonEmpty(bookCfg.Extension, c.Extension, filenames.DefaultExtension)
	names.Slug = strings.EqualFold(c.Filename.Style, "slug")
	names.LowerCase = c.Filename.LowerCase
	if c.Filename.NoSpace != nil {
		names.NoSpace = *c.Filename.NoSpace
	}
	if c.Filename.Replacement != nil {
		names.Replacement = *c.Filename.Replacement
	}

	commit := c.Git.Enabled == nil || *c.Git.Enabled
	if bookCfg.Commit != nil {
		commit = commit && *bookCfg.Commit
	}
	message := firstNonEmpty(c.Git.CommitMessage, DefaultCommitMessage)

	s := BookSettings{
		Name:          name,
		Dir:           dir,
		WorkDir:       c.WorkDir,
		Category:      firstNonEmpty(bookCfg.Category, name),
		Match:         match.Options{Attributes: attrs, PhoneDigits: c.PhoneDigits},
		Names:         names,
		LineEnding:    le,
		Commit:        commit,
		GitBinary:     firstNonEmpty(c.Git.Binary, "git"),
		CommitMessage: strings.ReplaceAll(message, "{book}", name),
	}
	if name != "" && c.WorkDir != "" {
		s.Aggregate = filepath.Join(c.WorkDir, name+names.Ext())
	}
	return s, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

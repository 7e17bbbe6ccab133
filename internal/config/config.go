// Package config handles vcardtools configuration: the global config.toml
// and the optional per-book book.yaml overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config represents the global configuration file.
type Config struct {
	// WorkDir holds exported aggregates and the files received from devices
	// (<work_dir>/<book>.vcf), plus the run history database.
	WorkDir string `toml:"work_dir"`

	// ContactsRoot is the directory containing one sub-directory per book.
	ContactsRoot string `toml:"contacts_root"`

	// Books lists the address books under ContactsRoot.
	Books []string `toml:"books"`

	// MatchAttributes selects how contacts are matched: email, names, tel, mobiles.
	MatchAttributes []string `toml:"match_attributes"`

	// PhoneDigits is how many trailing digits identify a phone number.
	PhoneDigits int `toml:"phone_digits"`

	// Extension for contact files (default ".vcf").
	Extension string `toml:"extension"`

	// LineEnding for written files: "crlf" (default) or "lf".
	LineEnding string `toml:"line_ending"`

	Filename FilenameConfig `toml:"filename"`
	Git      GitConfig      `toml:"git"`
	UI       UIConfig       `toml:"ui"`
}

// FilenameConfig controls how contact file names are derived.
type FilenameConfig struct {
	// Style is "preserve" (default) or "slug".
	Style string `toml:"style"`

	// NoSpace replaces spaces in file names (default true).
	NoSpace *bool `toml:"no_space"`

	// LowerCase forces lower-case file names.
	LowerCase bool `toml:"lower_case"`

	// Replacement substitutes invalid characters (default "_").
	Replacement *string `toml:"replacement"`
}

// GitConfig controls the commit made after each import.
type GitConfig struct {
	// Enabled turns committing on or off (default true).
	Enabled *bool `toml:"enabled"`

	// Binary is the git executable (default "git").
	Binary string `toml:"binary"`

	// CommitMessage is the message template; "{book}" is replaced by the book name.
	CommitMessage string `toml:"commit_message"`
}

// UIConfig represents optional CLI theming preferences.
type UIConfig struct {
	// Accent is an ANSI color code ("0" to "255") or a hex color ("#RRGGBB").
	Accent string `toml:"accent"`
}

// DefaultCommitMessage is used when git.commit_message is unset.
const DefaultCommitMessage = "Import contacts into {book}"

// BookNames returns the configured books, sorted and without duplicates.
func (c *Config) BookNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, b := range c.Books {
		b = strings.TrimSpace(b)
		if b == "" || seen[b] {
			continue
		}
		seen[b] = true
		names = append(names, b)
	}
	sort.Strings(names)
	return names
}

// HasBook reports whether name is a configured book.
func (c *Config) HasBook(name string) bool {
	for _, b := range c.BookNames() {
		if b == name {
			return true
		}
	}
	return false
}

// Validate checks the settings every command relies on.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.WorkDir) == "" {
		return fmt.Errorf("work_dir is not set")
	}
	if strings.TrimSpace(c.ContactsRoot) == "" {
		return fmt.Errorf("contacts_root is not set")
	}
	for _, b := range c.BookNames() {
		if strings.ContainsAny(b, `/\`) || b == "." || b == ".." {
			return fmt.Errorf("invalid book name %q", b)
		}
	}
	switch strings.ToLower(c.Filename.Style) {
	case "", "preserve", "slug":
	default:
		return fmt.Errorf("unknown filename style %q (expected preserve or slug)", c.Filename.Style)
	}
	return nil
}

// Load loads the configuration from the default location.
// Returns an empty config if the file doesn't exist.
func Load() (*Config, error) {
	configPath := DefaultPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return &Config{}, nil
	}

	return LoadFrom(configPath)
}

// LoadFrom loads the configuration from a specific path. Paths inside the
// file may start with "~/" and relative paths resolve against the file's directory.
func LoadFrom(path string) (*Config, error) {
	var config Config
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	base := filepath.Dir(path)
	config.WorkDir = resolvePath(config.WorkDir, base)
	config.ContactsRoot = resolvePath(config.ContactsRoot, base)
	return &config, nil
}

// ResolveConfigPath resolves the effective config path from an optional override.
func ResolveConfigPath(explicit string) string {
	if strings.TrimSpace(explicit) != "" {
		return explicit
	}
	return DefaultPath()
}

// DefaultPath returns the default config file path.
// Checks ~/.config/vcardtools/config.toml first (XDG style),
// then falls back to OS-specific location.
func DefaultPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		xdgPath := filepath.Join(home, ".config", "vcardtools", "config.toml")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath
		}
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, "vcardtools", "config.toml")
	}

	return filepath.Join(".", "config.toml")
}

// CreateDefault writes a commented default config at path if none exists.
func CreateDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}

	defaultConfig := `# vcardtools configuration

# Where exported aggregates and device exports (<book>.vcf) live.
work_dir = "~/contacts-work"

# Directory holding one sub-directory per address book, under git.
contacts_root = "~/contacts"

# Address books (sub-directories of contacts_root).
books = []

# How contacts are matched: email, names, tel, mobiles.
match_attributes = ["email", "names", "tel"]

# extension = ".vcf"
# line_ending = "crlf"
# phone_digits = 9

[filename]
# style = "preserve"   # or "slug"
# no_space = true
# lower_case = false
# replacement = "_"

[git]
# enabled = true
# commit_message = "Import contacts into {book}"
`

	if err := os.WriteFile(path, []byte(defaultConfig), 0o644); err != nil {
		return false, fmt.Errorf("failed to write config file: %w", err)
	}
	return true, nil
}

func resolvePath(p, base string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(base, p)
	}
	return filepath.Clean(p)
}

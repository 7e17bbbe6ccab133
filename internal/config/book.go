package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/uncaged-coder/vcardtools/internal/atomicfile"
)

// BookConfigFile is the optional per-book settings file inside a book directory.
const BookConfigFile = "book.yaml"

// BookConfig represents book-level overrides from book.yaml.
// Empty values fall back to the global config.
type BookConfig struct {
	// Category is written as CATEGORIES after group memberships (default: the book name).
	Category string `yaml:"category,omitempty"`

	// MatchAttributes overrides the global match attributes for this book.
	MatchAttributes []string `yaml:"match_attributes,omitempty"`

	// Extension overrides the contact file extension.
	Extension string `yaml:"extension,omitempty"`

	// LineEnding overrides the written line ending ("lf" or "crlf").
	LineEnding string `yaml:"line_ending,omitempty"`

	// Commit disables the git commit for this book when set to false.
	Commit *bool `yaml:"commit,omitempty"`
}

// LoadBookConfig loads book.yaml from bookDir.
// Returns an empty config if the file doesn't exist.
func LoadBookConfig(bookDir string) (*BookConfig, error) {
	configPath := filepath.Join(bookDir, BookConfigFile)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return &BookConfig{}, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read book config %s: %w", configPath, err)
	}

	var config BookConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse book config %s: %w", configPath, err)
	}
	return &config, nil
}

// SaveBookConfig writes cfg to book.yaml in bookDir.
func SaveBookConfig(bookDir string, cfg *BookConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal book config: %w", err)
	}
	if err := atomicfile.WriteFile(filepath.Join(bookDir, BookConfigFile), data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", BookConfigFile, err)
	}
	return nil
}

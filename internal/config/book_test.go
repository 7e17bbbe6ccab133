package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/uncaged-coder/vcardtools/internal/postprocess"
)

func TestLoadBookConfigMissing(t *testing.T) {
	cfg, err := LoadBookConfig(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Category != "" || cfg.Commit != nil {
		t.Errorf("expected empty config, got %+v", cfg)
	}
}

func TestLoadBookConfigInvalid(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, BookConfigFile), []byte("category: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadBookConfig(dir); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestBookConfigOverrides(t *testing.T) {
	root := t.TempDir()
	bookDir := filepath.Join(root, "famille")
	if err := os.MkdirAll(bookDir, 0o755); err != nil {
		t.Fatal(err)
	}
	commit := false
	if err := SaveBookConfig(bookDir, &BookConfig{
		Category:        "Family",
		MatchAttributes: []string{"email"},
		Extension:       "vcard",
		LineEnding:      "lf",
		Commit:          &commit,
	}); err != nil {
		t.Fatalf("SaveBookConfig: %v", err)
	}

	cfg := &Config{WorkDir: "/w", ContactsRoot: root, Books: []string{"famille"}, LineEnding: "crlf"}
	s, err := cfg.Book("famille")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Category != "Family" {
		t.Errorf("unexpected category %q", s.Category)
	}
	if s.Match.Attributes.String() != "email" {
		t.Errorf("unexpected attributes %q", s.Match.Attributes.String())
	}
	if s.Names.Ext() != ".vcard" || s.Aggregate != filepath.Join("/w", "famille.vcard") {
		t.Errorf("unexpected extension handling: %q %q", s.Names.Ext(), s.Aggregate)
	}
	if s.LineEnding != postprocess.LF {
		t.Errorf("expected book line ending to win, got %q", s.LineEnding)
	}
	if s.Commit {
		t.Errorf("expected commit disabled by book.yaml")
	}
}

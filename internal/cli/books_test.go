package cli

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/uncaged-coder/vcardtools/internal/config"
)

func withConfig(t *testing.T, c *config.Config, loadErr error) {
	t.Helper()
	prevCfg, prevErr := cfg, cfgErr
	t.Cleanup(func() {
		cfg, cfgErr = prevCfg, prevErr
	})
	cfg, cfgErr = c, loadErr
}

func TestBookSettings(t *testing.T) {
	root := t.TempDir()
	withConfig(t, &config.Config{
		WorkDir:      filepath.Join(root, "work"),
		ContactsRoot: filepath.Join(root, "contacts"),
		Books:        []string{"work", "perso"},
	}, nil)

	all, err := bookSettings(nil)
	if err != nil {
		t.Fatalf("bookSettings: %v", err)
	}
	if len(all) != 2 || all[0].Name != "perso" || all[1].Name != "work" {
		t.Errorf("expected sorted books, got %+v", all)
	}

	one, err := bookSettings([]string{"work", "work"})
	if err != nil || len(one) != 1 {
		t.Errorf("expected one book, got %+v, %v", one, err)
	}

	_, err = bookSettings([]string{"nope"})
	var notFound *bookNotFoundError
	if !errors.As(err, &notFound) || notFound.Book != "nope" {
		t.Errorf("expected bookNotFoundError, got %v", err)
	}
}

func TestBookSettingsInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.Config
		loadErr error
	}{
		{"load error", &config.Config{}, errors.New("failed to parse config")},
		{"missing dirs", &config.Config{Books: []string{"perso"}}, nil},
		{"no books", &config.Config{WorkDir: "/w", ContactsRoot: "/c"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withConfig(t, tt.cfg, tt.loadErr)
			_, err := bookSettings(nil)
			if errorCode(err) != ErrConfigInvalid {
				t.Errorf("expected %s, got %v", ErrConfigInvalid, err)
			}
		})
	}
}

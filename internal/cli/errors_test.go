package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/uncaged-coder/vcardtools/internal/atomicfile"
	"github.com/uncaged-coder/vcardtools/internal/batch"
	"github.com/uncaged-coder/vcardtools/internal/history"
	"github.com/uncaged-coder/vcardtools/internal/importer"
	"github.com/uncaged-coder/vcardtools/internal/sink"
	"github.com/uncaged-coder/vcardtools/internal/vcard"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"book not found", &bookNotFoundError{Book: "x"}, ErrBookNotFound},
		{"config invalid", &configInvalidError{Err: errors.New("work_dir is not set")}, ErrConfigInvalid},
		{"no input", &importer.NoInputError{Book: "perso", Path: "/w/perso.vcf"}, ErrNoInput},
		{"locked", fmt.Errorf("acquire: %w", history.ErrBookLocked), ErrBookLocked},
		{"malformed", fmt.Errorf("failed to load book perso: %w", &vcard.MalformedRecordError{Source: "a.vcf", Line: 3}), ErrMalformedVCard},
		{"destination exists", &batch.OutputWriteError{Path: "out", Err: atomicfile.ErrTargetExists}, ErrDestinationExists},
		{"write", &batch.OutputWriteError{Path: "out", Err: errors.New("disk full")}, ErrOutputWrite},
		{"commit", fmt.Errorf("failed to commit book perso: %w", &sink.CommitError{Command: "git commit"}), ErrCommitFailed},
		{"other", errors.New("boom"), ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorCode(tt.err); got != tt.want {
				t.Errorf("errorCode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSuggestionFor(t *testing.T) {
	if s := suggestionFor(&bookNotFoundError{Book: "x"}); s == "" {
		t.Error("expected a suggestion for an unknown book")
	}
	if s := suggestionFor(errors.New("boom")); s != "" {
		t.Errorf("expected no suggestion for internal errors, got %q", s)
	}
}

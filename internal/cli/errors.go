package cli

import (
	"errors"
	"fmt"

	"github.com/uncaged-coder/vcardtools/internal/atomicfile"
	"github.com/uncaged-coder/vcardtools/internal/batch"
	"github.com/uncaged-coder/vcardtools/internal/history"
	"github.com/uncaged-coder/vcardtools/internal/importer"
	"github.com/uncaged-coder/vcardtools/internal/sink"
	"github.com/uncaged-coder/vcardtools/internal/vcard"
)

// Error codes for structured error responses.
// These codes are stable and can be relied upon by scripts.
const (
	// Configuration errors
	ErrConfigInvalid = "CONFIG_INVALID"
	ErrBookNotFound  = "BOOK_NOT_FOUND"

	// Input errors
	ErrMalformedVCard  = "MALFORMED_VCARD"
	ErrNoInput         = "NO_INPUT"
	ErrFileNotFound    = "FILE_NOT_FOUND"
	ErrInvalidInput    = "INVALID_INPUT"
	ErrMissingArgument = "MISSING_ARGUMENT"

	// Output errors
	ErrOutputWrite       = "OUTPUT_WRITE_ERROR"
	ErrDestinationExists = "DESTINATION_EXISTS"

	// Run errors
	ErrBookLocked    = "BOOK_LOCKED"
	ErrCommitFailed  = "COMMIT_FAILED"
	ErrDatabaseError = "DATABASE_ERROR"
	ErrImportFailed  = "IMPORT_FAILED"
	ErrExportFailed  = "EXPORT_FAILED"

	// General errors
	ErrInternal = "INTERNAL_ERROR"
)

// Warning codes.
const (
	WarnContactRemoved  = "CONTACT_REMOVED"
	WarnBookSkipped     = "BOOK_SKIPPED"
	WarnImportCancelled = "IMPORT_CANCELLED"
)

// bookNotFoundError reports a book name that is not in the config.
type bookNotFoundError struct {
	Book string
}

func (e *bookNotFoundError) Error() string {
	return fmt.Sprintf("book '%s' is not configured", e.Book)
}

// configInvalidError wraps a config that cannot serve book commands.
type configInvalidError struct {
	Err error
}

func (e *configInvalidError) Error() string {
	return fmt.Sprintf("invalid config: %v", e.Err)
}

func (e *configInvalidError) Unwrap() error {
	return e.Err
}

// errorCode maps an error to its stable code.
func errorCode(err error) string {
	var (
		notFound  *bookNotFoundError
		invalid   *configInvalidError
		malformed *vcard.MalformedRecordError
		noInput   *importer.NoInputError
		writeErr  *batch.OutputWriteError
		commitErr *sink.CommitError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &notFound):
		return ErrBookNotFound
	case errors.As(err, &invalid):
		return ErrConfigInvalid
	case errors.As(err, &noInput):
		return ErrNoInput
	case errors.Is(err, history.ErrBookLocked):
		return ErrBookLocked
	case errors.As(err, &malformed):
		return ErrMalformedVCard
	case errors.Is(err, atomicfile.ErrTargetExists):
		return ErrDestinationExists
	case errors.As(err, &writeErr):
		return ErrOutputWrite
	case errors.As(err, &commitErr):
		return ErrCommitFailed
	}
	return ErrInternal
}

// suggestionFor returns a hint for the errors a user can act on.
func suggestionFor(err error) string {
	switch errorCode(err) {
	case ErrBookNotFound:
		return "Run 'vcardtools books' to see configured books"
	case ErrConfigInvalid:
		return "Run 'vcardtools init' to create a config, then set work_dir, contacts_root and books"
	case ErrNoInput:
		return "Copy the file exported by your device into the work directory, or pass --file"
	case ErrBookLocked:
		return "Another vcardtools run is using this book; retry when it finishes"
	case ErrMalformedVCard:
		return "Fix the reported file and run the command again"
	case ErrDestinationExists:
		return "Choose a destination directory that does not exist yet"
	case ErrCommitFailed:
		return "The book was updated; commit it by hand or check the git configuration"
	}
	return ""
}

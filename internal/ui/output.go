package ui

import "fmt"

// Unicode symbols for status indicators
const (
	SymbolSuccess = "✓"
	SymbolError   = "✗"
	SymbolWarning = "⚠"
	SymbolInfo    = "ℹ"
	SymbolSkipped = "–"
)

// Success returns a success message with checkmark symbol
func Success(msg string) string {
	return SymbolSuccess + " " + msg
}

// Successf returns a formatted success message with checkmark symbol
func Successf(format string, args ...interface{}) string {
	return Success(fmt.Sprintf(format, args...))
}

// Error returns an error message with X symbol
func Error(msg string) string {
	return SymbolError + " " + msg
}

// Errorf returns a formatted error message with X symbol
func Errorf(format string, args ...interface{}) string {
	return Error(fmt.Sprintf(format, args...))
}

// Warningf returns a formatted warning message with warning symbol
func Warningf(format string, args ...interface{}) string {
	return SymbolWarning + " " + fmt.Sprintf(format, args...)
}

// Infof returns a formatted info message with info symbol
func Infof(format string, args ...interface{}) string {
	return SymbolInfo + " " + fmt.Sprintf(format, args...)
}

// Skippedf returns a formatted message for work that was not attempted.
func Skippedf(format string, args ...interface{}) string {
	return SymbolSkipped + " " + fmt.Sprintf(format, args...)
}

// Header returns a styled section header
func Header(msg string) string {
	return Bold.Render(msg)
}

// FilePath returns an accent-styled file path
func FilePath(path string) string {
	return Accent.Render(path)
}

// Hint returns muted hint text
func Hint(msg string) string {
	return Muted.Render(msg)
}

// Count returns n with the singular or plural noun, e.g. "3 contacts".
func Count(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}

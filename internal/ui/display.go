package ui

import (
	"os"

	"github.com/charmbracelet/x/term"
)

// DefaultTermWidth is the fallback terminal width when detection fails.
const DefaultTermWidth = 100

// DisplayContext holds display parameters for stdout.
type DisplayContext struct {
	TermWidth int  // detected or fallback terminal width
	IsTTY     bool // whether stdout is a terminal
}

// NewDisplayContext detects whether stdout is a terminal and how wide it is.
func NewDisplayContext() *DisplayContext {
	fd := os.Stdout.Fd()
	isTTY := term.IsTerminal(fd)

	width := DefaultTermWidth
	if isTTY {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			width = w
		}
	}

	return &DisplayContext{
		TermWidth: width,
		IsTTY:     isTTY,
	}
}

// MarkdownWidth is the word-wrap width for rendered markdown.
func (d *DisplayContext) MarkdownWidth() int {
	if d == nil || d.TermWidth <= 2*MarkdownRenderMargin {
		return DefaultTermWidth
	}
	return d.TermWidth - 2*MarkdownRenderMargin
}

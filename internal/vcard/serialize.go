package vcard

import (
	"io"
	"strings"
	"unicode/utf8"
)

const (
	// CRLF is the line ending RFC 6350 requires.
	CRLF = "\r\n"
	// LF is the Unix line ending.
	LF = "\n"

	// DefaultFoldWidth is the RFC 6350 recommended maximum line length in octets.
	DefaultFoldWidth = 75
)

// Encoder serializes records. The zero value writes LF line endings without folding.
type Encoder struct {
	LineEnding string
	// FoldWidth is the maximum physical line length in octets; 0 disables folding.
	FoldWidth int
}

// DefaultEncoder writes CRLF line endings folded at 75 octets.
var DefaultEncoder = Encoder{LineEnding: CRLF, FoldWidth: DefaultFoldWidth}

// Serialize formats r with DefaultEncoder.
func Serialize(r Record) string {
	return DefaultEncoder.Format(r)
}

// Format returns r as one BEGIN:VCARD...END:VCARD block.
func (e Encoder) Format(r Record) string {
	eol := e.LineEnding
	if eol == "" {
		eol = LF
	}

	var b strings.Builder
	b.WriteString("BEGIN:VCARD")
	b.WriteString(eol)
	for _, f := range r.fields {
		b.WriteString(e.fold(FormatField(f), eol))
		b.WriteString(eol)
	}
	b.WriteString("END:VCARD")
	b.WriteString(eol)
	return b.String()
}

// Encode writes each record to w in order.
func (e Encoder) Encode(w io.Writer, records ...Record) error {
	for _, r := range records {
		if _, err := io.WriteString(w, e.Format(r)); err != nil {
			return err
		}
	}
	return nil
}

// FormatField renders a field as an unfolded content line.
func FormatField(f Field) string {
	var b strings.Builder
	if f.Group != "" {
		b.WriteString(f.Group)
		b.WriteByte('.')
	}
	b.WriteString(f.Name)
	for _, p := range f.Params {
		b.WriteByte(';')
		b.WriteString(p)
	}
	b.WriteByte(':')
	if f.IsQuotedPrintable() {
		// A bare trailing '=' would be read back as a soft break into the next line.
		b.WriteString(strings.TrimRight(f.Value, "="))
	} else {
		b.WriteString(f.Value)
	}
	return b.String()
}

// fold splits line into chunks of at most FoldWidth octets. Continuation
// chunks start with a single space which counts toward the width.
func (e Encoder) fold(line, eol string) string {
	width := e.FoldWidth
	if width <= 1 || len(line) <= width {
		return line
	}

	var b strings.Builder
	limit := width
	for len(line) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(line[cut]) {
			cut--
		}
		if cut == 0 {
			_, size := utf8.DecodeRuneInString(line)
			cut = size
		}
		b.WriteString(line[:cut])
		b.WriteString(eol)
		b.WriteByte(' ')
		line = line[cut:]
		limit = width - 1
	}
	b.WriteString(line)
	return b.String()
}

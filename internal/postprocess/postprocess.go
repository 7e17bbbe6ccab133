// Package postprocess applies the text-level cleanups run on every contact
// file after merging: category tagging, duplicate-line collapse and line
// ending normalization. All passes are idempotent.
package postprocess

import (
	"fmt"
	"strings"
)

// LineEnding names an output line ending convention.
type LineEnding string

const (
	LF   LineEnding = "lf"
	CRLF LineEnding = "crlf"
)

// ParseLineEnding accepts "lf", "crlf", "unix", "dos" or "" (keep as is).
func ParseLineEnding(s string) (LineEnding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "lf", "unix":
		return LF, nil
	case "crlf", "dos", "windows":
		return CRLF, nil
	}
	return "", fmt.Errorf("unknown line ending %q (expected lf or crlf)", s)
}

// Sequence returns the literal line terminator.
func (l LineEnding) Sequence() string {
	if l == CRLF {
		return "\r\n"
	}
	return "\n"
}

const groupMembershipPrefix = "X-GROUP-MEMBERSHIP:"

// Pipeline runs every post-processing pass in order.
type Pipeline struct {
	// Category is inserted after group-membership lines; empty skips tagging.
	Category string
	// LineEnding is the target convention; empty keeps the input's.
	LineEnding LineEnding
}

// Apply runs the pipeline over one file's content.
func (p Pipeline) Apply(data []byte) []byte {
	text := string(data)
	if p.Category != "" {
		text = TagCategories(text, p.Category)
	}
	text = CollapseDuplicateLines(text)
	if p.LineEnding != "" {
		text = NormalizeLineEndings(text, p.LineEnding)
	}
	return []byte(text)
}

// TagCategories inserts "CATEGORIES:<category>" right after every
// X-GROUP-MEMBERSHIP line (and its folded continuations) unless that exact
// line already follows.
func TagCategories(text, category string) string {
	doc := split(text)
	tag := "CATEGORIES:" + category

	var out []string
	for i, u := range doc.units {
		out = append(out, u)
		if !strings.HasPrefix(strings.ToUpper(u), groupMembershipPrefix) {
			continue
		}
		if i+1 < len(doc.units) && doc.units[i+1] == tag {
			continue
		}
		out = append(out, tag)
	}
	doc.units = out
	return doc.join()
}

// CollapseDuplicateLines drops repeated content lines inside each vCard,
// keeping the first occurrence. A folded line and its continuations count as
// one line. Blank lines and BEGIN/END markers are never dropped.
func CollapseDuplicateLines(text string) string {
	doc := split(text)
	seen := make(map[string]bool)

	var out []string
	for _, u := range doc.units {
		upper := strings.ToUpper(strings.TrimSpace(u))
		switch {
		case upper == "BEGIN:VCARD":
			seen = make(map[string]bool)
			out = append(out, u)
			continue
		case upper == "END:VCARD" || upper == "":
			out = append(out, u)
			continue
		}
		if seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	doc.units = out
	return doc.join()
}

// NormalizeLineEndings rewrites every CRLF, CR and LF terminator to style.
func NormalizeLineEndings(text string, style LineEnding) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	if style == CRLF {
		text = strings.ReplaceAll(text, "\n", "\r\n")
	}
	return text
}

// document is text split into logical lines: a physical line plus any
// continuation lines, joined by the original terminator.
type document struct {
	units    []string
	eol      string
	trailing bool
}

func split(text string) document {
	eol := "\n"
	if strings.Contains(text, "\r\n") {
		eol = "\r\n"
	}
	doc := document{eol: eol, trailing: strings.HasSuffix(text, eol)}
	body := strings.TrimSuffix(text, eol)
	if body == "" && !doc.trailing {
		return doc
	}

	for _, line := range strings.Split(body, eol) {
		isContinuation := len(line) > 0 && (line[0] == ' ' || line[0] == '\t')
		if isContinuation && len(doc.units) > 0 {
			doc.units[len(doc.units)-1] += eol + line
			continue
		}
		doc.units = append(doc.units, line)
	}
	return doc
}

func (d document) join() string {
	s := strings.Join(d.units, d.eol)
	if d.trailing {
		s += d.eol
	}
	return s
}

package vcard

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// MalformedRecordError reports vCard text that cannot be parsed.
// Parsing never returns partial results alongside it.
type MalformedRecordError struct {
	Source string // file path, when known
	Line   int    // 1-based physical line number
	Reason string
}

func (e *MalformedRecordError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("malformed vCard in %s at line %d: %s", e.Source, e.Line, e.Reason)
	}
	return fmt.Sprintf("malformed vCard at line %d: %s", e.Line, e.Reason)
}

// logicalLine is one unfolded content line and the physical line it started on.
type logicalLine struct {
	text string
	line int
}

// Parse reads every vCard in r.
func Parse(r io.Reader) ([]Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read vCard input: %w", err)
	}
	return ParseString(string(data))
}

// ParseFile reads every vCard in the file at path. Malformed input errors carry
// the path as their Source.
func ParseFile(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	recs, err := ParseString(string(data))
	if err != nil {
		var me *MalformedRecordError
		if errors.As(err, &me) {
			me.Source = path
		}
		return nil, err
	}
	return recs, nil
}

// ParseString parses every vCard in text.
func ParseString(text string) ([]Record, error) {
	lines, err := unfold(strings.TrimPrefix(text, "\ufeff"))
	if err != nil {
		return nil, err
	}

	var (
		records []Record
		current []Field
		inCard  bool
		begin   int
	)
	for _, ll := range lines {
		f, err := parseContentLine(ll)
		if err != nil {
			return nil, err
		}
		switch {
		case f.Is("BEGIN") && strings.EqualFold(f.Value, "VCARD"):
			if inCard {
				return nil, &MalformedRecordError{Line: ll.line, Reason: fmt.Sprintf("BEGIN:VCARD before END:VCARD of the card opened at line %d", begin)}
			}
			inCard = true
			begin = ll.line
			current = nil
		case f.Is("END") && strings.EqualFold(f.Value, "VCARD"):
			if !inCard {
				return nil, &MalformedRecordError{Line: ll.line, Reason: "END:VCARD without BEGIN:VCARD"}
			}
			records = append(records, Record{fields: current})
			inCard = false
			current = nil
		default:
			if !inCard {
				return nil, &MalformedRecordError{Line: ll.line, Reason: "content line outside BEGIN:VCARD/END:VCARD"}
			}
			current = append(current, f)
		}
	}
	if inCard {
		return nil, &MalformedRecordError{Line: begin, Reason: "missing END:VCARD"}
	}
	return records, nil
}

// unfold joins folded continuation lines (leading space or tab) and
// quoted-printable soft line breaks into logical lines. Blank lines are dropped.
// A soft break right before END:VCARD joins nothing and is removed.
func unfold(text string) ([]logicalLine, error) {
	physical := strings.Split(text, "\n")
	var out []logicalLine
	softBreak := false

	for i, raw := range physical {
		lineNo := i + 1
		line := strings.TrimSuffix(raw, "\r")

		if len(line) > 0 && (line[0] == ' ' || line[0] == '\t') {
			if len(out) == 0 {
				if strings.TrimSpace(line) == "" {
					continue
				}
				return nil, &MalformedRecordError{Line: lineNo, Reason: "continuation line without a preceding content line"}
			}
			out[len(out)-1].text += line[1:]
			softBreak = endsWithSoftBreak(out[len(out)-1].text)
			continue
		}

		if softBreak {
			last := &out[len(out)-1]
			last.text = strings.TrimSuffix(last.text, "=")
			if !strings.EqualFold(strings.TrimSpace(line), "END:VCARD") {
				last.text += line
				softBreak = endsWithSoftBreak(last.text)
				continue
			}
		}
		softBreak = false

		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, logicalLine{text: line, line: lineNo})
		softBreak = endsWithSoftBreak(line)
	}
	return out, nil
}

func endsWithSoftBreak(line string) bool {
	if !strings.HasSuffix(line, "=") {
		return false
	}
	head, _, ok := cutUnquoted(line, ':')
	return ok && strings.Contains(strings.ToUpper(head), "QUOTED-PRINTABLE")
}

// parseContentLine splits "group.NAME;P1;P2:value" into a Field.
func parseContentLine(ll logicalLine) (Field, error) {
	head, value, ok := cutUnquoted(ll.text, ':')
	if !ok {
		return Field{}, &MalformedRecordError{Line: ll.line, Reason: fmt.Sprintf("no ':' separator in %q", ll.text)}
	}

	parts := splitUnquoted(head, ';')
	name := strings.TrimSpace(parts[0])
	var group string
	if g, n, found := strings.Cut(name, "."); found {
		group, name = g, n
	}
	if name == "" {
		return Field{}, &MalformedRecordError{Line: ll.line, Reason: fmt.Sprintf("empty property name in %q", ll.text)}
	}

	var params []string
	for _, p := range parts[1:] {
		if p != "" {
			params = append(params, p)
		}
	}
	return Field{Group: group, Name: name, Params: params, Value: value}, nil
}

// cutUnquoted cuts s around the first sep that is not inside double quotes.
func cutUnquoted(s string, sep byte) (string, string, bool) {
	quoted := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			quoted = !quoted
		case sep:
			if !quoted {
				return s[:i], s[i+1:], true
			}
		}
	}
	return s, "", false
}

func splitUnquoted(s string, sep byte) []string {
	var parts []string
	for {
		before, after, ok := cutUnquoted(s, sep)
		parts = append(parts, before)
		if !ok {
			return parts
		}
		s = after
	}
}

// Package vcard parses and serializes vCard text into immutable contact records.
package vcard

import "strings"

// Field is one content line of a vCard: GROUP.NAME;PARAM=...:VALUE.
//
// Value is kept exactly as it appears after unfolding, escapes included.
type Field struct {
	Group  string
	Name   string
	Params []string
	Value  string
}

// Key returns the identity of the field used for exact-duplicate detection.
// Tag and parameter names compare case-insensitively; values compare exactly.
func (f Field) Key() string {
	var b strings.Builder
	if f.Group != "" {
		b.WriteString(strings.ToUpper(f.Group))
		b.WriteByte('.')
	}
	b.WriteString(strings.ToUpper(f.Name))
	for _, p := range f.Params {
		b.WriteByte(';')
		if name, value, ok := strings.Cut(p, "="); ok {
			b.WriteString(strings.ToUpper(name))
			b.WriteByte('=')
			b.WriteString(value)
		} else {
			b.WriteString(strings.ToUpper(p))
		}
	}
	b.WriteByte(':')
	b.WriteString(f.Value)
	return b.String()
}

// Is reports whether the field's tag equals name, ignoring case.
func (f Field) Is(name string) bool {
	return strings.EqualFold(f.Name, name)
}

// Param returns the values of every parameter called name. vCard 2.1 bare
// parameters such as ";CELL" are reported under TYPE.
func (f Field) Param(name string) []string {
	var out []string
	for _, p := range f.Params {
		key, value, ok := strings.Cut(p, "=")
		if !ok {
			if strings.EqualFold(name, "TYPE") {
				out = append(out, p)
			}
			continue
		}
		if !strings.EqualFold(key, name) {
			continue
		}
		for _, v := range strings.Split(value, ",") {
			out = append(out, strings.Trim(v, `"`))
		}
	}
	return out
}

// HasType reports whether any TYPE parameter value equals t, ignoring case.
func (f Field) HasType(t string) bool {
	for _, v := range f.Param("TYPE") {
		if strings.EqualFold(v, t) {
			return true
		}
	}
	return false
}

func (f Field) clone() Field {
	if f.Params != nil {
		f.Params = append([]string(nil), f.Params...)
	}
	return f
}

// Record is one BEGIN:VCARD...END:VCARD entity. It is immutable: the
// constructor copies its input and Fields returns a copy.
type Record struct {
	fields []Field
}

// NewRecord builds a record from the given fields, in order.
func NewRecord(fields ...Field) Record {
	out := make([]Field, len(fields))
	for i, f := range fields {
		out[i] = f.clone()
	}
	return Record{fields: out}
}

// Fields returns a copy of the record's fields in order.
func (r Record) Fields() []Field {
	out := make([]Field, len(r.fields))
	for i, f := range r.fields {
		out[i] = f.clone()
	}
	return out
}

// Len returns the number of fields.
func (r Record) Len() int {
	return len(r.fields)
}

// Values returns the values of every field called name, in order.
func (r Record) Values(name string) []string {
	var out []string
	for _, f := range r.fields {
		if f.Is(name) {
			out = append(out, f.Value)
		}
	}
	return out
}

// Select returns copies of every field called name, in order.
func (r Record) Select(name string) []Field {
	var out []Field
	for _, f := range r.fields {
		if f.Is(name) {
			out = append(out, f.clone())
		}
	}
	return out
}

// First returns the first value of the named field, or "".
func (r Record) First(name string) string {
	for _, f := range r.fields {
		if f.Is(name) {
			return f.Value
		}
	}
	return ""
}

// Equal reports whether both records hold the same fields in the same order,
// comparing fields by Key.
func (r Record) Equal(other Record) bool {
	if len(r.fields) != len(other.fields) {
		return false
	}
	for i := range r.fields {
		if r.fields[i].Key() != other.fields[i].Key() {
			return false
		}
	}
	return true
}

// KeySet returns the set of field identity keys present in the record.
func (r Record) KeySet() map[string]struct{} {
	set := make(map[string]struct{}, len(r.fields))
	for _, f := range r.fields {
		set[f.Key()] = struct{}{}
	}
	return set
}

// StructuredName renders an N value ("Family;Given;Additional;Prefix;Suffix")
// as "Given Additional Family". Returns "" when no component is set.
func StructuredName(n string) string {
	parts := SplitComponents(n)
	for len(parts) < 3 {
		parts = append(parts, "")
	}
	var words []string
	for _, p := range []string{parts[1], parts[2], parts[0]} {
		if p = strings.TrimSpace(Unescape(p)); p != "" {
			words = append(words, p)
		}
	}
	return strings.Join(words, " ")
}

// SplitComponents splits a structured value on unescaped semicolons.
func SplitComponents(value string) []string {
	var parts []string
	var cur strings.Builder
	escaped := false
	for _, r := range value {
		switch {
		case escaped:
			cur.WriteByte('\\')
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == ';':
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if escaped {
		cur.WriteByte('\\')
	}
	return append(parts, cur.String())
}

// Unescape resolves the vCard 3.0 text escapes \n, \, \; and \\.
func Unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	escaped := false
	for _, r := range s {
		if escaped {
			switch r {
			case 'n', 'N':
				b.WriteByte('\n')
			default:
				b.WriteRune(r)
			}
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		b.WriteRune(r)
	}
	if escaped {
		b.WriteByte('\\')
	}
	return b.String()
}

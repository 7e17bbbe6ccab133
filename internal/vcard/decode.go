package vcard

import (
	"bytes"
	"io"
	"mime/quotedprintable"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"
)

// IsQuotedPrintable reports whether the field carries a vCard 2.1
// ENCODING=QUOTED-PRINTABLE parameter (or the bare QUOTED-PRINTABLE form).
func (f Field) IsQuotedPrintable() bool {
	for _, p := range f.Params {
		key, value, ok := strings.Cut(p, "=")
		if !ok {
			value = key
		} else if !strings.EqualFold(key, "ENCODING") {
			continue
		}
		if strings.EqualFold(strings.Trim(value, `"`), "QUOTED-PRINTABLE") {
			return true
		}
	}
	return false
}

// Decoded returns the value with any quoted-printable transfer encoding
// removed and converted from its CHARSET to UTF-8. Text escapes are left in
// place so structured values can still be split. Undecodable input is
// returned unchanged.
func (f Field) Decoded() string {
	if !f.IsQuotedPrintable() {
		return f.Value
	}
	raw, err := io.ReadAll(quotedprintable.NewReader(strings.NewReader(f.Value)))
	if err != nil {
		return f.Value
	}
	return toUTF8(raw, f.Param("CHARSET"))
}

// Text returns the decoded, unescaped value.
func (f Field) Text() string {
	return Unescape(f.Decoded())
}

func toUTF8(raw []byte, charset []string) string {
	if len(charset) == 0 || strings.EqualFold(charset[0], "UTF-8") {
		if utf8.Valid(raw) {
			return string(raw)
		}
		// Unlabelled 2.1 exports are usually Latin-1.
		charset = []string{"ISO-8859-1"}
	}
	enc, err := htmlindex.Get(charset[0])
	if err != nil {
		return string(raw)
	}
	out, err := io.ReadAll(enc.NewDecoder().Reader(bytes.NewReader(raw)))
	if err != nil {
		return string(raw)
	}
	return string(out)
}

package match

import (
	"strings"

	"github.com/uncaged-coder/vcardtools/internal/vcard"
)

// DefaultPhoneDigits is how many trailing significant digits identify a phone number.
const DefaultPhoneDigits = 9

// NormalizeName lower-cases, trims and collapses internal whitespace.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(vcard.Unescape(name))), " ")
}

// NormalizeEmail lower-cases an address and strips mailto: and display-name
// wrappers such as `"Jane" <jane@x.com>`.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	if open := strings.LastIndexByte(email, '<'); open >= 0 {
		if end := strings.IndexByte(email[open:], '>'); end > 0 {
			email = email[open+1 : open+end]
		}
	}
	email = strings.ToLower(strings.TrimSpace(email))
	email = strings.TrimPrefix(email, "mailto:")
	return strings.TrimSpace(email)
}

// NormalizePhone reduces a number to its last n digits, dropping punctuation.
// Keeping only the tail makes country codes and trunk prefixes irrelevant, so
// "+33 6 12 34 56 78" and "06.12.34.56.78" compare equal. Numbers with at most
// n digits are returned whole, without a leading "00".
func NormalizePhone(number string, n int) string {
	if n <= 0 {
		n = DefaultPhoneDigits
	}
	var digits strings.Builder
	for _, r := range number {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	d = strings.TrimPrefix(d, "00")
	if len(d) > n {
		return d[len(d)-n:]
	}
	return d
}

// Keys returns the normalized values a record exposes for attr. Values are
// compared after quoted-printable decoding.
func Keys(r vcard.Record, attr Attribute, phoneDigits int) []string {
	var keys []string
	add := func(k string) {
		if k != "" {
			keys = append(keys, k)
		}
	}

	switch attr {
	case Email:
		for _, f := range r.Select("EMAIL") {
			add(NormalizeEmail(f.Decoded()))
		}
	case Names:
		for _, f := range r.Select("FN") {
			add(NormalizeName(f.Decoded()))
		}
		for _, f := range r.Select("N") {
			add(NormalizeName(vcard.StructuredName(f.Decoded())))
		}
	case Tel:
		for _, f := range r.Select("TEL") {
			add(NormalizePhone(f.Decoded(), phoneDigits))
		}
	case Mobiles:
		for _, f := range r.Select("TEL") {
			if isMobile(f) {
				add(NormalizePhone(f.Decoded(), phoneDigits))
			}
		}
	}
	return keys
}

func isMobile(f vcard.Field) bool {
	return f.HasType("CELL") || f.HasType("MOBILE") || f.HasType("IPHONE")
}

// Package filenames turns contact names into safe, portable file names.
//
// Two strategies are available:
//   - Preserve (default): transliterate to ASCII, keep case unless asked
//     otherwise, and replace characters that are unsafe in file names.
//   - Slug: lower-case dash-separated names built on gosimple/slug.
package filenames

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	goslug "github.com/gosimple/slug"
	"github.com/gosimple/unidecode"
)

const (
	// DefaultExtension is appended to generated contact file names.
	DefaultExtension = ".vcf"
	// DefaultReplacement replaces runs of invalid characters.
	DefaultReplacement = "_"
	// Fallback is used when nothing usable remains of a name.
	Fallback = "contact"

	maxBaseLength = 200
)

const invalidChars = `.\/"'!@#?$%^&*|(){};:<>[]`

var (
	invalidRun        = regexp.MustCompile(`[` + regexp.QuoteMeta(invalidChars) + `\t\n\r\v\f]+`)
	invalidOrSpaceRun = regexp.MustCompile(`[ ` + regexp.QuoteMeta(invalidChars) + `\t\n\r\v\f]+`)
)

// Policy controls how names become file names.
type Policy struct {
	// NoSpace replaces spaces as well. Other whitespace is always replaced.
	NoSpace bool
	// LowerCase forces lower case.
	LowerCase bool
	// Replacement substitutes each run of invalid characters. May be empty.
	Replacement string
	// Slug switches to the gosimple/slug strategy; the other options are ignored.
	Slug bool
	// Extension is appended by FileName; a missing leading dot is added.
	Extension string
}

// DefaultPolicy is the import pipeline's policy: no whitespace, ".vcf".
func DefaultPolicy() Policy {
	return Policy{NoSpace: true, Replacement: DefaultReplacement, Extension: DefaultExtension}
}

// Sanitize converts name into a file name component (without extension).
func (p Policy) Sanitize(name string) string {
	var out string
	if p.Slug {
		out = goslug.Make(name)
	} else {
		out = p.preserve(name)
	}
	out = truncate(out, maxBaseLength)
	if strings.Trim(out, p.Replacement+"-") == "" {
		return Fallback
	}
	return out
}

// FileName returns Sanitize(name) plus the policy's extension.
func (p Policy) FileName(name string) string {
	return p.Sanitize(name) + p.Ext()
}

// Ext returns the normalized extension, DefaultExtension when unset.
func (p Policy) Ext() string {
	ext := strings.TrimSpace(p.Extension)
	if ext == "" {
		return DefaultExtension
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

func (p Policy) preserve(name string) string {
	s := strings.TrimSpace(unidecode.Unidecode(name))
	if p.LowerCase {
		s = strings.ToLower(s)
	}

	invalid := invalidRun
	if p.NoSpace {
		invalid = invalidOrSpaceRun
	}
	s = invalid.ReplaceAllLiteralString(s, p.Replacement)

	// Drop anything unidecode left that is neither printable nor a plain space.
	s = strings.Map(func(r rune) rune {
		if r == ' ' || (unicode.IsPrint(r) && !unicode.IsSpace(r)) {
			return r
		}
		return -1
	}, s)

	if p.Replacement != "" {
		repeated := regexp.MustCompile(`(?:` + regexp.QuoteMeta(p.Replacement) + `)+`)
		s = repeated.ReplaceAllLiteralString(s, p.Replacement)
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// Dedupe hands out unique file names, appending _2, _3, ... to repeats.
// Comparison ignores case so results are safe on case-insensitive file systems.
type Dedupe struct {
	taken map[string]bool
}

// NewDedupe returns an empty name allocator.
func NewDedupe() *Dedupe {
	return &Dedupe{taken: make(map[string]bool)}
}

// Claim returns base+ext, or the first free base_N+ext when already taken.
func (d *Dedupe) Claim(base, ext string) string {
	candidate := base + ext
	for n := 2; d.taken[strings.ToLower(candidate)]; n++ {
		candidate = base + "_" + strconv.Itoa(n) + ext
	}
	d.taken[strings.ToLower(candidate)] = true
	return candidate
}

// Reserve marks name as taken without renaming it.
func (d *Dedupe) Reserve(name string) {
	d.taken[strings.ToLower(name)] = true
}

// Less orders file names with runs of digits compared by value, so
// Jane_2.vcf sorts before Jane_10.vcf and collision suffixes keep their order
// from one run to the next.
func Less(a, b string) bool {
	for a != "" && b != "" {
		if isDigit(a[0]) && isDigit(b[0]) {
			da, db := digitRun(a), digitRun(b)
			na, nb := strings.TrimLeft(da, "0"), strings.TrimLeft(db, "0")
			if len(na) != len(nb) {
				return len(na) < len(nb)
			}
			if na != nb {
				return na < nb
			}
			if len(da) != len(db) {
				return len(da) < len(db)
			}
			a, b = a[len(da):], b[len(db):]
			continue
		}
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		a, b = a[1:], b[1:]
	}
	return len(a) < len(b)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func digitRun(s string) string {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return s[:i]
}

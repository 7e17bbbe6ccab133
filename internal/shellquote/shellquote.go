// Package shellquote renders command lines for logs and dry-run output so
// they can be pasted into a POSIX shell.
package shellquote

import "strings"

// unsafe lists bytes a POSIX shell would interpret outside quotes.
const unsafe = " \t\n#[]()|!\"'$`;&<>*?~{}\\"

// Quote wraps s in single quotes, escaping any internal single quotes.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// QuoteIfNeeded quotes s only when a shell would otherwise split or expand it.
func QuoteIfNeeded(s string) string {
	if s == "" || strings.ContainsAny(s, unsafe) {
		return Quote(s)
	}
	return s
}

// Join quotes each argument as needed and joins them with spaces.
func Join(args ...string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = QuoteIfNeeded(a)
	}
	return strings.Join(quoted, " ")
}

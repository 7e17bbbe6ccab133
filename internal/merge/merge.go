// Package merge collapses an identity class into one canonical contact record.
package merge

import (
	"github.com/uncaged-coder/vcardtools/internal/match"
	"github.com/uncaged-coder/vcardtools/internal/vcard"
)

// Merge concatenates the fields of records in the order given and drops every
// field whose identity key was already emitted. Conflicting values (two
// different FN lines, say) are all kept. The inputs are not modified.
//
// Merge is idempotent: merging a result together with its own sources yields
// the same field set.
func Merge(records ...vcard.Record) vcard.Record {
	seen := make(map[string]struct{})
	var fields []vcard.Field
	for _, r := range records {
		for _, f := range r.Fields() {
			key := f.Key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			fields = append(fields, f)
		}
	}
	return vcard.NewRecord(fields...)
}

// Class merges the members of c, taken from records, in member order.
func Class(records []vcard.Record, c match.Class) vcard.Record {
	members := make([]vcard.Record, 0, len(c.Members))
	for _, i := range c.Members {
		members = append(members, records[i])
	}
	return Merge(members...)
}

// Dedupe removes exact-duplicate fields within a single record.
func Dedupe(r vcard.Record) vcard.Record {
	return Merge(r)
}

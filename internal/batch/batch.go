// Package batch runs one merge pass: it unions existing and imported contact
// records, partitions them into identity classes, merges each class and names
// the results.
package batch

import (
	"strings"

	"go.uber.org/zap"

	"github.com/uncaged-coder/vcardtools/internal/filenames"
	"github.com/uncaged-coder/vcardtools/internal/match"
	"github.com/uncaged-coder/vcardtools/internal/merge"
	"github.com/uncaged-coder/vcardtools/internal/vcard"
)

// Source records where an input came from. Existing records are merged
// ahead of imported ones.
type Source int

const (
	Existing Source = iota
	Imported
)

func (s Source) String() string {
	if s == Imported {
		return "imported"
	}
	return "existing"
}

// Input is one record with its provenance.
type Input struct {
	Record vcard.Record
	Source Source
	// Origin is the file the record was read from, if any.
	Origin string
}

// Inputs tags every record with the same source and origin.
func Inputs(records []vcard.Record, src Source, origin string) []Input {
	out := make([]Input, len(records))
	for i, r := range records {
		out[i] = Input{Record: r, Source: src, Origin: origin}
	}
	return out
}

// Options configures a run.
type Options struct {
	Match match.Options
	Names filenames.Policy
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// Output is one merged record and its unique file name.
type Output struct {
	Name    string
	Record  vcard.Record
	Sources []Input
}

// Result is the outcome of Run. Outputs are ordered by their first source.
type Result struct {
	Outputs []Output
	Inputs  int
}

// Merged returns how many outputs combine more than one input record.
func (r *Result) Merged() int {
	n := 0
	for _, o := range r.Outputs {
		if len(o.Sources) > 1 {
			n++
		}
	}
	return n
}

// Run merges existing and imported records. Input slices are not modified.
func Run(existing, imported []Input, opts Options) *Result {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	all := make([]Input, 0, len(existing)+len(imported))
	for _, in := range existing {
		in.Source = Existing
		all = append(all, in)
	}
	for _, in := range imported {
		in.Source = Imported
		all = append(all, in)
	}

	records := make([]vcard.Record, len(all))
	for i, in := range all {
		records[i] = in.Record
	}

	classes := match.Partition(records, opts.Match)
	log.Debug("partitioned contacts",
		zap.Int("records", len(records)),
		zap.Int("classes", len(classes)),
		zap.String("attributes", opts.Match.Attributes.String()))

	names := filenames.NewDedupe()
	ext := opts.Names.Ext()
	res := &Result{Inputs: len(all)}
	for _, c := range classes {
		merged := merge.Class(records, c)
		sources := make([]Input, len(c.Members))
		for i, m := range c.Members {
			sources[i] = all[m]
		}

		name := names.Claim(opts.Names.Sanitize(PrimaryName(merged)), ext)
		if len(sources) > 1 {
			log.Debug("merged contacts", zap.String("file", name), zap.Int("sources", len(sources)))
		}
		res.Outputs = append(res.Outputs, Output{Name: name, Record: merged, Sources: sources})
	}
	return res
}

// PrimaryName picks the identity a record's file is named after: the first
// FN, else the rendered N, else the first EMAIL, else the first TEL.
func PrimaryName(r vcard.Record) string {
	for _, fn := range r.Select("FN") {
		if v := strings.TrimSpace(fn.Text()); v != "" {
			return v
		}
	}
	for _, n := range r.Select("N") {
		if v := vcard.StructuredName(n.Decoded()); v != "" {
			return v
		}
	}
	for _, tag := range []string{"EMAIL", "TEL"} {
		for _, f := range r.Select(tag) {
			if v := strings.TrimSpace(f.Text()); v != "" {
				return v
			}
		}
	}
	return filenames.Fallback
}

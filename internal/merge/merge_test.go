package merge

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/uncaged-coder/vcardtools/internal/match"
	"github.com/uncaged-coder/vcardtools/internal/vcard"
)

func f(name, value string, params ...string) vcard.Field {
	return vcard.Field{Name: name, Params: params, Value: value}
}

func lines(r vcard.Record) []string {
	var out []string
	for _, fld := range r.Fields() {
		out = append(out, vcard.FormatField(fld))
	}
	return out
}

func TestMergeJaneDoeScenario(t *testing.T) {
	existingA := vcard.NewRecord(f("FN", "Jane Doe"), f("EMAIL", "jane@x.com"))
	existingB := vcard.NewRecord(f("FN", "Jane D"), f("TEL", "555-1234"))
	imported := vcard.NewRecord(f("FN", "Jane Doe"), f("EMAIL", "jane@x.com"), f("TEL", "555-1234"))
	records := []vcard.Record{existingA, existingB, imported}

	classes := match.Partition(records, match.Options{Attributes: match.NewAttributeSet(match.Email, match.Tel)})
	if len(classes) != 1 {
		t.Fatalf("expected one class, got %d", len(classes))
	}

	got := lines(Class(records, classes[0]))
	want := []string{"FN:Jane Doe", "EMAIL:jane@x.com", "FN:Jane D", "TEL:555-1234"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("merged record mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeKeepsDistinctParamsAndConflicts(t *testing.T) {
	a := vcard.NewRecord(f("EMAIL", "j@x.com", "TYPE=HOME"), f("NOTE", "one"))
	b := vcard.NewRecord(f("EMAIL", "j@x.com", "type=HOME"), f("EMAIL", "j@x.com", "TYPE=WORK"), f("NOTE", "two"))

	got := lines(Merge(a, b))
	want := []string{"EMAIL;TYPE=HOME:j@x.com", "NOTE:one", "EMAIL;TYPE=WORK:j@x.com", "NOTE:two"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("merged record mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeSingletonIsUnchanged(t *testing.T) {
	r := vcard.NewRecord(f("VERSION", "3.0"), f("FN", "Solo"), f("TEL", "1"))
	if got := Merge(r); !got.Equal(r) {
		t.Errorf("singleton changed: %v", lines(got))
	}
	if got := Merge(); got.Len() != 0 {
		t.Errorf("expected empty record, got %v", lines(got))
	}
}

func TestMergeIdempotent(t *testing.T) {
	class := []vcard.Record{
		vcard.NewRecord(f("FN", "A"), f("EMAIL", "a@x.com"), f("FN", "A")),
		vcard.NewRecord(f("FN", "A."), f("EMAIL", "a@x.com"), f("TEL", "1")),
	}
	merged := Merge(class...)
	again := Merge(append([]vcard.Record{merged}, class...)...)

	if diff := cmp.Diff(merged.KeySet(), again.KeySet()); diff != "" {
		t.Errorf("re-merge changed field set (-first +second):\n%s", diff)
	}
	if !Merge(merged, merged).Equal(merged) {
		t.Errorf("self-merge changed the record")
	}
}

func TestMergeNoDataLoss(t *testing.T) {
	class := []vcard.Record{
		vcard.NewRecord(f("FN", "X"), f("ADR", ";;1 Main St;Town;;;", "TYPE=HOME")),
		vcard.NewRecord(f("X-GROUP-MEMBERSHIP", "Friends"), f("CATEGORIES", "family")),
		vcard.NewRecord(f("FN", "X"), f("CATEGORIES", "work")),
	}
	merged := Merge(class...).KeySet()
	for _, r := range class {
		for key := range r.KeySet() {
			if _, ok := merged[key]; !ok {
				t.Errorf("merged record lost %q", key)
			}
		}
	}
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	a := vcard.NewRecord(f("FN", "A"))
	b := vcard.NewRecord(f("FN", "B"))
	_ = Merge(a, b)
	if a.Len() != 1 || b.Len() != 1 || a.First("FN") != "A" {
		t.Errorf("inputs mutated: %v %v", lines(a), lines(b))
	}
}

func TestDedupe(t *testing.T) {
	r := vcard.NewRecord(f("TEL", "1"), f("TEL", "1"), f("tel", "1"), f("TEL", "2"))
	got := lines(Dedupe(r))
	want := []string{"TEL:1", "TEL:2"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("dedupe mismatch (-want +got):\n%s", diff)
	}
}

func TestMergedQuotedPrintableRoundTrips(t *testing.T) {
	parsed, err := vcard.ParseString("BEGIN:VCARD\nVERSION:2.1\nNOTE;ENCODING=QUOTED-PRINTABLE:abc=\nEND:VCARD\n")
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	merged := Merge(parsed[0], vcard.NewRecord(f("TEL", "5551234")))
	if merged.Len() != 3 {
		t.Fatalf("expected 3 merged fields, got %v", lines(merged))
	}

	reparsed, err := vcard.ParseString(vcard.Serialize(merged))
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if diff := cmp.Diff(lines(merged), lines(reparsed[0])); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	if got := reparsed[0].First("TEL"); got != "5551234" {
		t.Errorf("TEL lost after round trip: %q", got)
	}
}

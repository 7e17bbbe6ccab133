package postprocess

import (
	"strings"
	"testing"
)

func TestTagCategories(t *testing.T) {
	in := "BEGIN:VCARD\nFN:A\nX-GROUP-MEMBERSHIP:Friends\nTEL:1\nX-GROUP-MEMBERSHIP:Family\nEND:VCARD\n"
	want := "BEGIN:VCARD\nFN:A\nX-GROUP-MEMBERSHIP:Friends\nCATEGORIES:perso\nTEL:1\nX-GROUP-MEMBERSHIP:Family\nCATEGORIES:perso\nEND:VCARD\n"

	got := TagCategories(in, "perso")
	if got != want {
		t.Fatalf("unexpected output:\n%s", got)
	}
	if again := TagCategories(got, "perso"); again != got {
		t.Errorf("tagging is not idempotent:\n%s", again)
	}
}

func TestTagCategoriesAfterFoldedLine(t *testing.T) {
	in := "BEGIN:VCARD\r\nX-GROUP-MEMBERSHIP:A very long\r\n  group name\r\nEND:VCARD\r\n"
	want := "BEGIN:VCARD\r\nX-GROUP-MEMBERSHIP:A very long\r\n  group name\r\nCATEGORIES:work\r\nEND:VCARD\r\n"
	if got := TagCategories(in, "work"); got != want {
		t.Errorf("unexpected output: %q", got)
	}
}

func TestTagCategoriesWithoutMembership(t *testing.T) {
	in := "BEGIN:VCARD\nFN:A\nEND:VCARD\n"
	if got := TagCategories(in, "x"); got != in {
		t.Errorf("expected unchanged text, got %q", got)
	}
}

func TestCollapseDuplicateLines(t *testing.T) {
	in := strings.Join([]string{
		"BEGIN:VCARD",
		"FN:A",
		"NOTE:first",
		"  same tail",
		"FN:A",
		"NOTE:second",
		"  same tail",
		"END:VCARD",
		"BEGIN:VCARD",
		"FN:A",
		"END:VCARD",
		"",
	}, "\n")
	want := strings.Join([]string{
		"BEGIN:VCARD",
		"FN:A",
		"NOTE:first",
		"  same tail",
		"NOTE:second",
		"  same tail",
		"END:VCARD",
		"BEGIN:VCARD",
		"FN:A",
		"END:VCARD",
		"",
	}, "\n")

	got := CollapseDuplicateLines(in)
	if got != want {
		t.Fatalf("unexpected output:\n%s", got)
	}
	if again := CollapseDuplicateLines(got); again != got {
		t.Errorf("collapse is not idempotent")
	}
}

func TestNormalizeLineEndings(t *testing.T) {
	in := "a\r\nb\nc\rd"
	if got := NormalizeLineEndings(in, LF); got != "a\nb\nc\nd" {
		t.Errorf("LF: %q", got)
	}
	if got := NormalizeLineEndings(in, CRLF); got != "a\r\nb\r\nc\r\nd" {
		t.Errorf("CRLF: %q", got)
	}
	crlf := NormalizeLineEndings(in, CRLF)
	if NormalizeLineEndings(crlf, CRLF) != crlf {
		t.Errorf("CRLF normalization is not idempotent")
	}
}

func TestParseLineEnding(t *testing.T) {
	tests := map[string]LineEnding{"": "", "LF": LF, "unix": LF, "crlf": CRLF, "dos": CRLF}
	for in, want := range tests {
		got, err := ParseLineEnding(in)
		if err != nil || got != want {
			t.Errorf("ParseLineEnding(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseLineEnding("mac"); err == nil {
		t.Errorf("expected error for unknown style")
	}
}

func TestPipelineApply(t *testing.T) {
	p := Pipeline{Category: "family", LineEnding: LF}
	in := []byte("BEGIN:VCARD\r\nX-GROUP-MEMBERSHIP:Kids\r\nCATEGORIES:family\r\nFN:A\r\nFN:A\r\nEND:VCARD\r\n")
	want := "BEGIN:VCARD\nX-GROUP-MEMBERSHIP:Kids\nCATEGORIES:family\nFN:A\nEND:VCARD\n"

	got := p.Apply(in)
	if string(got) != want {
		t.Fatalf("unexpected output: %q", got)
	}
	if again := p.Apply(got); string(again) != want {
		t.Errorf("pipeline is not idempotent: %q", again)
	}
}

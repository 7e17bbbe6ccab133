package ui

import (
	"strings"
	"testing"
)

func TestTableAlignsColumns(t *testing.T) {
	tbl := NewTable("BOOK", "DIR")
	tbl.AddRow("perso", "/c/perso")
	tbl.AddRow("famille", "/c/famille", "ignored")
	tbl.AddRow("x")

	lines := strings.Split(strings.TrimSuffix(tbl.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header and 3 rows, got %q", lines)
	}
	if !strings.HasPrefix(lines[1], "perso    /c/perso") {
		t.Errorf("unexpected alignment %q", lines[1])
	}
	if strings.Contains(lines[2], "ignored") {
		t.Errorf("extra cells should be dropped: %q", lines[2])
	}
	if strings.TrimSpace(lines[3]) != "x" {
		t.Errorf("unexpected last row %q", lines[3])
	}
	if tbl.Len() != 3 {
		t.Errorf("Len() = %d", tbl.Len())
	}
}

func TestTableEmpty(t *testing.T) {
	if s := NewTable("A").String(); s != "" {
		t.Errorf("expected empty output, got %q", s)
	}
}

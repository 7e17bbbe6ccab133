package sqlutil

import (
	"database/sql"
	"testing"

	"github.com/google/go-cmp/cmp"
	_ "modernc.org/sqlite"
)

func TestScanRows(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`CREATE TABLE files (name TEXT); INSERT INTO files VALUES ('a.vcf'), ('b.vcf');`); err != nil {
		t.Fatal(err)
	}

	query, args := Limit("SELECT name FROM files ORDER BY name", nil, 0)
	rows, err := db.Query(query, args...)
	if err != nil {
		t.Fatal(err)
	}
	got, err := ScanRows(rows, func(r *sql.Rows) (string, error) {
		var s string
		return s, r.Scan(&s)
	})
	if err != nil {
		t.Fatalf("ScanRows: %v", err)
	}
	if diff := cmp.Diff([]string{"a.vcf", "b.vcf"}, got); diff != "" {
		t.Errorf("ScanRows mismatch (-want +got):\n%s", diff)
	}
}

func TestLimit(t *testing.T) {
	q, args := Limit("SELECT 1 WHERE x = ?", []any{"a"}, 5)
	if q != "SELECT 1 WHERE x = ? LIMIT ?" || len(args) != 2 || args[1] != 5 {
		t.Errorf("Limit() = %q, %v", q, args)
	}
	q, args = Limit("SELECT 1", nil, -1)
	if q != "SELECT 1" || args != nil {
		t.Errorf("Limit() with no limit = %q, %v", q, args)
	}
}

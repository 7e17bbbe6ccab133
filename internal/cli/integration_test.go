//go:build integration

package cli_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/uncaged-coder/vcardtools/internal/testutil"
)

func janeWorkspace(t *testing.T) *testutil.TestWorkspace {
	t.Helper()
	return testutil.NewTestWorkspace(t).
		WithContact("perso", "Jane_Doe.vcf", testutil.Card("FN", "Jane Doe", "EMAIL", "jane@x.com")).
		WithContact("perso", "jd.vcf", testutil.Card("FN", "Jane D", "TEL", "555-1234")).
		WithAggregate("perso", testutil.Card("FN", "Jane Doe", "TEL", "555-1234")).
		Build()
}

// TestIntegration_ImportMergesAndJournalsRemovals imports an aggregate that
// links two existing contacts and checks the removal is reported and kept.
func TestIntegration_ImportMergesAndJournalsRemovals(t *testing.T) {
	w := janeWorkspace(t)

	result := w.RunCLI("import", "--yes")
	result.MustSucceed(t)
	result.AssertResultCount(t, "books", 1)
	result.AssertHasWarning(t, "CONTACT_REMOVED")

	w.AssertBookFiles("perso", "Jane_Doe.vcf")
	for _, line := range []string{"FN:Jane Doe\r\n", "FN:Jane D\r\n", "EMAIL:jane@x.com\r\n", "TEL:555-1234\r\n"} {
		w.AssertFileContains("contacts/perso/Jane_Doe.vcf", line)
	}

	removed := w.RunCLI("removed", "perso")
	removed.MustSucceed(t)
	removed.AssertResultCount(t, "removed", 1)
	entry, _ := removed.DataList("removed")[0].(map[string]interface{})
	if entry["file"] != "jd.vcf" || entry["merged_into"] != "Jane_Doe.vcf" {
		t.Errorf("unexpected removal entry: %v", entry)
	}
	if fp, _ := entry["fingerprint"].(string); !strings.HasPrefix(fp, "blake3:") {
		t.Errorf("expected blake3 fingerprint, got %q", fp)
	}
}

// TestIntegration_ImportTwiceIsStable checks that re-importing the same
// aggregate leaves the book unchanged.
func TestIntegration_ImportTwiceIsStable(t *testing.T) {
	w := janeWorkspace(t)

	w.RunCLI("import", "perso", "--yes").MustSucceed(t)
	first := w.ReadFile("contacts/perso/Jane_Doe.vcf")

	result := w.RunCLI("import", "perso", "--yes")
	result.MustSucceed(t)
	result.AssertNoWarnings(t)
	if second := w.ReadFile("contacts/perso/Jane_Doe.vcf"); second != first {
		t.Errorf("second import changed the file:\n%q\n%q", first, second)
	}
}

func TestIntegration_ImportDryRunLeavesBookAlone(t *testing.T) {
	w := janeWorkspace(t)

	result := w.RunCLI("import", "perso", "--dry-run")
	result.MustSucceed(t)
	result.AssertHasWarning(t, "CONTACT_REMOVED")
	w.AssertBookFiles("perso", "Jane_Doe.vcf", "jd.vcf")
	w.AssertFileNotExists("work/.vcardtools/history.db")
}

func TestIntegration_ImportSkipsBooksWithoutInput(t *testing.T) {
	w := testutil.NewTestWorkspace(t).
		WithContact("perso", "Ann.vcf", testutil.Card("FN", "Ann")).
		WithBook("work").
		WithAggregate("work", testutil.Card("FN", "Bob", "EMAIL", "bob@corp.com")).
		Build()

	result := w.RunCLI("import")
	result.MustSucceed(t)
	result.AssertResultCount(t, "books", 2)
	result.AssertHasWarning(t, "BOOK_SKIPPED")
	w.AssertBookFiles("perso", "Ann.vcf")
	w.AssertBookFiles("work", "Bob.vcf")
}

func TestIntegration_ImportNamedBookWithoutInputFails(t *testing.T) {
	w := testutil.NewTestWorkspace(t).WithBook("perso").Build()

	w.RunCLI("import", "perso").MustFail(t, "NO_INPUT")
}

func TestIntegration_ImportMalformedAggregate(t *testing.T) {
	w := testutil.NewTestWorkspace(t).
		WithContact("perso", "Ann.vcf", testutil.Card("FN", "Ann")).
		WithAggregate("perso", "BEGIN:VCARD\r\nFN:Broken\r\n").
		Build()

	w.RunCLI("import", "perso").MustFail(t, "MALFORMED_VCARD")
	w.AssertBookFiles("perso", "Ann.vcf")
}

func TestIntegration_ImportFailureDoesNotStopOtherBooks(t *testing.T) {
	w := testutil.NewTestWorkspace(t).
		WithAggregate("broken", "BEGIN:VCARD\r\nFN:Broken\r\n").
		WithAggregate("good", testutil.Card("FN", "Carol")).
		Build()

	result := w.RunCLI("import")
	result.MustFail(t, "MALFORMED_VCARD")
	result.AssertResultCount(t, "books", 2)
	w.AssertBookFiles("good", "Carol.vcf")
}

func TestIntegration_ImportExplicitFile(t *testing.T) {
	w := testutil.NewTestWorkspace(t).WithBook("perso").WithBook("work").Build()
	file := filepath.Join(w.Root, "phone.vcf")
	if err := os.WriteFile(file, []byte(testutil.Card("FN", "Dan Smith")), 0o644); err != nil {
		t.Fatal(err)
	}

	w.RunCLI("import", "--file", file).MustFail(t, "INVALID_INPUT")

	w.RunCLI("import", "perso", "--file", file).MustSucceed(t)
	w.AssertBookFiles("perso", "Dan_Smith.vcf")
	w.AssertFileContains("contacts/perso/Dan_Smith.vcf", "FN:Dan Smith\r\n")
}

func TestIntegration_ImportTagsCategories(t *testing.T) {
	w := testutil.NewTestWorkspace(t).
		WithBookYAML("famille", "category: Family\nline_ending: lf\n").
		WithAggregate("famille", testutil.Card("FN", "Eve", "X-GROUP-MEMBERSHIP", "Friends")).
		Build()

	w.RunCLI("import", "famille").MustSucceed(t)
	w.AssertFileContains("contacts/famille/Eve.vcf", "X-GROUP-MEMBERSHIP:Friends\nCATEGORIES:Family\n")
}

func TestIntegration_UnknownBook(t *testing.T) {
	w := testutil.NewTestWorkspace(t).WithBook("perso").Build()

	w.RunCLI("import", "nope").MustFail(t, "BOOK_NOT_FOUND")
	w.RunCLI("export", "nope").MustFail(t, "BOOK_NOT_FOUND")
	w.RunCLI("removed", "nope").MustFail(t, "BOOK_NOT_FOUND")
}

func TestIntegration_ExportThenImportRoundTrip(t *testing.T) {
	w := testutil.NewTestWorkspace(t).
		WithContact("perso", "Ann.vcf", testutil.Card("FN", "Ann", "EMAIL", "ann@x.com")).
		WithContact("perso", "Bob.vcf", testutil.Card("FN", "Bob", "TEL", "0601020304")).
		Build()

	result := w.RunCLI("export")
	result.MustSucceed(t)
	result.AssertResultCount(t, "books", 1)
	w.AssertFileExists("work/perso.vcf")
	w.AssertFileContains("work/perso.vcf", "FN:Ann\r\n")
	w.AssertFileContains("work/perso.vcf", "FN:Bob\r\n")

	imported := w.RunCLI("import", "perso")
	imported.MustSucceed(t)
	imported.AssertNoWarnings(t)
	w.AssertBookFiles("perso", "Ann.vcf", "Bob.vcf")
}

func TestIntegration_Books(t *testing.T) {
	w := testutil.NewTestWorkspace(t).
		WithContact("perso", "Ann.vcf", testutil.Card("FN", "Ann")).
		WithBook("work").
		WithAggregate("work", testutil.Card("FN", "Bob")).
		Build()

	result := w.RunCLI("books")
	result.MustSucceed(t)
	result.AssertResultCount(t, "books", 2)

	books := result.DataList("books")
	perso, _ := books[0].(map[string]interface{})
	work, _ := books[1].(map[string]interface{})
	if perso["name"] != "perso" || perso["contacts"] != float64(1) || perso["pending_import"] != false {
		t.Errorf("unexpected perso entry: %v", perso)
	}
	if work["name"] != "work" || work["pending_import"] != true {
		t.Errorf("unexpected work entry: %v", work)
	}
}

func TestIntegration_Merge(t *testing.T) {
	w := testutil.NewTestWorkspace(t).Build()
	phone := filepath.Join(w.Root, "phone.vcf")
	laptop := filepath.Join(w.Root, "laptop.vcf")
	if err := os.WriteFile(phone, []byte(testutil.Card("FN", "Jane Doe", "TEL", "+33 6 12 34 56 78")), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(laptop, []byte(testutil.Card("FN", "J. Doe", "TEL", "06 12 34 56 78")+testutil.Card("FN", "Zed")), 0o644); err != nil {
		t.Fatal(err)
	}

	dest := filepath.Join(w.Root, "out")
	result := w.RunCLI("merge", dest, phone, laptop, "-a", "tel")
	result.MustSucceed(t)
	result.AssertResultCount(t, "files", 2)
	w.AssertFileContains("out/Jane_Doe.vcf", "FN:J. Doe\r\n")
	w.AssertFileExists("out/Zed.vcf")

	w.RunCLI("merge", dest, phone).MustFail(t, "DESTINATION_EXISTS")
	w.RunCLI("merge", filepath.Join(w.Root, "out2"), filepath.Join(w.Root, "missing.vcf")).MustFail(t, "FILE_NOT_FOUND")
}

func TestIntegration_MergeGroup(t *testing.T) {
	w := testutil.NewTestWorkspace(t).Build()
	file := filepath.Join(w.Root, "all.vcf")
	content := testutil.Card("FN", "Jane Doe", "EMAIL", "jane@x.com") +
		testutil.Card("FN", "Janie", "EMAIL", "JANE@x.com") +
		testutil.Card("FN", "Zed")
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	result := w.RunCLI("merge", filepath.Join(w.Root, "out"), file, "--group", "-a", "email")
	result.MustSucceed(t)
	w.AssertFileExists("out/Jane_Doe/Jane_Doe.vcf")
	w.AssertFileExists("out/Jane_Doe/Janie.vcf")
	w.AssertFileExists("out/Zed.vcf")
}

package cli

import (
	"strings"
	"testing"
	"time"
)

func TestRemovedReport(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	md := removedReport("perso", []removedEntry{
		{RunID: 2, File: "jd.vcf", MergedInto: "Jane_Doe.vcf", Fingerprint: "blake3:0123456789abcdef0123", RemovedAt: at},
		{RunID: 1, File: "odd|name.vcf", Fingerprint: "blake3:ff", RemovedAt: at},
	})

	for _, want := range []string{
		"# Contacts removed from perso\n",
		"| 2024-03-01 10:30 | jd.vcf | Jane_Doe.vcf | `blake3:0123456789ab` |\n",
		"| 2024-03-01 10:30 | odd\\|name.vcf | - | `blake3:ff` |\n",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("report missing %q:\n%s", want, md)
		}
	}
}

func TestShortFingerprint(t *testing.T) {
	tests := map[string]string{
		"blake3:0123456789abcdef": "blake3:0123456789ab",
		"blake3:abc":              "blake3:abc",
		"plain":                   "plain",
	}
	for in, want := range tests {
		if got := shortFingerprint(in); got != want {
			t.Errorf("shortFingerprint(%q) = %q, want %q", in, got, want)
		}
	}
}

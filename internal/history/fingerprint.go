package history

import (
	"encoding/hex"
	"strings"

	"github.com/zeebo/blake3"
)

// fingerprintKey separates contact fingerprints from any other BLAKE3 use.
var fingerprintKey = [32]byte{
	'v', 'c', 'a', 'r', 'd', 't', 'o', 'o', 'l', 's', '.', 'c', 'o', 'n', 't', 'a',
	'c', 't', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// Fingerprint returns "blake3:<hex>" for a contact file's content. Line
// endings are normalized first so a CRLF and an LF copy fingerprint the same.
func Fingerprint(content []byte) string {
	text := strings.ReplaceAll(string(content), "\r\n", "\n")

	hasher, err := blake3.NewKeyed(fingerprintKey[:])
	if err != nil {
		// Only fails for a key that is not 32 bytes.
		panic(err)
	}
	hasher.Write([]byte(text)) //nolint:errcheck
	return "blake3:" + hex.EncodeToString(hasher.Sum(nil))
}

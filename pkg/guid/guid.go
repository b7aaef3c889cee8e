// Package guid derives Anki-compatible note GUIDs from field contents.
//
// Anki deduplicates notes on import by GUID, so the derivation has to match
// Anki's own algorithm bit for bit: two exports of the same content must
// collide, and a changed field must produce a different GUID.
package guid

import (
	"crypto/sha256"
	"encoding/binary"
	"strings"
)

// base91Table is the alphabet Anki uses to encode note GUIDs.
const base91Table = "abcdefghijklmnopqrstuvwxyz" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"0123456789" +
	"!#$%&()*+,-./:;<=>?@[]^_`{|}~"

// GenerateFor derives a stable GUID from the given values: the values are
// joined with a double underscore, SHA-256 hashed, and the first 8 bytes of
// the digest are read as a big-endian unsigned integer and encoded in base 91,
// most significant digit first.
func GenerateFor(values ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(values, "__")))
	n := binary.BigEndian.Uint64(sum[:8])

	var buf []byte
	for n > 0 {
		buf = append(buf, base91Table[n%91])
		n /= 91
	}

	// Digits were collected least significant first.
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf)
}

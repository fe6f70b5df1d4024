package stock

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// HashBarcode normalises raw barcode data and returns its hex digest.
// Leading and trailing whitespace and non-printable characters are dropped
// so the same physical label always hashes identically.
func HashBarcode(data string) string {
	data = strings.TrimSpace(data)
	data = strings.Map(func(r rune) rune {
		if r < 0x20 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		if r > 0x7e {
			return -1
		}
		return r
	}, data)

	sum := blake2b.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

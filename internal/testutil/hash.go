package testutil

import (
	"crypto/md5"
	"encoding/hex"
)

// ETag returns the entity tag for data in the format the stores publish:
// the MD5 checksum as lowercase hex, wrapped in double quotes.
func ETag(data []byte) string {
	h := md5.Sum(data)
	return `"` + hex.EncodeToString(h[:]) + `"`
}

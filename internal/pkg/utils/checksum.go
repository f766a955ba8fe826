package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// Checksum is the identity key of an uploaded file.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

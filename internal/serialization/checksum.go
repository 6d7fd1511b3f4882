package serialization

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
)

// ComputeChecksum returns the hex-encoded SHA-256 checksum of data.
func ComputeChecksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ComputeChecksumReader computes the hex-encoded SHA-256 checksum from an
// io.Reader without loading it entirely into memory.
func ComputeChecksumReader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ValidateChecksum compares computed checksum against stored checksum.
// An empty stored checksum (format 1.0) is accepted.
// Returns ErrChecksumMismatch if they don't match.
func ValidateChecksum(computed, stored string) error {
	if stored != "" && computed != stored {
		return ErrChecksumMismatch
	}
	return nil
}

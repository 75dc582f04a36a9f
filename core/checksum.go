package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// ContentHash returns the lowercase hex SHA-256 of text. The embedding store
// keys vectors by this value, so identical inputs under different file names
// share one entry.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// ComputeSHA256 computes the SHA-256 of a file as lowercase hex.
func ComputeSHA256(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("filepath cannot be empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file %q: %w", path, err)
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("failed to read file %q: %w", path, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

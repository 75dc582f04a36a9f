// Package llamaruntime provides Go bindings to llama.cpp for local embedding inference.
// This file contains pure functions for model file checks.
//
// llama_load_model_from_file only reports NULL on failure, so these checks
// run before Load to tell a missing file apart from a corrupt one.
package llamaruntime

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ggufMagic is the first four bytes of every GGUF file.
const ggufMagic = "GGUF"

// ErrModelFileNotFound is wrapped by InspectModelFile when nothing exists at the path.
var ErrModelFileNotFound = errors.New("model file not found")

// ModelFileInfo describes a model file on disk.
type ModelFileInfo struct {
	Path    string
	Name    string
	Size    int64
	Version uint32 // GGUF format version from the header
}

// =============================================================================
// Model Path Validation
// =============================================================================

// ValidateModelPath checks if a model path points to a valid GGUF file.
// It checks that the file exists, is not a directory, has a .gguf
// extension and starts with the GGUF magic.
// 2. File exists and is not a directory
// 3. File has .gguf extension
// 4. File starts with the GGUF magic number
func ValidateModelPath(path string) error {
	_, err := InspectModelFile(path)
	return err
}

// InspectModelFile validates path like ValidateModelPath and returns what it
// learned from the file header.
func InspectModelFile(path string) (ModelFileInfo, error) {
	if path == "" {
		return ModelFileInfo{}, fmt.Errorf("model path is empty")
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ModelFileInfo{}, fmt.Errorf("%w: %s", ErrModelFileNotFound, path)
	}
	if err != nil {
		return ModelFileInfo{}, fmt.Errorf("cannot access model file: %w", err)
	}
	if info.IsDir() {
		return ModelFileInfo{}, fmt.Errorf("model path is a directory, not a file: %s", path)
	}

	if !IsGGUFFile(path) {
		return ModelFileInfo{}, fmt.Errorf("model file does not have .gguf extension: %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return ModelFileInfo{}, fmt.Errorf("cannot open model file: %w", err)
	}
	defer f.Close()

	// magic (4 bytes) followed by a little-endian uint32 version
	header := make([]byte, 8)
	n, err := io.ReadFull(f, header)
	if n < 4 {
		return ModelFileInfo{}, fmt.Errorf("cannot read model file header: %w", err)
	}
	if string(header[:4]) != ggufMagic {
		return ModelFileInfo{}, fmt.Errorf("invalid GGUF file: magic number mismatch (got %q)", string(header[:4]))
	}

	var version uint32
	if n == 8 {
		version = binary.LittleEndian.Uint32(header[4:])
	}

	return ModelFileInfo{
		Path:    path,
		Name:    ModelName(path),
		Size:    info.Size(),
		Version: version,
	}, nil
}

// IsGGUFFile returns true if the path has a .gguf extension.
func IsGGUFFile(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".gguf")
}

// ResolveModelPath resolves a model path against modelsDir.
// Absolute paths are returned as-is; an empty modelsDir means ".".
func ResolveModelPath(path, modelsDir string) string {
	if path == "" {
		return ""
	}
	if filepath.IsAbs(path) {
		return path
	}
	if modelsDir == "" {
		modelsDir = "."
	}
	return filepath.Join(modelsDir, path)
}

// ModelName extracts the model name from a file path.
// For "models/llama-2-7b.Q4_0.gguf", returns "llama-2-7b.Q4_0".
func ModelName(path string) string {
	if path == "" {
		return ""
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

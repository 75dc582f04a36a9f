package core

import (
	"bytes"
	"errors"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadConfigFile overlays the YAML document at path onto cfg. Keys absent
// from the file keep their current values; unknown keys are rejected so a
// misspelt setting does not silently fall back to its default.
func LoadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return ErrConfigFile(path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return ErrConfigFile(path, err)
	}
	return nil
}

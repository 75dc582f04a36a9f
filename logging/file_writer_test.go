package logging

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWithFileDefaults(t *testing.T) {
	tests := []struct {
		name string
		in   FileWriterConfig
		want FileWriterConfig
	}{
		{
			name: "zero value",
			in:   FileWriterConfig{},
			want: FileWriterConfig{MaxSizeMB: DefaultMaxSizeMB, MaxBackups: DefaultMaxBackups, MaxAgeDays: DefaultMaxAgeDays},
		},
		{
			name: "explicit values kept",
			in:   FileWriterConfig{MaxSizeMB: 5, MaxBackups: 1, MaxAgeDays: 2, NoCompress: true},
			want: FileWriterConfig{MaxSizeMB: 5, MaxBackups: 1, MaxAgeDays: 2, NoCompress: true},
		},
		{
			name: "negative replaced",
			in:   FileWriterConfig{MaxSizeMB: -1},
			want: FileWriterConfig{MaxSizeMB: DefaultMaxSizeMB, MaxBackups: DefaultMaxBackups, MaxAgeDays: DefaultMaxAgeDays},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := withFileDefaults(tt.in); got != tt.want {
				t.Errorf("withFileDefaults() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNewFileWriter_WritesAndCreates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rotating.log")
	w := NewFileWriter(path)

	if _, err := w.Write([]byte("line one\n")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Sync(); err != nil {
		t.Logf("Sync() warning: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "line one\n" {
		t.Errorf("file content = %q", data)
	}
}

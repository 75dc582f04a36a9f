// Package textsource turns input files into the text that gets embedded.
// Plain files are used byte for byte; PDFs go through a text extractor.
package textsource

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"llamaembed/core"
)

// Kind identifies how a document's text was obtained.
type Kind string

const (
	KindText Kind = "text"
	KindPDF  Kind = "pdf"
)

// pdfMagic starts every PDF file regardless of extension.
var pdfMagic = []byte("%PDF-")

// ErrEmptyPath is returned when an empty file path is provided.
var ErrEmptyPath = errors.New("empty input path provided")

// Document is one input file ready for embedding.
type Document struct {
	Path  string
	Name  string
	Kind  Kind
	Text  string
	Pages int // zero for plain text
	// ContentSHA256 hashes Text, not the file bytes, so a PDF and a text
	// file with the same content share a store entry.
	ContentSHA256 string
}

// Size returns the length of Text in bytes.
func (d *Document) Size() int {
	return len(d.Text)
}

// Reader loads Documents.
type Reader struct {
	pdf *PDFExtractor
}

// NewReader creates a Reader using the given PDF settings.
func NewReader(config PDFConfig) *Reader {
	return &Reader{pdf: NewPDFExtractor(config)}
}

// NewDefaultReader creates a Reader with default PDF settings.
func NewDefaultReader() *Reader {
	return NewReader(DefaultPDFConfig())
}

// Read loads path. Files with a .pdf extension or a PDF header are
// extracted; anything else is read as-is.
func (r *Reader) Read(path string) (*Document, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	isPDF, err := sniffPDF(path)
	if err != nil {
		return nil, err
	}

	doc := &Document{Path: path, Name: filepath.Base(path)}
	if isPDF {
		result, err := r.pdf.Extract(path)
		if err != nil {
			return nil, fmt.Errorf("extract %s: %w", path, err)
		}
		doc.Kind = KindPDF
		doc.Text = result.Text
		doc.Pages = result.TotalPages
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		doc.Kind = KindText
		doc.Text = string(data)
	}

	doc.ContentSHA256 = core.ContentHash(doc.Text)
	return doc, nil
}

func sniffPDF(path string) (bool, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return true, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	defer f.Close()

	head := make([]byte, len(pdfMagic))
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	return bytes.Equal(head[:n], pdfMagic), nil
}

package textsource

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNoPDFContent is returned when a PDF contains no extractable text.
var ErrNoPDFContent = errors.New("no text content found in PDF")

// PageResult is the text of a single PDF page.
type PageResult struct {
	// PageNumber is 1-indexed
	PageNumber int
	Text       string
	// Error is non-nil if extraction failed for this page
	Error error
}

// PDFResult is the outcome of extracting a whole PDF.
type PDFResult struct {
	Text           string
	TotalPages     int
	ExtractedPages int
	SkippedPages   int
	Pages          []PageResult
	Errors         []error
}

// PDFConfig holds configuration for PDF text extraction.
type PDFConfig struct {
	// PageSeparator is inserted between page texts. Defaults to "\n\n".
	PageSeparator string

	// ContinueOnError keeps going when a page fails to decode.
	ContinueOnError bool

	// MaxPages limits extraction to the first N pages (0 for all pages)
	MaxPages int
}

// DefaultPDFConfig returns sensible default configuration.
func DefaultPDFConfig() PDFConfig {
	return PDFConfig{
		PageSeparator:   "\n\n",
		ContinueOnError: true,
	}
}

// PDFExtractor extracts plain text from PDF files.
type PDFExtractor struct {
	config PDFConfig
}

// NewPDFExtractor creates a PDFExtractor with the given configuration.
func NewPDFExtractor(config PDFConfig) *PDFExtractor {
	if config.PageSeparator == "" {
		config.PageSeparator = "\n\n"
	}
	return &PDFExtractor{config: config}
}

// Extract reads the PDF at path and joins the text of its pages. Pages
// without text are skipped. A PDF with no text at all returns the partial
// result together with ErrNoPDFContent.
func (e *PDFExtractor) Extract(path string) (*PDFResult, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	return e.extract(r)
}

func (e *PDFExtractor) extract(r *pdf.Reader) (*PDFResult, error) {
	total := r.NumPage()
	result := &PDFResult{
		TotalPages: total,
		Pages:      make([]PageResult, 0, total),
	}

	limit := total
	if e.config.MaxPages > 0 && e.config.MaxPages < total {
		limit = e.config.MaxPages
	}

	var text strings.Builder
	for i := 1; i <= limit; i++ {
		page := extractPage(r, i)
		result.Pages = append(result.Pages, page)

		if page.Error != nil {
			result.Errors = append(result.Errors, fmt.Errorf("page %d: %w", i, page.Error))
			result.SkippedPages++
			if !e.config.ContinueOnError {
				return result, page.Error
			}
			continue
		}
		if page.Text == "" {
			result.SkippedPages++
			continue
		}

		result.ExtractedPages++
		if text.Len() > 0 {
			text.WriteString(e.config.PageSeparator)
		}
		text.WriteString(page.Text)
	}

	result.Text = text.String()
	if result.Text == "" {
		return result, ErrNoPDFContent
	}
	return result, nil
}

func extractPage(r *pdf.Reader, index int) PageResult {
	result := PageResult{PageNumber: index}

	p := r.Page(index)
	if p.V.IsNull() {
		return result
	}

	text, err := p.GetPlainText(nil)
	if err != nil {
		result.Error = fmt.Errorf("failed to extract text: %w", err)
		return result
	}
	result.Text = strings.TrimSpace(text)
	return result
}

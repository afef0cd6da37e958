// Package extract converts an uploaded binary into plain UTF-8 text by file
// type. PDF and DOCX go through their dedicated extractors; plain text and
// markdown pass through unchanged.
package extract

import (
	"errors"
	"io"
	"path/filepath"
	"strings"

	"documet/internal/pkg/docxextract"
	"documet/internal/pkg/pdfextract"
)

// ErrUnsupportedType reports a file type with no extractor.
var ErrUnsupportedType = errors.New("unsupported file type")

// Text extracts plain text from r based on the filename extension.
func Text(r io.Reader, filename string) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return pdfextract.ExtractText(r)
	case ".docx":
		return docxextract.ExtractText(r)
	case ".txt", ".md", ".text":
		b, err := io.ReadAll(r)
		if err != nil {
			return "", err
		}
		return string(b), nil
	default:
		return "", ErrUnsupportedType
	}
}

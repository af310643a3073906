// Package extract pulls plain text out of the document types the backend
// accepts for upload.
package extract

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// MaxSize is the largest document accepted, in bytes.
const MaxSize = 20 << 20

var (
	// ErrUnsupportedType is returned for extensions other than .pdf, .docx,
	// .txt and .json.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrTooLarge is returned for documents bigger than MaxSize.
	ErrTooLarge = errors.New("file too large")

	// ErrEmpty is returned when a document yields no text.
	ErrEmpty = errors.New("no text found in document")
)

// Type is a supported document type.
type Type string

const (
	TypePDF  Type = "pdf"
	TypeDOCX Type = "docx"
	TypeTXT  Type = "txt"
	TypeJSON Type = "json"
)

// TypeOf returns the document type for name, judged by its extension.
func TypeOf(name string) (Type, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return TypePDF, nil
	case ".docx":
		return TypeDOCX, nil
	case ".txt":
		return TypeTXT, nil
	case ".json":
		return TypeJSON, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, filepath.Base(name))
	}
}

// Supported reports whether name has a supported extension.
func Supported(name string) bool {
	_, err := TypeOf(name)
	return err == nil
}

// File extracts the text of the document at path.
func File(path string) (string, error) {
	if _, err := TypeOf(path); err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}

	return Reader(filepath.Base(path), f, info.Size())
}

// Reader extracts the text of a document named name read from r. size is
// the document size in bytes.
func Reader(name string, r io.ReaderAt, size int64) (string, error) {
	typ, err := TypeOf(name)
	if err != nil {
		return "", err
	}
	if size > MaxSize {
		return "", fmt.Errorf("%w: %s is %d bytes, limit is %d", ErrTooLarge, name, size, MaxSize)
	}

	var text string
	switch typ {
	case TypePDF:
		text, err = pdfText(r, size)
	case TypeDOCX:
		text, err = docxText(r, size)
	case TypeTXT:
		text, err = plainText(io.NewSectionReader(r, 0, size))
	case TypeJSON:
		text, err = jsonText(io.NewSectionReader(r, 0, size))
	}
	if err != nil {
		return "", fmt.Errorf("extracting %s: %w", name, err)
	}

	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: %s", ErrEmpty, name)
	}

	return text, nil
}

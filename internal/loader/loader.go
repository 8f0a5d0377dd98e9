// Package loader reads narrative documents from disk. Only plain-text
// formats are accepted; binary document parsing happens upstream of this
// tool.
package loader

import (
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
)

var (
	// ErrInvalidFormat indicates an unsupported file extension or
	// non-UTF-8 content.
	ErrInvalidFormat = eris.New("loader: invalid document format")

	// ErrEmptyDocument indicates a document with no usable text.
	ErrEmptyDocument = eris.New("loader: empty document")
)

// Supported returns true if the file extension is a recognized
// narrative format.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
		return true
	default:
		return false
	}
}

// Load reads the narrative at path.
func Load(path string) (string, error) {
	if !Supported(path) {
		return "", eris.Wrapf(ErrInvalidFormat, "unsupported extension %q", filepath.Ext(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", eris.Wrapf(err, "loader: read %s", path)
	}
	return LoadBytes(data)
}

// LoadBytes validates and normalizes raw narrative bytes.
func LoadBytes(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", eris.Wrap(ErrInvalidFormat, "document is not valid UTF-8")
	}

	text := string(data)
	text = strings.TrimPrefix(text, "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSpace(text)

	if text == "" {
		return "", ErrEmptyDocument
	}
	return text, nil
}

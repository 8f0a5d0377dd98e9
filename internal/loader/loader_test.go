package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadPlainText(t *testing.T) {
	path := writeTemp(t, "case.txt", "Mr Smith worked at Acme Corp.\n")
	text, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Mr Smith worked at Acme Corp.", text)
}

func TestLoadMarkdown(t *testing.T) {
	path := writeTemp(t, "case.md", "# Case notes\n\nInherited £250,000.\n")
	text, err := Load(path)
	require.NoError(t, err)
	assert.Contains(t, text, "Inherited £250,000.")
}

func TestLoadUnsupportedExtension(t *testing.T) {
	path := writeTemp(t, "case.pdf", "%PDF-1.4")
	_, err := Load(path)
	require.ErrorIs(t, err, ErrInvalidFormat)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
}

func TestLoadBytesEmptyDocument(t *testing.T) {
	for _, content := range []string{"", "   \n\t\n"} {
		_, err := LoadBytes([]byte(content))
		assert.ErrorIs(t, err, ErrEmptyDocument)
	}
}

func TestLoadBytesInvalidUTF8(t *testing.T) {
	_, err := LoadBytes([]byte{0xff, 0xfe, 0x41})
	require.ErrorIs(t, err, ErrInvalidFormat)
}

func TestLoadBytesNormalizes(t *testing.T) {
	text, err := LoadBytes([]byte("\ufeffline one\r\nline two\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", text)
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("a.txt"))
	assert.True(t, Supported("A.MD"))
	assert.False(t, Supported("a.docx"))
	assert.False(t, Supported("a"))
}

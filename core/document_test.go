package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentSource_ReadInline(t *testing.T) {
	src := TextSource("mail-1", "Connection from 203.0.113.5")

	text, err := src.Read()
	require.NoError(t, err)
	assert.Equal(t, "Connection from 203.0.113.5", text)
	assert.Equal(t, "mail-1", src.Ref())
}

func TestDocumentSource_ReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "incident.log")
	require.NoError(t, os.WriteFile(path, []byte("suspicious login detected"), 0600))

	src := FileSource(path)
	text, err := src.Read()
	require.NoError(t, err)
	assert.Equal(t, "suspicious login detected", text)
	assert.Equal(t, "incident.log", src.Ref())
}

func TestDocumentSource_MissingFile(t *testing.T) {
	src := FileSource(filepath.Join(t.TempDir(), "does-not-exist.log"))

	_, err := src.Read()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInputUnreadable)
}

func TestDocumentSource_InvalidUTF8(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "binary.bin")
	require.NoError(t, os.WriteFile(path, []byte{0xff, 0xfe, 0x00, 0x80}, 0600))

	_, err := FileSource(path).Read()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInputNotUTF8)
}

func TestDocumentSource_EmptyInlineRef(t *testing.T) {
	src := TextSource("", "")
	assert.Equal(t, "inline", src.Ref())

	text, err := src.Read()
	require.NoError(t, err)
	assert.Empty(t, text)
}

package core

import (
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"
)

// DocumentSource describes one input to the pipeline: either inline text or
// a path to a UTF-8 text file. When both are set, inline text wins.
type DocumentSource struct {
	// Name is the caller-supplied reference recorded as document_name. When
	// empty it defaults to the file base name, or "inline" for raw text.
	Name string
	// Text is inline document content
	Text string
	// Path is a file to read when Text is empty
	Path string
}

// TextSource builds a source from raw text.
func TextSource(name, text string) DocumentSource {
	return DocumentSource{Name: name, Text: text}
}

// FileSource builds a source from a file path.
func FileSource(path string) DocumentSource {
	return DocumentSource{Path: path}
}

// Ref returns the source reference for this document.
func (s DocumentSource) Ref() string {
	if s.Name != "" {
		return s.Name
	}
	if s.Path != "" {
		return filepath.Base(s.Path)
	}
	return "inline"
}

// Read resolves the source to document text. Unreadable files and invalid
// UTF-8 surface as ErrInputUnreadable / ErrInputNotUTF8 so the orchestrator
// can mark the document FAILED without aborting a batch.
func (s DocumentSource) Read() (string, error) {
	text := s.Text
	if text == "" && s.Path != "" {
		data, err := os.ReadFile(s.Path)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrInputUnreadable, s.Path, err)
		}
		text = string(data)
	}

	if !utf8.ValidString(text) {
		return "", fmt.Errorf("%w: %s", ErrInputNotUTF8, s.Ref())
	}

	return text, nil
}

package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"medo/internal/media"
	"medo/internal/safeio"
)

// maxInlineFile bounds files sent inline as data URIs.
const maxInlineFile = 20 << 20

// fileRef loads a local file into a data-URI reference. The MIME type is
// sniffed from the content.
func fileRef(path string) (*media.Reference, error) {
	data, err := safeio.ReadFileLimit(path, maxInlineFile)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	mt := mimetype.Detect(data).String()
	if base, _, ok := strings.Cut(mt, ";"); ok {
		mt = strings.TrimSpace(base)
	}
	return &media.Reference{URL: media.DataURI(mt, data), MIMEType: mt, Name: filepath.Base(path)}, nil
}

// textOrFile returns --text, or the contents of --input when text is empty.
func textOrFile(text, path string) (string, error) {
	if strings.TrimSpace(text) != "" || path == "" {
		return text, nil
	}
	data, err := safeio.ReadFileLimit(path, maxInlineFile)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

func optionalRef(path string) (*media.Reference, error) {
	if path == "" {
		return nil, nil
	}
	return fileRef(path)
}

// Package media handles the self-contained file payloads that flows accept:
// data URIs of the form data:<mime>;base64,<payload>.
package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidDataURI  = errors.New("media: invalid data uri")
	ErrUnsupportedType = errors.New("media: unsupported mime type")
	ErrMIMEMismatch    = errors.New("media: mime type does not match data uri")
)

// Class is an accepted family of MIME types. A trailing "/*" matches any
// subtype.
type Class string

const (
	ClassImage Class = "image/*"
	ClassPDF   Class = "application/pdf"
	ClassAudio Class = "audio/*"
)

// Match reports whether mime belongs to the class.
func (c Class) Match(mime string) bool {
	mime = baseType(mime)
	if mime == "" {
		return false
	}
	pattern := string(c)
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		return strings.HasPrefix(mime, prefix+"/") && len(mime) > len(prefix)+1
	}
	return mime == pattern
}

// Reference points at a file by value. URL is always a data URI; no external
// storage is consulted.
type Reference struct {
	URL      string `json:"url"`
	MIMEType string `json:"mimeType,omitempty"`
	Name     string `json:"name,omitempty"`
}

// Blob is a decoded reference.
type Blob struct {
	MIMEType string
	Data     []byte
}

// Decode parses the data URI, checks that the payload is valid base64 and
// that the MIME type belongs to one of the accepted classes. With no classes
// any type is accepted.
func (r Reference) Decode(accept ...Class) (Blob, error) {
	mime, params, payload, err := split(r.URL)
	if err != nil {
		return Blob{}, err
	}
	if declared := baseType(r.MIMEType); declared != "" {
		if mime != "" && declared != mime {
			return Blob{}, fmt.Errorf("%w: declared %q, uri %q", ErrMIMEMismatch, declared, mime)
		}
		mime = declared
	}
	if mime == "" {
		return Blob{}, fmt.Errorf("%w: missing mime type", ErrInvalidDataURI)
	}
	if len(accept) > 0 && !matchAny(mime, accept) {
		return Blob{}, fmt.Errorf("%w: %s (accepted: %s)", ErrUnsupportedType, mime, joinClasses(accept))
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Blob{}, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}
	if len(data) == 0 {
		return Blob{}, fmt.Errorf("%w: empty payload", ErrInvalidDataURI)
	}
	full := mime
	if params != "" {
		full += ";" + params
	}
	return Blob{MIMEType: full, Data: data}, nil
}

// BaseMIME returns the lowercased type/subtype without parameters.
func (b Blob) BaseMIME() string { return baseType(b.MIMEType) }

// Param returns a MIME parameter of the blob (e.g. "rate" in
// audio/L16;codec=pcm;rate=24000).
func (b Blob) Param(name string) string {
	parts := strings.Split(b.MIMEType, ";")
	for _, p := range parts[1:] {
		k, v, ok := strings.Cut(strings.TrimSpace(p), "=")
		if ok && strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// DataURI encodes data as a base64 data URI.
func DataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func split(uri string) (mime, params, payload string, err error) {
	uri = strings.TrimSpace(uri)
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", "", "", fmt.Errorf("%w: missing data: scheme", ErrInvalidDataURI)
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", "", "", fmt.Errorf("%w: missing payload separator", ErrInvalidDataURI)
	}
	fields := strings.Split(header, ";")
	if len(fields) < 2 || !strings.EqualFold(strings.TrimSpace(fields[len(fields)-1]), "base64") {
		return "", "", "", fmt.Errorf("%w: payload must be base64", ErrInvalidDataURI)
	}
	mime = baseType(fields[0])
	params = strings.Join(fields[1:len(fields)-1], ";")
	return mime, params, payload, nil
}

func baseType(mime string) string {
	mime, _, _ = strings.Cut(mime, ";")
	return strings.ToLower(strings.TrimSpace(mime))
}

func matchAny(mime string, classes []Class) bool {
	for _, c := range classes {
		if c.Match(mime) {
			return true
		}
	}
	return false
}

func joinClasses(classes []Class) string {
	out := make([]string, len(classes))
	for i, c := range classes {
		out[i] = string(c)
	}
	return strings.Join(out, ", ")
}

package llm

import (
	"fmt"
	"regexp"

	"medo/internal/prompt"
)

var reDataURL = regexp.MustCompile(`(?is)\bdata:(image|video|audio|application)/[a-z0-9+.-]+(;[a-z0-9=.+-]+)*;base64,[a-z0-9+/=\r\n]+`)

const redacted = "[REDACTED media]"

// RedactMedia walks any JSON-like value and replaces data URIs with a marker.
func RedactMedia(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, vv := range x {
			out[k] = RedactMedia(vv)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, vv := range x {
			out[i] = RedactMedia(vv)
		}
		return out
	case string:
		if reDataURL.MatchString(x) {
			return reDataURL.ReplaceAllString(x, redacted)
		}
		return x
	default:
		return v
	}
}

// DescribePrompt renders one short line per segment for logs. Media
// payloads are reduced to their type and size.
func DescribePrompt(p prompt.Prompt) []string {
	out := make([]string, 0, len(p.Segments))
	for _, seg := range p.Segments {
		switch s := seg.(type) {
		case prompt.Text:
			out = append(out, fmt.Sprintf("text(%d): %s", len(s.Text), preview(s.Text, 60)))
		case prompt.Media:
			out = append(out, fmt.Sprintf("media(%s, %d bytes)", s.Blob.BaseMIME(), len(s.Blob.Data)))
		}
	}
	return out
}

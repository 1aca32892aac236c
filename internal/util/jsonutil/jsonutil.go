package jsonutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformed is returned when model text holds no usable JSON value.
var ErrMalformed = errors.New("jsonutil: malformed json")

// Extract returns the first balanced top-level JSON object or array found in
// raw, discarding surrounding prose and markdown fences. A balanced candidate
// that is not valid JSON is skipped as a whole, so a value nested inside it is
// never returned. An unbalanced candidate ends the scan; nothing is patched.
func Extract(raw string) (json.RawMessage, error) {
	for i := 0; i < len(raw); i++ {
		if raw[i] != '{' && raw[i] != '[' {
			continue
		}
		end, ok := matchClose(raw, i)
		if !ok {
			return nil, fmt.Errorf("%w: unbalanced json in model output", ErrMalformed)
		}
		candidate := raw[i : end+1]
		if json.Valid([]byte(candidate)) {
			return json.RawMessage(candidate), nil
		}
		i = end
	}
	return nil, fmt.Errorf("%w: no json object or array in model output", ErrMalformed)
}

// Decode unmarshals model output into v. With structured set the text is
// already schema-constrained and is parsed as-is; otherwise Extract runs first.
func Decode(raw string, structured bool, v any) error {
	var data []byte
	if structured {
		data = []byte(strings.TrimSpace(raw))
	} else {
		ext, err := Extract(raw)
		if err != nil {
			return err
		}
		data = ext
	}
	if len(data) == 0 {
		return fmt.Errorf("%w: empty model output", ErrMalformed)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// matchClose scans from an opening brace or bracket at start and returns the
// index of its matching close, skipping over string literals.
func matchClose(s string, start int) (int, bool) {
	stack := make([]byte, 0, 8)
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return 0, false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// MarshalNoEscape encodes v into JSON without escaping <, >, & into \u003c, etc.
func MarshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

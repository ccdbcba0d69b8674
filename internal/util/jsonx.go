// ABOUTME: Best-effort recovery of a JSON object from free-form model output
// ABOUTME: Strips code fences, locates the first balanced object, decodes into the caller's schema
package util

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSON indicates no parseable JSON object was found in the text.
var ErrNoJSON = errors.New("no JSON object found in text")

// ExtractJSON returns the first balanced JSON object embedded in raw model
// output. Code fences are stripped first; brace matching is string-aware so
// braces inside JSON strings do not unbalance the scan.
func ExtractJSON(raw string) (string, error) {
	text := stripCodeFences(strings.TrimSpace(raw))

	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", ErrNoJSON
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
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
			depth++
		case '}':
			depth--
			if depth == 0 {
				candidate := text[start : i+1]
				if !json.Valid([]byte(candidate)) {
					return "", fmt.Errorf("%w: candidate object is not valid JSON", ErrNoJSON)
				}
				return candidate, nil
			}
		}
	}

	return "", fmt.Errorf("%w: unbalanced braces", ErrNoJSON)
}

// DecodeJSON extracts the first JSON object from raw and unmarshals it into
// out. Every pipeline stage that consumes generative output goes through
// this; a non-nil error means the stage must not write anything.
func DecodeJSON(raw string, out any) error {
	obj, err := ExtractJSON(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(obj), out); err != nil {
		return fmt.Errorf("decoding extracted JSON: %w", err)
	}
	return nil
}

// stripCodeFences removes a leading ```/```json fence and its matching
// closing fence, if present.
func stripCodeFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	// Drop the fence line itself (may carry a language tag)
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[idx+1:]
	} else {
		return strings.TrimPrefix(text, "```")
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

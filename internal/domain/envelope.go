package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strings"
)

// ModelVerdict is a validated probability/description pair from a generative backend.
type ModelVerdict struct {
	Probability int
	Description string
}

// ParseModelResponse extracts the verdict from backend output. Strict JSON is
// tried first; otherwise the first balanced {...} block in the text is used.
// The object must carry a numeric probability and a string description.
// The probability is re-rounded and clamped to [0,100].
func ParseModelResponse(text string) (ModelVerdict, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ModelVerdict{}, newMalformedResponseError("empty response", text)
	}

	obj, err := decodeObject(trimmed)
	if err != nil {
		block := extractJSONObject(trimmed)
		if block == "" {
			return ModelVerdict{}, newMalformedResponseError("no JSON object found", text)
		}
		obj, err = decodeObject(block)
		if err != nil {
			return ModelVerdict{}, newMalformedResponseError("invalid JSON object: "+err.Error(), text)
		}
	}

	var probability float64
	rawProb, ok := obj["probability"]
	if !ok || isNull(rawProb) || json.Unmarshal(rawProb, &probability) != nil || math.IsNaN(probability) {
		return ModelVerdict{}, newMalformedResponseError("probability is missing or not a number", text)
	}

	var description string
	rawDesc, ok := obj["description"]
	if !ok || isNull(rawDesc) || json.Unmarshal(rawDesc, &description) != nil {
		return ModelVerdict{}, newMalformedResponseError("description is missing or not a string", text)
	}

	return ModelVerdict{
		Probability: Finalize(probability),
		Description: SanitizeDescription(description),
	}, nil
}

// decodeObject decodes s as a single JSON object, keeping field values raw so
// their types can be checked individually.
func decodeObject(s string) (map[string]json.RawMessage, error) {
	var obj map[string]json.RawMessage
	dec := json.NewDecoder(strings.NewReader(s))
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errNotObject
	}
	if dec.More() {
		return nil, errTrailingData
	}
	return obj, nil
}

// extractJSONObject returns the first brace-balanced object in s, ignoring
// braces inside string literals.
func extractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	for start != -1 {
		if end := matchBrace(s[start:]); end > 0 {
			candidate := s[start : start+end+1]
			if json.Valid([]byte(candidate)) {
				return candidate
			}
		}
		next := strings.IndexByte(s[start+1:], '{')
		if next == -1 {
			return ""
		}
		start += next + 1
	}
	return ""
}

// matchBrace returns the index of the brace closing s[0], or -1.
func matchBrace(s string) int {
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
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
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

var (
	errNotObject    = errors.New("not a JSON object")
	errTrailingData = errors.New("trailing data after JSON object")
)

// isNull reports a literal JSON null, which Unmarshal would silently accept.
func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

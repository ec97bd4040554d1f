package util

import (
	"encoding/json"
	"regexp"
	"strings"
)

// ExtractKind tells why ExtractJSONResult did or did not return a mapping.
type ExtractKind int

const (
	ExtractOK ExtractKind = iota
	ExtractEmpty
	ExtractNoJSON
	ExtractMalformed
)

func (k ExtractKind) String() string {
	switch k {
	case ExtractOK:
		return "ok"
	case ExtractEmpty:
		return "empty"
	case ExtractNoJSON:
		return "no_json"
	case ExtractMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

var reTrailingComma = regexp.MustCompile(`,\s*([}\]])`)

// ExtractJSON pulls the JSON object embedded in model output and decodes it.
// It returns nil when there is nothing usable; it never fails loudly.
func ExtractJSON(raw string) map[string]any {
	m, _ := ExtractJSONResult(raw)
	return m
}

// ExtractJSONResult is ExtractJSON plus the reason for a nil result.
//
// The candidate is the span from the first '{' to the last '}' after citation
// markers are removed. A trailing comma before '}' or ']' is the only repair.
func ExtractJSONResult(raw string) (map[string]any, ExtractKind) {
	s := strings.TrimSpace(StripCitations(raw))
	if s == "" {
		return nil, ExtractEmpty
	}

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return nil, ExtractNoJSON
	}
	candidate := reTrailingComma.ReplaceAllString(s[start:end+1], "$1")

	var m map[string]any
	if err := json.Unmarshal([]byte(candidate), &m); err != nil || m == nil {
		return nil, ExtractMalformed
	}
	return m, ExtractOK
}

// Float reads a numeric field. JSON numbers decode to float64; numeric
// strings such as "12.5" are not accepted.
func Float(m map[string]any, key string) (float64, bool) {
	if m == nil {
		return 0, false
	}
	switch v := m[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// String reads a non-empty string field.
func String(m map[string]any, key string) (string, bool) {
	if m == nil {
		return "", false
	}
	s, ok := m[key].(string)
	s = strings.TrimSpace(s)
	return s, ok && s != ""
}

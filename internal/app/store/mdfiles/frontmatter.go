package mdfiles

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const delimiter = "---"

// ErrUnterminated means an opening front-matter delimiter has no closing one.
var ErrUnterminated = errors.New("mdfiles: unterminated front matter")

// Parse splits raw into its YAML front matter and body.
//
//	---
//	title: Intro to Law
//	date: 2024-01-15
//	---
//	Body text.
//
// A document without an opening delimiter is all body with empty metadata.
// Values decode to JSON-compatible types: nested mappings become
// map[string]any and timestamps become RFC 3339 strings.
func Parse(raw []byte) (map[string]any, string, error) {
	text := strings.ReplaceAll(string(raw), "\r\n", "\n")
	text = strings.TrimPrefix(text, "\ufeff")

	if !strings.HasPrefix(text, delimiter+"\n") && text != delimiter {
		return map[string]any{}, text, nil
	}

	rest := strings.TrimPrefix(text, delimiter)
	rest = strings.TrimPrefix(rest, "\n")

	var front, body string
	switch {
	case strings.HasPrefix(rest, delimiter+"\n") || rest == delimiter:
		// Empty front matter.
		body = strings.TrimPrefix(strings.TrimPrefix(rest, delimiter), "\n")
	default:
		end := strings.Index(rest, "\n"+delimiter+"\n")
		switch {
		case end >= 0:
			front, body = rest[:end], rest[end+len(delimiter)+2:]
		case strings.HasSuffix(rest, "\n"+delimiter):
			front = strings.TrimSuffix(rest, "\n"+delimiter)
		default:
			return nil, "", ErrUnterminated
		}
	}

	meta := map[string]any{}
	if strings.TrimSpace(front) != "" {
		if err := yaml.Unmarshal([]byte(front), &meta); err != nil {
			return nil, "", fmt.Errorf("front matter: %w", err)
		}
	}
	for k, v := range meta {
		meta[k] = jsonSafe(v)
	}
	return meta, body, nil
}

// jsonSafe converts YAML-decoded values into types encoding/json accepts.
func jsonSafe(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	case map[string]any:
		for k, x := range t {
			t[k] = jsonSafe(x)
		}
		return t
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, x := range t {
			m[fmt.Sprint(k)] = jsonSafe(x)
		}
		return m
	case []any:
		for i, x := range t {
			t[i] = jsonSafe(x)
		}
		return t
	default:
		return v
	}
}

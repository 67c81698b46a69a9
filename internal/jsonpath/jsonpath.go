// Package jsonpath pulls the transcript string out of a transcription
// response. Standard endpoints put it under "text"; self-hosted gateways
// often nest it, so a dot/index path like "results[0].transcript" can be
// configured instead.
package jsonpath

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ExtractText extracts the transcript from a JSON response body. The
// configured path is tried first, then the conventional "text" field, then
// the first non-empty string value at the top level. ok reports whether a
// transcript field was located at all; an empty transcript ("" with ok=true,
// the endpoint heard no speech) is distinct from a response with no text
// field anywhere.
func ExtractText(body []byte, textPath string) (string, bool) {
	var root interface{}
	if err := json.Unmarshal(body, &root); err != nil {
		return "", false
	}

	if textPath != "" {
		if v, ok := ExtractByPath(root, textPath); ok {
			return v, true
		}
	}

	if m, ok := root.(map[string]interface{}); ok {
		if v, exists := m["text"]; exists {
			if s, ok := stringify(v); ok {
				return s, true
			}
		}
		for _, val := range m {
			if s, ok := val.(string); ok && s != "" {
				return s, true
			}
		}
	}
	return "", false
}

// ExtractByPath walks a parsed JSON structure along a dot-separated path
// with optional [n] indexes and returns the value as a string.
func ExtractByPath(root interface{}, path string) (string, bool) {
	if path == "" {
		return "", false
	}
	cur := root
	for _, part := range strings.Split(path, ".") {
		key, idxs, err := parseToken(part)
		if err != nil {
			return "", false
		}

		if key != "" {
			m, ok := cur.(map[string]interface{})
			if !ok {
				return "", false
			}
			next, exists := m[key]
			if !exists {
				return "", false
			}
			cur = next
		}

		for _, idx := range idxs {
			arr, ok := cur.([]interface{})
			if !ok {
				return "", false
			}
			if idx < 0 || idx >= len(arr) {
				return "", false
			}
			cur = arr[idx]
		}
	}
	return stringify(cur)
}

func stringify(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t)), true
		}
		return fmt.Sprintf("%v", t), true
	case bool:
		return fmt.Sprintf("%v", t), true
	default:
		return "", false
	}
}

// parseToken splits a token like "foo[0][1]", "[0]" or "bar" into its base
// key and indexes.
func parseToken(token string) (string, []int, error) {
	if token == "" {
		return "", nil, fmt.Errorf("empty token")
	}
	idxs := []int{}
	br := strings.Index(token, "[")
	if br == -1 {
		return token, idxs, nil
	}
	key := token[:br]
	rest := token[br:]
	for len(rest) > 0 {
		if !strings.HasPrefix(rest, "[") {
			return "", nil, fmt.Errorf("invalid index syntax in %s", token)
		}
		closePos := strings.Index(rest, "]")
		if closePos == -1 {
			return "", nil, fmt.Errorf("missing closing ] in %s", token)
		}
		numStr := rest[1:closePos]
		if numStr == "" {
			return "", nil, fmt.Errorf("empty index in %s", token)
		}
		n, err := strconv.Atoi(numStr)
		if err != nil {
			return "", nil, fmt.Errorf("invalid index %q in %s", numStr, token)
		}
		idxs = append(idxs, n)
		rest = rest[closePos+1:]
	}
	return key, idxs, nil
}

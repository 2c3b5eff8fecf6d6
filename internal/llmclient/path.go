package llmclient

import (
	"fmt"
	"strconv"
	"strings"
)

// pathSegment is either a field name or an array index, matching the
// ".a.b[n].c" dotted-path syntax of spec.md §4.3.
type pathSegment struct {
	field string
	index int
	isIdx bool
}

// parsePath tokenizes a dotted path like ".choices[0].message.content"
// into a sequence of field/index segments.
func parsePath(path string) ([]pathSegment, error) {
	path = strings.TrimSpace(path)
	path = strings.TrimPrefix(path, ".")
	if path == "" {
		return nil, fmt.Errorf("empty response path")
	}

	var segments []pathSegment
	for _, part := range strings.Split(path, ".") {
		if part == "" {
			return nil, fmt.Errorf("invalid response path %q: empty segment", path)
		}
		field := part
		for {
			open := strings.IndexByte(field, '[')
			if open < 0 {
				break
			}
			close := strings.IndexByte(field, ']')
			if close < open {
				return nil, fmt.Errorf("invalid response path %q: unbalanced brackets", path)
			}
			name := field[:open]
			idxStr := field[open+1 : close]
			idx, err := strconv.Atoi(idxStr)
			if err != nil || idx < 0 {
				return nil, fmt.Errorf("invalid response path %q: bad array index %q", path, idxStr)
			}
			if name != "" {
				segments = append(segments, pathSegment{field: name})
			}
			segments = append(segments, pathSegment{index: idx, isIdx: true})
			field = field[close+1:]
		}
		if field != "" {
			segments = append(segments, pathSegment{field: field})
		}
	}
	return segments, nil
}

// navigate walks doc according to segments and returns the leaf value.
func navigate(doc any, segments []pathSegment) (any, error) {
	current := doc
	for _, seg := range segments {
		if seg.isIdx {
			arr, ok := current.([]any)
			if !ok {
				return nil, fmt.Errorf("expected array at index [%d], got %T", seg.index, current)
			}
			if seg.index >= len(arr) {
				return nil, fmt.Errorf("array index [%d] out of range (len %d)", seg.index, len(arr))
			}
			current = arr[seg.index]
			continue
		}

		obj, ok := current.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected object for field %q, got %T", seg.field, current)
		}
		val, ok := obj[seg.field]
		if !ok {
			return nil, fmt.Errorf("field %q not found", seg.field)
		}
		current = val
	}
	return current, nil
}

// ExtractString navigates doc along path and returns the leaf as a
// string. Non-string leaves are an error: the textual content field
// must be a JSON string.
func ExtractString(doc any, path string) (string, error) {
	segments, err := parsePath(path)
	if err != nil {
		return "", err
	}
	leaf, err := navigate(doc, segments)
	if err != nil {
		return "", err
	}
	s, ok := leaf.(string)
	if !ok {
		return "", fmt.Errorf("path %q resolved to a non-string value (%T)", path, leaf)
	}
	return s, nil
}

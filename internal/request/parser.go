// Package request turns raw paths, query strings and bodies into the shapes the router and
// handlers work with. Nothing in here fails: malformed input degrades to empty values.
package request

import (
	"net/url"
	"strings"
)

// Parsed is a request path split into segments after the API prefix, plus its query values.
type Parsed struct {
	Segments []string
	Query    map[string]string
}

// Resource is the first segment, or "" for the API root.
func (p Parsed) Resource() string {
	return p.segment(0)
}

// ID is the second segment, or "".
func (p Parsed) ID() string {
	return p.segment(1)
}

// Sub is the third segment (the sub-action), or "".
func (p Parsed) Sub() string {
	return p.segment(2)
}

func (p Parsed) segment(i int) string {
	if i < len(p.Segments) {
		return p.Segments[i]
	}
	return ""
}

// Parse splits path into non-empty segments following prefix and decodes rawQuery.
// Duplicate query keys keep the last value.
func Parse(prefix, path, rawQuery string) Parsed {
	return Parsed{
		Segments: Segments(prefix, path),
		Query:    ParseQuery(rawQuery),
	}
}

// Segments returns the non-empty path segments after prefix. A path outside prefix is split whole.
func Segments(prefix, path string) []string {
	prefix = strings.TrimRight(prefix, "/")
	if prefix != "" {
		if path == prefix {
			path = ""
		} else if strings.HasPrefix(path, prefix+"/") {
			path = path[len(prefix):]
		}
	}

	var segments []string
	for _, part := range strings.Split(path, "/") {
		if part != "" {
			segments = append(segments, part)
		}
	}
	return segments
}

// ParseQuery decodes a raw query string. Pairs that fail to decode are skipped.
func ParseQuery(rawQuery string) map[string]string {
	out := make(map[string]string)
	// ParseQuery keeps every pair it could decode even when it returns an error.
	values, _ := url.ParseQuery(rawQuery)
	for key, vals := range values {
		if len(vals) > 0 {
			out[key] = vals[len(vals)-1]
		}
	}
	return out
}

// Package pathmatch implements the default route matching engine: parsing
// and validation of path templates with named, optional and wildcard
// segments, an accumulate-then-compile matcher over them, and URL building
// from a template plus parameter values.
package pathmatch

import (
	"fmt"
	"strings"
)

// segKind discriminates the segment types of a parsed template.
type segKind int

const (
	segStatic segKind = iota
	segParam
	segOptionalParam
	segWildcard
)

type segment struct {
	kind  segKind
	value string // literal text or parameter name
}

// Template is a parsed path template such as /users/:id or /files/*.
type Template struct {
	raw  string
	segs []segment
}

// ParseTemplate parses a path template. Supported segment forms are literal
// text, :name parameters, :name? optional parameters and a * wildcard.
// An optional parameter that is not the final segment is rejected: such a
// template is structurally ambiguous for longest-match resolution.
func ParseTemplate(path string) (*Template, error) {
	if path == "" || path[0] != '/' {
		return nil, fmt.Errorf("path template must start with '/', got %q", path)
	}

	tmpl := &Template{raw: path}
	parts := splitPath(path)

	for i, part := range parts {
		switch {
		case strings.HasPrefix(part, ":"):
			name := strings.TrimPrefix(part, ":")
			optional := strings.HasSuffix(name, "?")
			if optional {
				name = strings.TrimSuffix(name, "?")
				if i != len(parts)-1 {
					return nil, fmt.Errorf("optional parameter %q must be the final segment of %q", ":"+name+"?", path)
				}
			}
			if name == "" {
				return nil, fmt.Errorf("unnamed parameter in %q", path)
			}

			kind := segParam
			if optional {
				kind = segOptionalParam
			}
			tmpl.segs = append(tmpl.segs, segment{kind: kind, value: name})
		case part == "*":
			if i != len(parts)-1 {
				return nil, fmt.Errorf("wildcard must be the final segment of %q", path)
			}
			tmpl.segs = append(tmpl.segs, segment{kind: segWildcard})
		default:
			tmpl.segs = append(tmpl.segs, segment{kind: segStatic, value: part})
		}
	}

	return tmpl, nil
}

// ValidateTemplate checks a path template without retaining the parse
// result. Registration paths call it before a route reaches the registry.
func ValidateTemplate(path string) error {
	_, err := ParseTemplate(path)
	return err
}

// Raw returns the template string the Template was parsed from.
func (t *Template) Raw() string { return t.raw }

// BuildPath substitutes parameter values into a template, reversing a route
// into a concrete URL path. Optional parameters may be omitted from params;
// required ones may not. A wildcard takes its text from the "*" key.
func BuildPath(path string, params map[string]string) (string, error) {
	tmpl, err := ParseTemplate(path)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, seg := range tmpl.segs {
		switch seg.kind {
		case segStatic:
			b.WriteByte('/')
			b.WriteString(seg.value)
		case segParam:
			val, ok := params[seg.value]
			if !ok {
				return "", fmt.Errorf("missing value for parameter %q in %q", seg.value, path)
			}
			b.WriteByte('/')
			b.WriteString(val)
		case segOptionalParam:
			if val, ok := params[seg.value]; ok {
				b.WriteByte('/')
				b.WriteString(val)
			}
		case segWildcard:
			val, ok := params["*"]
			if !ok {
				return "", fmt.Errorf("missing value for wildcard in %q", path)
			}
			b.WriteByte('/')
			b.WriteString(val)
		}
	}

	if b.Len() == 0 {
		return "/", nil
	}

	return b.String(), nil
}

// splitPath splits a path into its non-empty segments.
func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}

	return strings.Split(trimmed, "/")
}

package hcl

import (
	"fmt"
	"strconv"
	"strings"
)

// portRef is a parsed port reference from a wire's from/to attribute.
type portRef struct {
	Name  string
	Start int
	Width int
	Whole bool
}

// parsePortRef parses "name", "name[i]" and "name[i:j]" (j exclusive).
func parsePortRef(s string) (portRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return portRef{}, fmt.Errorf("empty port reference")
	}

	open := strings.IndexByte(s, '[')
	if open < 0 {
		return portRef{Name: s, Whole: true}, nil
	}
	if !strings.HasSuffix(s, "]") || open == 0 {
		return portRef{}, fmt.Errorf("malformed port reference %q", s)
	}

	name := s[:open]
	spec := s[open+1 : len(s)-1]

	colon := strings.IndexByte(spec, ':')
	if colon < 0 {
		i, err := strconv.Atoi(strings.TrimSpace(spec))
		if err != nil {
			return portRef{}, fmt.Errorf("malformed port index in %q: %w", s, err)
		}
		return portRef{Name: name, Start: i, Width: 1}, nil
	}

	lo, err := strconv.Atoi(strings.TrimSpace(spec[:colon]))
	if err != nil {
		return portRef{}, fmt.Errorf("malformed port range in %q: %w", s, err)
	}
	hi, err := strconv.Atoi(strings.TrimSpace(spec[colon+1:]))
	if err != nil {
		return portRef{}, fmt.Errorf("malformed port range in %q: %w", s, err)
	}
	if hi <= lo {
		return portRef{}, fmt.Errorf("port range %q is empty", s)
	}
	return portRef{Name: name, Start: lo, Width: hi - lo}, nil
}

package cli

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseInput reads an input call such as "flip" or "dim(3, high)".
// Arguments are YAML scalars: 3 is an int, true a bool, anything else a string.
func ParseInput(s string) (string, []any, error) {
	s = strings.TrimSpace(s)
	open := strings.IndexByte(s, '(')
	if open < 0 {
		if s == "" {
			return "", nil, fmt.Errorf("empty input")
		}
		return s, nil, nil
	}
	if !strings.HasSuffix(s, ")") {
		return "", nil, fmt.Errorf("input %q: missing closing parenthesis", s)
	}
	name := strings.TrimSpace(s[:open])
	if name == "" {
		return "", nil, fmt.Errorf("input %q: missing name", s)
	}

	var args []any
	if err := yaml.Unmarshal([]byte("["+s[open+1:len(s)-1]+"]"), &args); err != nil {
		return "", nil, fmt.Errorf("input %q: %w", s, err)
	}
	if args == nil {
		args = []any{}
	}
	return name, args, nil
}

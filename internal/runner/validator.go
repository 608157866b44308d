package runner

import (
	"fmt"
	"strings"

	"github.com/wasilibs/go-re2"

	"github.com/CTRL-ALT-OP/docker-tools/internal/result"
)

// Commands that can destroy the machine are rejected regardless of
// configuration.
var builtinDenyPatterns = []string{
	`(?i)rm\s+(-[a-z]*r[a-z]*f|-[a-z]*f[a-z]*r)[a-z]*\s+/(\s|$)`,
	`:\(\)\s*\{[^}]*\}\s*;\s*:`,
	`(?i)\bmkfs(\.[a-z0-9]+)?\b`,
	`(?i)\bdd\b.*\bof=/dev/(sd|nvme|hd|vd)`,
}

// Validator rejects command lines matching deny patterns before any process
// is started.
type Validator struct {
	deny []*re2.Regexp
}

// NewValidator compiles the builtin deny patterns plus any extra ones from
// configuration.
func NewValidator(extraPatterns []string) (*Validator, error) {
	patterns := append(append([]string{}, builtinDenyPatterns...), extraPatterns...)
	deny := make([]*re2.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		re, err := re2.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid deny pattern %q: %w", pattern, err)
		}
		deny = append(deny, re)
	}
	return &Validator{deny: deny}, nil
}

// Validate checks a command line against the deny list. A match yields a
// validation error; the command never runs.
func (v *Validator) Validate(command string) error {
	command = strings.TrimSpace(command)
	if command == "" {
		return result.NewValidationError("command is required", "command")
	}
	for _, re := range v.deny {
		if re.MatchString(command) {
			return result.NewValidationError(
				fmt.Sprintf("command denied by policy: %s", command), "command")
		}
	}
	return nil
}

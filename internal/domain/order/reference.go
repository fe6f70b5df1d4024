package order

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/inventree/backend/internal/domain/shared"
)

var refPlaceholder = regexp.MustCompile(`\{ref(?::0?(\d+)d)?\}`)

// ReferencePattern describes the allowed shape of order references, e.g.
// "PO-{ref:04d}". The pattern must contain exactly one {ref} placeholder.
type ReferencePattern struct {
	raw    string
	prefix string
	suffix string
	width  int
	re     *regexp.Regexp
}

// ParseReferencePattern compiles a reference pattern
func ParseReferencePattern(pattern string) (*ReferencePattern, error) {
	matches := refPlaceholder.FindAllStringSubmatchIndex(pattern, -1)
	if len(matches) != 1 {
		return nil, shared.NewValidationError("reference_pattern",
			fmt.Sprintf("Reference pattern must contain exactly one {ref} placeholder: %q", pattern))
	}
	m := matches[0]

	p := &ReferencePattern{
		raw:    pattern,
		prefix: pattern[:m[0]],
		suffix: pattern[m[1]:],
	}
	if m[2] >= 0 {
		w, err := strconv.Atoi(pattern[m[2]:m[3]])
		if err != nil {
			return nil, shared.NewValidationError("reference_pattern", "Invalid {ref} width")
		}
		p.width = w
	}
	if strings.ContainsAny(p.prefix+p.suffix, "{}") {
		return nil, shared.NewValidationError("reference_pattern",
			fmt.Sprintf("Unknown placeholder in reference pattern: %q", pattern))
	}

	p.re = regexp.MustCompile("^" + regexp.QuoteMeta(p.prefix) + `(\d+)` + regexp.QuoteMeta(p.suffix) + "$")
	return p, nil
}

// MustParseReferencePattern is ParseReferencePattern for static patterns
func MustParseReferencePattern(pattern string) *ReferencePattern {
	p, err := ParseReferencePattern(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the raw pattern
func (p *ReferencePattern) String() string {
	return p.raw
}

// Validate checks a reference against the pattern
func (p *ReferencePattern) Validate(reference string) error {
	if strings.TrimSpace(reference) == "" {
		return shared.NewValidationError("reference", "Reference is required")
	}
	if !p.re.MatchString(reference) {
		return shared.NewValidationError("reference",
			fmt.Sprintf("Reference must match required pattern %s", p.raw))
	}
	return nil
}

// ExtractInt returns the integer part of a reference, or 0 if it does not match
func (p *ReferencePattern) ExtractInt(reference string) int64 {
	m := p.re.FindStringSubmatch(reference)
	if m == nil {
		return 0
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// Format renders the reference for n
func (p *ReferencePattern) Format(n int64) string {
	return p.prefix + fmt.Sprintf("%0*d", p.width, n) + p.suffix
}

// Next renders the reference following the highest existing integer part
func (p *ReferencePattern) Next(maxExisting int64) string {
	return p.Format(maxExisting + 1)
}

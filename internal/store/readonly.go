package store

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNotReadOnly rejects anything other than a single SELECT statement.
var ErrNotReadOnly = errors.New("query is not a single read-only SELECT")

var (
	selectPrefix     = regexp.MustCompile(`(?i)^select\b`)
	mutatingKeywords = regexp.MustCompile(
		`(?i)\b(drop|delete|update|insert|alter|create|truncate|replace|attach|detach|pragma|grant|revoke|vacuum)\b`)
)

// ValidateReadOnly returns the statement with one trailing semicolon removed, or an error
// wrapping ErrNotReadOnly.
func ValidateReadOnly(query string) (string, error) {
	q := strings.TrimSpace(query)
	q = strings.TrimSpace(strings.TrimSuffix(q, ";"))
	if q == "" {
		return "", fmt.Errorf("empty query: %w", ErrNotReadOnly)
	}
	if strings.Contains(q, ";") {
		return "", fmt.Errorf("multiple statements: %w", ErrNotReadOnly)
	}
	if !selectPrefix.MatchString(q) {
		return "", fmt.Errorf("must start with SELECT: %w", ErrNotReadOnly)
	}
	if kw := mutatingKeywords.FindString(q); kw != "" {
		return "", fmt.Errorf("forbidden keyword %s: %w", strings.ToUpper(kw), ErrNotReadOnly)
	}
	return q, nil
}

package contact

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Violation codes reported to the client.
const (
	CodeInvalidType   = "invalid_type"
	CodeInvalidString = "invalid_string"
	CodeTooSmall      = "too_small"
	CodeInvalidJSON   = "invalid_json"
)

// Violation describes one failed constraint. Path is the JSON path of the
// offending value, empty for the payload itself.
type Violation struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Path    []string `json:"path"`
}

// Field returns the top-level field the violation applies to, or "" when it
// targets the whole payload.
func (v Violation) Field() string {
	if len(v.Path) == 0 {
		return ""
	}
	return v.Path[0]
}

// ValidationError lists every constraint a submission broke.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := lo.Map(e.Violations, func(v Violation, _ int) string {
		if f := v.Field(); f != "" {
			return fmt.Sprintf("%s: %s", f, v.Message)
		}
		return v.Message
	})
	return "invalid contact: " + strings.Join(parts, "; ")
}

// Fields returns the distinct fields that failed, in report order.
func (e *ValidationError) Fields() []string {
	return lo.Uniq(lo.FilterMap(e.Violations, func(v Violation, _ int) (string, bool) {
		f := v.Field()
		return f, f != ""
	}))
}

// Has reports whether field has at least one violation.
func (e *ValidationError) Has(field string) bool {
	return lo.Contains(e.Fields(), field)
}

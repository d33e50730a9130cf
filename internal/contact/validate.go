package contact

import (
	"bytes"
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report JSON keys rather than Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type fieldRule struct {
	key      string
	required bool
	code     string
	message  string
}

// Fields in the order violations are reported.
var fieldRules = []fieldRule{
	{key: "name", required: true, code: CodeTooSmall, message: "Name must be at least 2 characters"},
	{key: "email", required: true, code: CodeInvalidString, message: "Invalid email address"},
	{key: "company"},
	{key: "message", required: true, code: CodeTooSmall, message: "Message must be at least 10 characters"},
}

// Validate checks a raw submission and returns the normalized draft. Values
// are trimmed of surrounding whitespace before any length or format rule is
// applied, and unknown keys are ignored. On failure the error is a
// *ValidationError carrying every violation, not only the first one.
func Validate(raw map[string]any) (Draft, error) {
	values := make(map[string]string, len(fieldRules))
	var violations []Violation
	typeFailed := map[string]bool{}

	for _, rule := range fieldRules {
		value, present := raw[rule.key]
		if !present {
			if rule.required {
				typeFailed[rule.key] = true
				violations = append(violations, Violation{
					Code:    CodeInvalidType,
					Message: "Required",
					Path:    []string{rule.key},
				})
			}
			continue
		}
		s, ok := value.(string)
		if !ok {
			typeFailed[rule.key] = true
			violations = append(violations, Violation{
				Code:    CodeInvalidType,
				Message: fmt.Sprintf("Expected string, received %s", typeName(value)),
				Path:    []string{rule.key},
			})
			continue
		}
		values[rule.key] = strings.TrimSpace(s)
	}

	draft := Draft{
		Name:    values["name"],
		Email:   values["email"],
		Company: values["company"],
		Message: values["message"],
	}

	ruled, err := ruleViolations(draft, typeFailed)
	if err != nil {
		return Draft{}, err
	}
	violations = append(violations, ruled...)

	if len(violations) > 0 {
		sortByField(violations)
		return Draft{}, &ValidationError{Violations: violations}
	}
	return draft, nil
}

// Check applies the field rules to a draft built outside Validate, judging
// the values as Validate would after trimming. Stores call it so that no
// record can bypass the rules.
func (d Draft) Check() error {
	trimmed := Draft{
		Name:    strings.TrimSpace(d.Name),
		Email:   strings.TrimSpace(d.Email),
		Company: strings.TrimSpace(d.Company),
		Message: strings.TrimSpace(d.Message),
	}
	violations, err := ruleViolations(trimmed, nil)
	if err != nil {
		return err
	}
	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

// ruleViolations runs the struct rules and reports failures in field order,
// leaving out fields listed in skip.
func ruleViolations(d Draft, skip map[string]bool) ([]Violation, error) {
	err := validate.Struct(d)
	if err == nil {
		return nil, nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil, err
	}
	failed := map[string]bool{}
	for _, fe := range fieldErrs {
		failed[fe.Field()] = true
	}
	var violations []Violation
	for _, rule := range fieldRules {
		if failed[rule.key] && !skip[rule.key] {
			violations = append(violations, Violation{
				Code:    rule.code,
				Message: rule.message,
				Path:    []string{rule.key},
			})
		}
	}
	return violations, nil
}

// Decode parses a request body into the loosely typed payload Validate
// expects. Anything other than a single JSON object, including trailing
// data after it, is reported as a violation on the payload itself.
func Decode(body []byte) (map[string]any, error) {
	var payload any
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&payload); err != nil {
		return nil, malformed()
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, malformed()
	}
	obj, ok := payload.(map[string]any)
	if !ok {
		return nil, &ValidationError{Violations: []Violation{{
			Code:    CodeInvalidType,
			Message: fmt.Sprintf("Expected object, received %s", typeName(payload)),
			Path:    []string{},
		}}}
	}
	return obj, nil
}

func malformed() *ValidationError {
	return &ValidationError{Violations: []Violation{{
		Code:    CodeInvalidJSON,
		Message: "Malformed JSON body",
		Path:    []string{},
	}}}
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, json.Number, int, int64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return "unknown"
	}
}

// sortByField orders violations by the declared field order while keeping
// the relative order within a field.
func sortByField(vs []Violation) {
	rank := make(map[string]int, len(fieldRules))
	for i, r := range fieldRules {
		rank[r.key] = i
	}
	slices.SortStableFunc(vs, func(a, b Violation) int {
		return cmp.Compare(rank[a.Field()], rank[b.Field()])
	})
}

package validate

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/lcplatform/platform/pkg/errdefs"
	"github.com/lcplatform/platform/pkg/metrics"
)

// FieldError describes one failed constraint. Path is a JSON pointer
// into the record.
type FieldError struct {
	Path    string
	Message string
	Value   interface{}
}

// Result is the outcome of validating a single record
type Result struct {
	OK     bool
	Errors []FieldError
}

// InvalidRecord locates a failed record within a batch
type InvalidRecord struct {
	Index  int
	Errors []FieldError
}

// BatchSummary aggregates a batch run
type BatchSummary struct {
	Total    int
	Passed   int
	Failed   int
	Duration time.Duration
}

// BatchResult reports partial success structurally; the call itself
// succeeds even when records fail.
type BatchResult struct {
	OK        bool
	Validated []interface{}
	Invalid   []InvalidRecord
	Summary   BatchSummary
}

// Validator validates records against a compiled JSON schema
type Validator struct {
	schema *jsonschema.Schema
}

// Dependency returns the validator for application dependency
// descriptors. The schema is compiled once at package init.
func Dependency() *Validator {
	return dependencyValidator
}

var dependencyValidator = mustCompile("dependency.schema.json", dependencySchema)

func mustCompile(name, schemaJSON string) *Validator {
	v, err := NewCustom(name, schemaJSON)
	if err != nil {
		panic(fmt.Sprintf("validate: compiling built-in schema %s: %v", name, err))
	}
	return v
}

// NewCustom compiles a caller-supplied Draft-7 schema into a
// reusable validator.
func NewCustom(name, schemaJSON string) (*Validator, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft7
	c.AssertFormat = true
	if err := c.AddResource(name, strings.NewReader(schemaJSON)); err != nil {
		return nil, errdefs.NewValidation("invalid schema: %v", err)
	}
	schema, err := c.Compile(name)
	if err != nil {
		return nil, errdefs.NewValidation("invalid schema: %v", err)
	}
	return &Validator{schema: schema}, nil
}

// Validate checks a single record. The record may be a struct (it is
// round-tripped through JSON) or an already-decoded value.
func (v *Validator) Validate(record interface{}) Result {
	doc, err := toJSONValue(record)
	if err != nil {
		metrics.ValidationFailures.Inc()
		return Result{Errors: []FieldError{{Path: "", Message: fmt.Sprintf("record is not valid JSON: %v", err)}}}
	}
	if err := v.schema.Validate(doc); err != nil {
		metrics.ValidationFailures.Inc()
		if ve, ok := err.(*jsonschema.ValidationError); ok {
			return Result{Errors: translate(ve, doc)}
		}
		return Result{Errors: []FieldError{{Path: "", Message: err.Error()}}}
	}
	return Result{OK: true}
}

// ValidateBatch checks records in order, stopping early when ctx is
// cancelled. Remaining records are reported as failed with a timeout
// message so the summary stays consistent.
func (v *Validator) ValidateBatch(ctx context.Context, records []interface{}) BatchResult {
	start := time.Now()
	out := BatchResult{}
	for i, record := range records {
		if err := ctx.Err(); err != nil {
			out.Invalid = append(out.Invalid, InvalidRecord{
				Index:  i,
				Errors: []FieldError{{Path: "", Message: "validation cancelled"}},
			})
			continue
		}
		res := v.Validate(record)
		if res.OK {
			out.Validated = append(out.Validated, record)
		} else {
			out.Invalid = append(out.Invalid, InvalidRecord{Index: i, Errors: res.Errors})
		}
	}
	out.Summary = BatchSummary{
		Total:    len(records),
		Passed:   len(out.Validated),
		Failed:   len(out.Invalid),
		Duration: time.Since(start),
	}
	out.OK = out.Summary.Failed == 0
	return out
}

func toJSONValue(record interface{}) (interface{}, error) {
	switch record.(type) {
	case map[string]interface{}, []interface{}, string, float64, bool, nil:
		return record, nil
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Library messages quote offending tokens with single or double quotes
// depending on keyword; accept both.
var quoted = regexp.MustCompile(`'([^']+)'|"([^"]+)"`)

func quotedTokens(msg string) []string {
	var out []string
	for _, m := range quoted.FindAllStringSubmatch(msg, -1) {
		if m[1] != "" {
			out = append(out, m[1])
		} else if m[2] != "" {
			out = append(out, m[2])
		}
	}
	return out
}

// translate flattens the cause tree into domain-oriented field errors
func translate(ve *jsonschema.ValidationError, doc interface{}) []FieldError {
	var out []FieldError
	for _, leaf := range leaves(ve) {
		out = append(out, rewrite(leaf, doc)...)
	}
	if len(out) == 0 {
		out = append(out, FieldError{Path: ve.InstanceLocation, Message: ve.Message})
	}
	return out
}

func leaves(ve *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*jsonschema.ValidationError{ve}
	}
	var out []*jsonschema.ValidationError
	for _, c := range ve.Causes {
		out = append(out, leaves(c)...)
	}
	return out
}

// rewrite maps one schema violation to field errors with readable,
// domain-oriented messages.
func rewrite(ve *jsonschema.ValidationError, doc interface{}) []FieldError {
	keyword := ve.KeywordLocation[strings.LastIndex(ve.KeywordLocation, "/")+1:]
	path := ve.InstanceLocation
	value := valueAt(doc, path)

	switch keyword {
	case "required":
		var out []FieldError
		for _, name := range quotedTokens(ve.Message) {
			out = append(out, FieldError{
				Path:    path + "/" + name,
				Message: fmt.Sprintf("Missing required field: %s", name),
			})
		}
		if out != nil {
			return out
		}
	case "additionalProperties":
		var out []FieldError
		for _, name := range quotedTokens(ve.Message) {
			out = append(out, FieldError{
				Path:    path + "/" + name,
				Message: fmt.Sprintf("Unknown field: %s", name),
			})
		}
		if out != nil {
			return out
		}
	case "enum":
		if allowed := quotedTokens(ve.Message); allowed != nil {
			return []FieldError{{
				Path:    path,
				Message: fmt.Sprintf("Must be one of: %s", strings.Join(allowed, ", ")),
				Value:   value,
			}}
		}
	case "pattern":
		if tokens := quotedTokens(ve.Message); len(tokens) > 0 {
			return []FieldError{{
				Path:    path,
				Message: fmt.Sprintf("Invalid format: does not match pattern %s", tokens[0]),
				Value:   value,
			}}
		}
	case "format":
		if tokens := quotedTokens(ve.Message); len(tokens) > 0 {
			return []FieldError{{
				Path:    path,
				Message: fmt.Sprintf("Invalid format: expected %s", tokens[0]),
				Value:   value,
			}}
		}
	case "minLength", "maxLength", "type", "minimum", "maximum":
		return []FieldError{{Path: path, Message: capitalize(ve.Message), Value: value}}
	}
	return []FieldError{{Path: path, Message: capitalize(ve.Message), Value: value}}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// valueAt resolves a JSON pointer against a decoded document
func valueAt(doc interface{}, pointer string) interface{} {
	if pointer == "" {
		return nil
	}
	cur := doc
	for _, tok := range strings.Split(strings.TrimPrefix(pointer, "/"), "/") {
		tok = strings.ReplaceAll(strings.ReplaceAll(tok, "~1", "/"), "~0", "~")
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil
		}
		cur, ok = m[tok]
		if !ok {
			return nil
		}
	}
	return cur
}

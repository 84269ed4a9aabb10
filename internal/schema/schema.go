// Package schema validates decoded JSON documents against embedded JSON
// schemas and reports leaf-level issues with localized messages.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Result contains the outcome of a schema validation.
type Result struct {
	Valid  bool
	Issues []Issue
}

// Issue represents a single validation error from the schema.
type Issue struct {
	Path    string // Instance location (e.g., "/permissions/allow/0")
	Message string // Human-readable error message
	Keyword string // Schema keyword that failed
}

// String renders the issue as "path: message".
func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return i.Path + ": " + i.Message
}

// Validator compiles its schema once on first use.
type Validator struct {
	name string
	raw  []byte

	once     sync.Once
	compiled *jsonschema.Schema
	err      error
}

// New returns a Validator for the schema document raw, registered under name.
func New(name string, raw []byte) *Validator {
	return &Validator{name: name, raw: raw}
}

func (v *Validator) schema() (*jsonschema.Schema, error) {
	v.once.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(v.raw))
		if err != nil {
			v.err = fmt.Errorf("unmarshaling schema JSON: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(v.name, doc); err != nil {
			v.err = fmt.Errorf("adding schema resource: %w", err)
			return
		}
		v.compiled, v.err = c.Compile(v.name)
		if v.err != nil {
			v.err = fmt.Errorf("compiling schema: %w", v.err)
		}
	})
	return v.compiled, v.err
}

// Validate checks instance, any JSON-marshalable value, against the schema.
// The error return is for schema or encoding failures; validation issues are
// returned in the Result.
func (v *Validator) Validate(instance any) (*Result, error) {
	s, err := v.schema()
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	data, err := json.Marshal(instance)
	if err != nil {
		return nil, fmt.Errorf("converting to JSON: %w", err)
	}
	return validateJSON(data, s)
}

// ValidateBytes checks raw JSON bytes against the schema.
func (v *Validator) ValidateBytes(data []byte) (*Result, error) {
	s, err := v.schema()
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}
	return validateJSON(data, s)
}

// validateJSON validates data against an already compiled schema.
func validateJSON(data []byte, s *jsonschema.Schema) (*Result, error) {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("preparing JSON for validation: %w", err)
	}

	err = s.Validate(inst)
	if err == nil {
		return &Result{Valid: true}, nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return nil, fmt.Errorf("unexpected validation error type: %w", err)
	}
	return &Result{Valid: false, Issues: extractIssues(ve)}, nil
}

// extractIssues walks the ValidationError tree and returns leaf-level issues.
func extractIssues(ve *jsonschema.ValidationError) []Issue {
	var issues []Issue
	collect(ve, &issues)
	if len(issues) == 0 {
		return []Issue{{Message: ve.Error()}}
	}
	return dedupe(issues)
}

func collect(ve *jsonschema.ValidationError, issues *[]Issue) {
	if len(ve.Causes) > 0 {
		for _, cause := range ve.Causes {
			collect(cause, issues)
		}
		return
	}

	path := ""
	if len(ve.InstanceLocation) > 0 {
		path = "/" + strings.Join(ve.InstanceLocation, "/")
	}

	keyword, msg := "", ""
	if ve.ErrorKind != nil {
		if kw := ve.ErrorKind.KeywordPath(); len(kw) > 0 {
			keyword = kw[len(kw)-1]
		}
		msg = ve.ErrorKind.LocalizedString(printer)
	}

	// Container keywords only summarize their children.
	if keyword == "oneOf" || keyword == "allOf" || keyword == "anyOf" || keyword == "$ref" || keyword == "" {
		return
	}

	*issues = append(*issues, Issue{Path: path, Message: msg, Keyword: keyword})
}

func dedupe(issues []Issue) []Issue {
	seen := make(map[string]bool)
	var result []Issue
	for _, issue := range issues {
		key := issue.Path + "|" + issue.Keyword + "|" + issue.Message
		if !seen[key] {
			seen[key] = true
			result = append(result, issue)
		}
	}
	return result
}

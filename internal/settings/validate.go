package settings

import (
	_ "embed"

	"github.com/zco-team/zco-claude/internal/schema"
)

//go:embed schema/settings.schema.json
var schemaBytes []byte

var validator = schema.New("settings.schema.json", schemaBytes)

// Validate checks doc against the settings schema. Unknown top-level keys
// are allowed; the known sections must have the shapes Claude Code expects.
func Validate(doc Document) (*schema.Result, error) {
	return validator.Validate(doc)
}

// ValidateFile parses and validates the settings file at path.
func ValidateFile(path string) (*schema.Result, error) {
	doc, err := Load(path)
	if err != nil {
		return nil, err
	}
	return Validate(doc)
}

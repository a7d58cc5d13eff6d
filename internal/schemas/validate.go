// Package schemas provides the analysis result schema contract and JSON Schema validation against it.
package schemas

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed analysis_result.schema.json
var analysisSchemaJSON string

var (
	compiledOnce sync.Once
	compiled     *gojsonschema.Schema
	compileErr   error
)

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// ValidateAnalysisJSON validates a JSON document against the embedded analysis result schema.
// A document that is not JSON at all is reported as a plain error, not a ValidationError.
func ValidateAnalysisJSON(doc string) error {
	compiledOnce.Do(func() {
		compiled, compileErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(analysisSchemaJSON))
	})
	if compileErr != nil {
		return &SchemaLoadError{
			Path:    "analysis_result.schema.json",
			Message: "embedded schema is invalid",
			Cause:   compileErr,
		}
	}

	result, err := compiled.Validate(gojsonschema.NewStringLoader(doc))
	if err != nil {
		return fmt.Errorf("failed to read JSON document: %w", err)
	}
	return toValidationError(result)
}

// ValidateAnalysisFile validates a JSON file on disk against the analysis result schema.
func ValidateAnalysisFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("JSON file not found: %s", path)
		}
		return fmt.Errorf("failed to read JSON file %s: %w", path, err)
	}
	return ValidateAnalysisJSON(string(data))
}

func toValidationError(result *gojsonschema.Result) error {
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return validationErr
}

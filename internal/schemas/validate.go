// Package schemas validates exported comparison documents against JSON Schema.
package schemas

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jonathan/profile-compare/internal/types"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed comparison.schema.json
var comparisonSchemaJSON string

// ComparisonSchemaName identifies the embedded comparison schema in errors.
const ComparisonSchemaName = "comparison.schema.json"

var (
	comparisonSchemaOnce sync.Once
	comparisonSchema     *gojsonschema.Schema
	comparisonSchemaErr  error
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

// ComparisonSchema returns the embedded comparison schema document.
func ComparisonSchema() string {
	return comparisonSchemaJSON
}

// ValidateComparison validates the JSON encoding of c against the embedded schema.
func ValidateComparison(c *types.Comparison) error {
	if c == nil {
		return &ValidationError{Errors: []FieldError{{Field: "(root)", Message: "comparison is nil"}}}
	}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode comparison: %w", err)
	}
	return ValidateComparisonJSON(data)
}

// ValidateComparisonJSON validates an exported comparison document.
func ValidateComparisonJSON(data []byte) error {
	comparisonSchemaOnce.Do(func() {
		comparisonSchema, comparisonSchemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(comparisonSchemaJSON))
	})
	if comparisonSchemaErr != nil {
		return &SchemaLoadError{
			Path:    ComparisonSchemaName,
			Message: "embedded schema is invalid",
			Cause:   comparisonSchemaErr,
		}
	}

	result, err := comparisonSchema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("failed to load comparison document: %w", err)
	}
	return collect(result)
}

// ValidateJSON validates the document at docPath against the schema file at
// schemaPath. Both are loaded by reference so the schema may $ref siblings.
func ValidateJSON(schemaPath, docPath string) error {
	schemaAbs, err := existingFile(schemaPath, "schema")
	if err != nil {
		return err
	}
	docAbs, err := existingFile(docPath, "document")
	if err != nil {
		return err
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewReferenceLoader("file://"+filepath.ToSlash(schemaAbs)),
		gojsonschema.NewReferenceLoader("file://"+filepath.ToSlash(docAbs)),
	)
	if err != nil {
		return &SchemaLoadError{Path: schemaAbs, Message: "cannot load schema or document", Cause: err}
	}
	return collect(result)
}

// ValidateJSONString validates a document held in memory against schema text.
func ValidateJSONString(schemaContent, docContent string) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schemaContent),
		gojsonschema.NewStringLoader(docContent),
	)
	if err != nil {
		return &SchemaLoadError{Path: "(string schema)", Message: "cannot load schema or document", Cause: err}
	}
	return collect(result)
}

func existingFile(path, kind string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s path: %w", kind, err)
	}
	if _, err := os.Stat(abs); errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%s file not found: %s", kind, abs)
	}
	return abs, nil
}

func collect(result *gojsonschema.Result) error {
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

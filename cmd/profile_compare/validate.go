package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jonathan/profile-compare/internal/schemas"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <comparison.json>...",
	Short: "Check exported comparison documents against the comparison schema",
	Long: `Validate comparison documents against the embedded comparison schema.

Each argument is a file path, or "-" to read one document from stdin. A document
may be a bare comparison or the envelope printed by "compare --json". With
--schema the documents are checked as-is against that schema file instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

var validateSchemaPath string

func init() {
	validateCmd.Flags().StringVar(&validateSchemaPath, "schema", "", "Validate against this JSON Schema file instead of the embedded one")

	rootCmd.AddCommand(validateCmd)
}

// validateResult is the JSON output for one document.
type validateResult struct {
	Document string                `json:"document"`
	Valid    bool                  `json:"valid"`
	Errors   []validateFieldResult `json:"errors,omitempty"`
}

type validateFieldResult struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func runValidate(cmd *cobra.Command, args []string) error {
	var customSchema string
	if validateSchemaPath != "" {
		data, err := os.ReadFile(validateSchemaPath)
		if err != nil {
			return fmt.Errorf("failed to read schema: %w", err)
		}
		customSchema = string(data)
	}

	results := make([]validateResult, 0, len(args))
	invalid := 0
	for _, arg := range args {
		err := validateDocument(cmd.InOrStdin(), arg, customSchema)

		result := validateResult{Document: arg, Valid: err == nil}
		var validationErr *schemas.ValidationError
		switch {
		case err == nil:
		case errors.As(err, &validationErr):
			invalid++
			for _, fe := range validationErr.Errors {
				result.Errors = append(result.Errors, validateFieldResult{Field: fe.Field, Message: fe.Message})
			}
		default:
			return fmt.Errorf("%s: %w", arg, err)
		}
		results = append(results, result)
	}

	if jsonOutput {
		if err := writeJSON(cmd.OutOrStdout(), results); err != nil {
			return err
		}
	} else {
		out := cmd.OutOrStdout()
		for _, r := range results {
			if r.Valid {
				fmt.Fprintf(out, "%s: valid\n", r.Document)
				continue
			}
			fmt.Fprintf(out, "%s: invalid\n", r.Document)
			for _, fe := range r.Errors {
				fmt.Fprintf(out, "  - %s: %s\n", fe.Field, fe.Message)
			}
		}
	}

	if invalid > 0 {
		return fmt.Errorf("%d of %d documents failed validation", invalid, len(args))
	}
	return nil
}

// validateDocument checks one file, or stdin for "-". Files checked against a
// custom schema go through the schema library's file loader.
func validateDocument(stdin io.Reader, arg, customSchema string) error {
	if customSchema != "" && arg != "-" {
		return schemas.ValidateJSON(validateSchemaPath, arg)
	}

	var data []byte
	var err error
	if arg == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(arg)
	}
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}

	if customSchema != "" {
		return schemas.ValidateJSONString(customSchema, string(data))
	}
	return schemas.ValidateComparisonJSON(unwrapComparison(data))
}

// unwrapComparison returns the comparison inside a "compare --json" envelope,
// or data unchanged when it is not one.
func unwrapComparison(data []byte) []byte {
	var envelope struct {
		Comparison json.RawMessage `json:"comparison"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil || len(envelope.Comparison) == 0 || string(envelope.Comparison) == "null" {
		return data
	}
	return envelope.Comparison
}

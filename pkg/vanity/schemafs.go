package vanity

import (
	"embed"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// OutcomeSchemaFile is the embedded JSON schema of an encoded Outcome.
const OutcomeSchemaFile = "outcome-schema.json"

// SchemaFS contains the embedded Outcome JSON schema.
//
//go:embed outcome-schema.json
var SchemaFS embed.FS

// OutcomeSchema returns the JSON schema describing an encoded Outcome.
func OutcomeSchema() []byte {
	data, err := SchemaFS.ReadFile(OutcomeSchemaFile)
	if err != nil {
		panic(fmt.Sprintf("vanity: embedded schema missing: %v", err))
	}

	return data
}

// ValidateOutcomeJSON checks an encoded Outcome against OutcomeSchema and
// returns one message per violation.
func ValidateOutcomeJSON(data []byte) ([]string, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(OutcomeSchema()),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("validate outcome: %w", err)
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		violations = append(violations, verr.String())
	}

	return violations, nil
}

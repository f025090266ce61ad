package sim

import (
	"bytes"
	_ "embed"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed step.schema.json
var stepSchemaJSON []byte

var stepSchema = mustCompileStepSchema()

func mustCompileStepSchema() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("step-record.json", bytes.NewReader(stepSchemaJSON)); err != nil {
		panic(fmt.Sprintf("sim: add step schema: %v", err))
	}
	s, err := c.Compile("step-record.json")
	if err != nil {
		panic(fmt.Sprintf("sim: compile step schema: %v", err))
	}
	return s
}

// validateStepPayload checks a raw step document against the step-record
// schema before it is decoded into a StepRecord. Payloads that fail here are
// never handed to the session layer.
func validateStepPayload(doc any) error {
	if err := stepSchema.Validate(doc); err != nil {
		return fmt.Errorf("step payload rejected: %w", err)
	}
	return nil
}

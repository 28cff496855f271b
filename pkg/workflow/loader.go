package workflow

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"

	"github.com/gardenlabs/bazaar/pkg/models"
)

const definitionSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["name", "service_type", "initial_step", "steps", "final_steps"],
	"properties": {
		"name": {"type": "string", "minLength": 3},
		"service_type": {"type": "string", "minLength": 1},
		"initial_step": {"type": "string", "minLength": 1},
		"steps": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["id", "type"],
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"type": {"enum": ["action", "decision"]},
					"actions": {"type": "array"},
					"timeout": {"type": "integer", "minimum": 0},
					"on_timeout": {"type": "string"},
					"outputs": {"type": "object"},
					"error_handling": {"type": "object"},
					"notifications": {"type": "array", "items": {"type": "string"}}
				}
			}
		},
		"transitions": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["from", "to"],
				"properties": {
					"from": {"type": "string"},
					"to": {"type": "string"},
					"condition": {"type": "string"}
				}
			}
		},
		"final_steps": {"type": "array", "minItems": 1, "items": {"type": "string"}}
	}
}`

// Loader parses and validates workflow definitions: JSON schema first, then
// struct tags, then referential checks over step ids.
type Loader struct {
	schema   *gojsonschema.Schema
	validate *validator.Validate
}

func NewLoader() (*Loader, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(definitionSchema))
	if err != nil {
		return nil, fmt.Errorf("compile definition schema: %w", err)
	}

	return &Loader{
		schema:   schema,
		validate: validator.New(),
	}, nil
}

func (l *Loader) Load(data []byte) (*models.WorkflowDefinition, error) {
	result, err := l.schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("validate definition: %w", err)
	}

	if !result.Valid() {
		descriptions := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			descriptions = append(descriptions, desc.String())
		}

		return nil, fmt.Errorf("invalid definition: %s", strings.Join(descriptions, "; "))
	}

	var def models.WorkflowDefinition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse definition: %w", err)
	}

	if err := l.validate.Struct(&def); err != nil {
		return nil, fmt.Errorf("validate definition: %w", err)
	}

	if err := checkReferences(&def); err != nil {
		return nil, err
	}

	return &def, nil
}

func (l *Loader) LoadFile(path string) (*models.WorkflowDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definition %s: %w", path, err)
	}

	return l.Load(data)
}

// checkReferences verifies every step id a definition points at actually
// exists, so runs never abort on a dangling reference.
func checkReferences(def *models.WorkflowDefinition) error {
	index := def.StepIndex()

	if _, ok := index[def.InitialStep]; !ok {
		return fmt.Errorf("initial step %q not defined", def.InitialStep)
	}

	for _, id := range def.FinalSteps {
		if _, ok := index[id]; !ok {
			return fmt.Errorf("final step %q not defined", id)
		}
	}

	for _, step := range def.Steps {
		if step.OnTimeout != "" {
			if _, ok := index[step.OnTimeout]; !ok {
				return fmt.Errorf("step %q routes timeout to undefined step %q", step.ID, step.OnTimeout)
			}
		}

		if step.ErrorHandling != nil && step.ErrorHandling.OnError != "" {
			if _, ok := index[step.ErrorHandling.OnError]; !ok {
				return fmt.Errorf("step %q routes errors to undefined step %q", step.ID, step.ErrorHandling.OnError)
			}
		}
	}

	for _, transition := range def.Transitions {
		if _, ok := index[transition.From]; !ok {
			return fmt.Errorf("transition from undefined step %q", transition.From)
		}

		if _, ok := index[transition.To]; !ok {
			return fmt.Errorf("transition to undefined step %q", transition.To)
		}
	}

	return nil
}

// Where: cli/internal/infra/config/validate.go
// What: JSON schema validation for the config document.
// Why: Reject typos and invalid enums before viper silently ignores them.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"sigs.k8s.io/yaml"
)

const schemaURL = "mem://autodeploy/config.schema.json"

//go:embed schema/config.schema.json
var schemaDocument []byte

var (
	schemaOnce     sync.Once
	schemaErr      error
	compiledSchema *jsonschema.Schema
)

// ValidateDocument checks a YAML (or JSON) config document against the schema.
func ValidateDocument(content []byte) error {
	sch, err := loadSchema()
	if err != nil {
		return fmt.Errorf("load config schema: %w", err)
	}
	if len(bytes.TrimSpace(content)) == 0 {
		return nil
	}

	jsonData, err := yaml.YAMLToJSON(content)
	if err != nil {
		return fmt.Errorf("convert yaml to json: %w", err)
	}

	var document any
	if err := json.Unmarshal(jsonData, &document); err != nil {
		return fmt.Errorf("decode config json: %w", err)
	}
	if document == nil {
		return nil
	}
	if err := sch.Validate(document); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaDocument)); err != nil {
			schemaErr = err
			return
		}
		compiledSchema, schemaErr = compiler.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}

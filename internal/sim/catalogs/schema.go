package catalogs

import (
	_ "embed"
	"encoding/json"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed buildings.schema.json
var buildingsSchemaJSON string

var (
	buildingsSchemaOnce sync.Once
	buildingsSchema     *jsonschema.Schema
	buildingsSchemaErr  error
)

func compiledBuildingsSchema() (*jsonschema.Schema, error) {
	buildingsSchemaOnce.Do(func() {
		buildingsSchema, buildingsSchemaErr = jsonschema.CompileString("buildings.schema.json", buildingsSchemaJSON)
	})
	return buildingsSchema, buildingsSchemaErr
}

func validateBuildings(raw []byte) error {
	s, err := compiledBuildingsSchema()
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	return s.Validate(v)
}

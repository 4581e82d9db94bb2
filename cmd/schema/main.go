// Command schema writes a JSON schema for the entity shapes carried by the
// wire protocol and the persisted collection files. Drop the output into the
// static directory to serve it alongside the config JSON.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"marsvandals/internal/model"
)

func main() {
	var outPath string
	flag.StringVar(&outPath, "out", "", "path to write the JSON schema")
	flag.Parse()

	if outPath == "" {
		fmt.Fprintln(os.Stderr, "--out is required")
		os.Exit(1)
	}

	schema := buildSchema()

	if err := writeSchema(outPath, schema); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write schema: %v\n", err)
		os.Exit(1)
	}
}

func buildSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
	}
	schema := reflector.Reflect(new(protocolEntities))
	schema.Title = "Vandals on Mars Protocol Entities"
	schema.Description = "Validates the entity payloads exchanged over the sync socket and stored in the data directory"
	return schema
}

// protocolEntities groups every entity shape the server exchanges or persists.
type protocolEntities struct {
	Billboard    model.Billboard    `json:"billboard"`
	Powerup      model.Powerup      `json:"powerup"`
	PlayerRecord model.PlayerRecord `json:"playerRecord"`
	TerrainData  model.TerrainData  `json:"terrainData"`
}

func writeSchema(outPath string, schema *jsonschema.Schema) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create schema directory: %w", err)
	}

	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("replace schema: %w", err)
	}

	return nil
}

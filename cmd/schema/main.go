// Command schema emits JSON Schemas for the persisted session document and
// the gateway snapshot message, for use by external tooling and UI clients.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"reflect"

	"github.com/invopop/jsonschema"

	"timberline/core/internal/session"
	"timberline/core/internal/sim"
)

func main() {
	var outDir string
	flag.StringVar(&outDir, "out", "", "output directory for the JSON schemas")
	flag.Parse()

	if outDir == "" {
		log.Fatal("schema: missing -out directory")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		log.Fatalf("schema: create output dir: %v", err)
	}

	targets := []struct {
		name        string
		title       string
		description string
		value       any
	}{
		{
			name:        "session.schema.json",
			title:       "Session Document",
			description: "Persisted world state replayed at boot: buildings, workers, and the resource pool.",
			value:       session.Document{},
		},
		{
			name:        "snapshot.schema.json",
			title:       "Tick Snapshot",
			description: "Per-tick world projection broadcast to gateway clients.",
			value:       sim.Snapshot{},
		},
	}

	for _, target := range targets {
		schema, err := buildSchema(target.value, target.title, target.description)
		if err != nil {
			log.Fatalf("schema: %v", err)
		}
		data, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			log.Fatalf("schema: marshal %s: %v", target.name, err)
		}
		data = append(data, '\n')
		outPath := filepath.Join(outDir, target.name)
		if err := os.WriteFile(outPath, data, 0o644); err != nil {
			log.Fatalf("schema: write %s: %v", target.name, err)
		}
		fmt.Println(outPath)
	}
}

func buildSchema(value any, title, description string) (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}
	schema := reflector.ReflectFromType(reflect.TypeOf(value))
	if schema == nil {
		return nil, fmt.Errorf("failed to reflect %T", value)
	}
	schema.Version = ""
	schema.Title = title
	schema.Description = description
	return schema, nil
}

package httpgateway

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const allocationSchema = `{
  "type": "object",
  "required": ["status"],
  "properties": {
    "status": {"type": "string", "enum": ["success", "error", "running"]},
    "message": {"type": ["string", "null"]},
    "statistics": {
      "type": ["object", "null"],
      "properties": {
        "totalFragments": {"type": ["integer", "null"], "minimum": 0},
        "totalEdges": {"type": ["integer", "null"], "minimum": 0},
        "executionTime": {"type": ["number", "null"], "minimum": 0},
        "dbStatFile": {"type": ["string", "null"]},
        "graphFile": {"type": ["string", "null"]}
      }
    },
    "distribution": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["machineId", "fragmentCount"],
        "properties": {
          "machineId": {"type": "integer", "minimum": 0},
          "fragmentCount": {"type": "integer", "minimum": 0},
          "workerIp": {"type": ["string", "null"]}
        }
      }
    },
    "affectationFile": {"type": ["string", "null"]}
  }
}`

const queryExecutionSchema = `{
  "type": "object",
  "required": ["status"],
  "properties": {
    "status": {"type": "string", "enum": ["success", "error"]},
    "message": {"type": ["string", "null"]},
    "queryFile": {"type": ["string", "null"]},
    "executionTimeMs": {"type": ["integer", "null"], "minimum": 0},
    "resultCount": {"type": ["integer", "null"], "minimum": 0},
    "output": {"type": ["string", "null"]},
    "results": {"type": ["array", "null"], "items": {"type": "string"}}
  }
}`

var (
	allocationLoader     = gojsonschema.NewStringLoader(allocationSchema)
	queryExecutionLoader = gojsonschema.NewStringLoader(queryExecutionSchema)
)

// validatePayload checks body against schema.
func validatePayload(schema gojsonschema.JSONLoader, body []byte) error {
	result, err := gojsonschema.Validate(schema, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return err
	}

	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}

		return fmt.Errorf("JSON schema validation failed: %s", strings.Join(problems, "; "))
	}

	return nil
}

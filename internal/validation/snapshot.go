package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	ErrSnapshotInvalid = errors.New("snapshot validation failed")
)

// SnapshotJSONSchema documents the runtime shape expected of update
// snapshots. Additional fields are free-form; status, when present, must be
// a string so the transition extraction never sees a non-status value.
const SnapshotJSONSchema = `
{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "title": "UpdateSnapshot",
  "type": "object",
  "properties": {
    "status": {
      "type": "string",
      "description": "Lifecycle status carried by the update"
    },
    "comment": {
      "type": ["string", "null"]
    },
    "attachments": {
      "type": "array",
      "items": {"type": "string"}
    }
  },
  "additionalProperties": true
}
`

// ValidationIssue captures a single validation failure.
type ValidationIssue struct {
	Location string
	Message  string
}

// SnapshotValidationError surfaces validation issues with schema-aware context.
type SnapshotValidationError struct {
	Issues []ValidationIssue
	Cause  error
}

func (e *SnapshotValidationError) Error() string {
	if len(e.Issues) == 0 {
		if e.Cause != nil {
			return e.Cause.Error()
		}
		return ErrSnapshotInvalid.Error()
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		location := strings.TrimSpace(issue.Location)
		if location == "" {
			location = "#"
		} else if !strings.HasPrefix(location, "#") {
			location = "#" + location
		}
		if issue.Message == "" {
			parts = append(parts, location)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", location, issue.Message))
	}
	return strings.Join(parts, "; ")
}

func (e *SnapshotValidationError) Unwrap() error {
	return ErrSnapshotInvalid
}

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func snapshotSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource("snapshot.json", bytes.NewReader([]byte(SnapshotJSONSchema))); err != nil {
			compileErr = err
			return
		}
		compiledSchema, compileErr = compiler.Compile("snapshot.json")
	})
	return compiledSchema, compileErr
}

// ValidateSnapshot validates an update snapshot payload. Nil payloads are
// valid; the creating update carries an empty old snapshot.
func ValidateSnapshot(payload map[string]any) error {
	if payload == nil {
		return nil
	}
	schema, err := snapshotSchema()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSnapshotInvalid, err)
	}
	normalized, err := normalizePayload(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSnapshotInvalid, err)
	}
	if err := schema.Validate(normalized); err != nil {
		return &SnapshotValidationError{
			Issues: collectValidationIssues(err),
			Cause:  err,
		}
	}
	return nil
}

// normalizePayload round-trips through JSON so typed values (e.g. Status)
// validate the same way persisted JSONB documents do.
func normalizePayload(payload map[string]any) (any, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var decoded any
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		return nil, err
	}
	return decoded, nil
}

func collectValidationIssues(err error) []ValidationIssue {
	var validationErr *jsonschema.ValidationError
	if !errors.As(err, &validationErr) || validationErr == nil {
		return []ValidationIssue{{Message: err.Error()}}
	}
	issues := []ValidationIssue{}
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if node == nil {
			return
		}
		if len(node.Causes) == 0 {
			issues = append(issues, ValidationIssue{
				Location: strings.TrimSpace(node.InstanceLocation),
				Message:  strings.TrimSpace(node.Message),
			})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(validationErr)
	return issues
}

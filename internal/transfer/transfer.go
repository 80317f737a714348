// Package transfer reads and writes the profile export document.
package transfer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/runnerr0/jobtrail/internal/record"
)

// Document is the export/import file layout.
type Document struct {
	Profile  record.Profile  `json:"profile"`
	Settings record.Settings `json:"settings"`
}

const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["profile", "settings"],
  "properties": {
    "profile": {
      "type": "object",
      "properties": {
        "firstName": {"type": "string"},
        "lastName": {"type": "string"},
        "email": {"type": "string"},
        "phone": {"type": "string"},
        "salary": {"type": "string"},
        "location": {"type": "string"},
        "preferences": {
          "type": "object",
          "additionalProperties": {"type": "string"}
        }
      }
    },
    "settings": {
      "type": "object",
      "properties": {
        "autoSync": {"type": "boolean"},
        "darkMode": {"type": "boolean"}
      }
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(documentSchema)

// ValidationError lists the schema violations of an imported document.
type ValidationError struct {
	Errors []FieldError
}

// FieldError is one schema violation.
type FieldError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("invalid export document:")
	for _, fe := range e.Errors {
		sb.WriteString(fmt.Sprintf(" %s: %s;", fe.Field, fe.Message))
	}
	return strings.TrimSuffix(sb.String(), ";")
}

// Export encodes doc as indented JSON.
func Export(doc Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export document: %w", err)
	}
	return data, nil
}

// Import validates data against the document schema and decodes it. A
// document that fails validation is rejected whole.
func Import(data []byte) (*Document, error) {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("read export document: %w", err)
	}

	if !result.Valid() {
		verr := &ValidationError{}
		for _, re := range result.Errors() {
			verr.Errors = append(verr.Errors, FieldError{
				Field:   re.Field(),
				Message: re.Description(),
			})
		}
		return nil, verr
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode export document: %w", err)
	}
	return &doc, nil
}

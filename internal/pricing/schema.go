package pricing

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidPricing is returned when a pricing document does not match the schema.
var ErrInvalidPricing = errors.New("invalid pricing data")

const schemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["models"],
  "properties": {
    "pricing_info": {
      "type": "object",
      "properties": {
        "description": {"type": "string"},
        "last_updated": {"type": "string"},
        "currency": {"type": "string"}
      }
    },
    "models": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "required": ["input_per_1m", "output_per_1m"],
        "properties": {
          "input_per_1m": {"type": "number", "minimum": 0},
          "output_per_1m": {"type": "number", "minimum": 0},
          "description": {"type": "string"}
        }
      }
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(schemaJSON)

// Validate checks a raw pricing document against the pricing schema.
func Validate(body []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPricing, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidPricing, strings.Join(msgs, "; "))
	}
	return nil
}

// Decode validates and parses a pricing document.
func Decode(body []byte) (Data, error) {
	if err := Validate(body); err != nil {
		return Data{}, err
	}
	var data Data
	if err := json.Unmarshal(body, &data); err != nil {
		return Data{}, fmt.Errorf("%w: %v", ErrInvalidPricing, err)
	}
	return data, nil
}

// LoadFile reads and validates a pricing document from disk.
func LoadFile(path string) (Data, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return Data{}, err
	}
	return Decode(body)
}

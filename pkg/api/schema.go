package api

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// beaconPayloadSchema validates beacon-create payloads. The beacon path is
// fire-and-forget from the client's side, so malformed bodies must be
// rejected at the boundary — nothing downstream will ever report on them.
const beaconPayloadSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["session_id", "cart_items"],
  "properties": {
    "session_id": {"type": "string", "minLength": 1},
    "full_name": {"type": "string"},
    "phone": {"type": "string"},
    "email": {"type": "string"},
    "address": {"type": "string"},
    "shipping_location": {"type": "string"},
    "payment_method": {"type": "string"},
    "notes": {"type": "string"},
    "cart_items": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["product_id", "quantity", "price"],
        "properties": {
          "product_id": {"type": "string", "minLength": 1},
          "product_name": {"type": "string"},
          "product_image": {"type": "string"},
          "quantity": {"type": "integer", "minimum": 1},
          "size": {"type": "string"},
          "color": {"type": "string"},
          "price": {"type": "integer", "minimum": 0}
        }
      }
    },
    "subtotal": {"type": "integer", "minimum": 0},
    "shipping_fee": {"type": "integer", "minimum": 0},
    "total": {"type": "integer", "minimum": 0},
    "source": {"type": "string", "enum": ["checkout", "quick_buy"]}
  }
}`

// compileBeaconSchema compiles the embedded beacon payload schema.
func compileBeaconSchema() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	schemaURL := "https://brightbasket.schemas.local/capture/beacon.schema.json"
	if err := c.AddResource(schemaURL, strings.NewReader(beaconPayloadSchema)); err != nil {
		return nil, fmt.Errorf("failed to load beacon schema: %w", err)
	}
	schema, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile beacon schema: %w", err)
	}
	return schema, nil
}

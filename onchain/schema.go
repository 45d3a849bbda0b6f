/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package onchain

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/hyperledger/aries-framework-go/component/merklerecord/common"
	"github.com/hyperledger/aries-framework-go/component/merklerecord/internal/codec"
)

const itemsSchema = `
{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["path", "value"],
    "additionalProperties": false,
    "properties": {
      "path": {
        "type": "array",
        "items": {
          "anyOf": [
            {"type": "string"},
            {"type": "integer", "minimum": 0}
          ]
        }
      },
      "value": {
        "type": ["string", "number", "boolean", "null"]
      },
      "transformation": {
        "$ref": "#/definitions/transformation"
      }
    }
  },
  "definitions": {
    "transformation": {
      "type": "object",
      "required": ["type"],
      "additionalProperties": false,
      "properties": {
        "type": {"enum": ["hashable", "maskable"]},
        "visibleParts": {"type": "array", "items": {"type": "string"}},
        "hiddenParts": {"type": "array", "items": {"type": "string"}}
      }
    }
  }
}
`

//nolint:gochecknoglobals
var itemsSchemaLoader = gojsonschema.NewStringLoader(itemsSchema)

// validateItems checks the generic shape of an encoded item list before it is decoded into typed items.
func validateItems(data []byte) error {
	var generic interface{}
	if err := codec.Unmarshal(data, &generic); err != nil {
		return fmt.Errorf("%w: decode channel items: %s", common.ErrIntegrity, err.Error())
	}

	result, err := gojsonschema.Validate(itemsSchemaLoader, gojsonschema.NewGoLoader(generic))
	if err != nil {
		return fmt.Errorf("%w: validation of channel items: %s", common.ErrIntegrity, err.Error())
	}

	if !result.Valid() {
		return fmt.Errorf("%w: %s", common.ErrIntegrity, describeSchemaValidationError(result, "channel items"))
	}

	return nil
}

func describeSchemaValidationError(result *gojsonschema.Result, what string) string {
	errMsg := what + " is not valid:\n"
	for _, desc := range result.Errors() {
		errMsg += fmt.Sprintf("- %s\n", desc)
	}

	return errMsg
}

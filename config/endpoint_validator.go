package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"apimonitor/models"

	"github.com/xeipuuv/gojsonschema"
)

const endpointSchema = `{
	"type": "object",
	"required": ["name", "url"],
	"properties": {
		"name": {
			"type": "string",
			"minLength": 1
		},
		"url": {
			"type": "string",
			"minLength": 1
		},
		"method": {
			"type": "string",
			"enum": ["GET", "POST", "PUT", "DELETE", "PATCH"]
		},
		"expected_status": {
			"type": "integer",
			"minimum": 100,
			"maximum": 599
		},
		"timeout_seconds": {
			"type": "integer",
			"minimum": 0
		},
		"headers": {
			"type": "object",
			"additionalProperties": {
				"type": "string"
			}
		},
		"sla": {
			"type": "object",
			"properties": {
				"availability_percentage": {
					"type": "number",
					"minimum": 0,
					"maximum": 100
				},
				"max_response_time_ms": {
					"type": "number",
					"minimum": 0
				}
			}
		},
		"slo": {
			"type": "object",
			"properties": {
				"max_avg_response_time_ms": {
					"type": "number",
					"minimum": 0
				},
				"max_error_rate_percentage": {
					"type": "number",
					"minimum": 0,
					"maximum": 100
				}
			}
		},
		"validation": {
			"type": "object",
			"properties": {
				"content_checks": {
					"type": "array",
					"items": {
						"type": "object",
						"required": ["type", "key"],
						"properties": {
							"type": {
								"type": "string",
								"enum": ["json_key_exists", "json_key_value"]
							},
							"key": {
								"type": "string",
								"minLength": 1
							}
						}
					}
				}
			}
		}
	}
}`

type EndpointValidator struct {
	schemaLoader gojsonschema.JSONLoader
}

func NewEndpointValidator() *EndpointValidator {
	return &EndpointValidator{
		schemaLoader: gojsonschema.NewStringLoader(endpointSchema),
	}
}

func (v *EndpointValidator) ValidateEndpoint(endpoint models.EndpointSpec) error {
	endpointBytes, err := json.Marshal(endpoint)
	if err != nil {
		return err
	}

	result, err := gojsonschema.Validate(v.schemaLoader, gojsonschema.NewBytesLoader(endpointBytes))
	if err != nil {
		return err
	}
	if !result.Valid() {
		descriptions := make([]string, 0, len(result.Errors()))
		for _, resultErr := range result.Errors() {
			descriptions = append(descriptions, fmt.Sprintf("%s: %s", resultErr.Field(), resultErr.Description()))
		}
		return fmt.Errorf("%s", strings.Join(descriptions, "; "))
	}

	for _, check := range endpoint.Validation.ContentChecks {
		if check.Type == models.CheckJSONKeyValue && check.Expected == nil {
			return fmt.Errorf("content check for key %q requires an expected value", check.Key)
		}
	}
	return nil
}

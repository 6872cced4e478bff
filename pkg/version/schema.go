package version

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// versionSchema guards the snapshot document shape. Snapshots are immutable
// once written; a malformed document would poison every future migration of
// the workflows built from it, so it is checked at publish time.
const versionSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["name", "tasks"],
	"properties": {
		"name": {"type": "string", "minLength": 1},
		"description": {"type": "string"},
		"wf_name_template": {"type": "string"},
		"kickoff": {
			"type": ["object", "null"],
			"properties": {
				"description": {"type": "string"},
				"fields": {"type": "array", "items": {"$ref": "#/definitions/field"}}
			}
		},
		"tasks": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["api_name", "number", "name"],
				"properties": {
					"api_name": {"type": "string", "minLength": 1},
					"number": {"type": "integer", "minimum": 1},
					"name": {"type": "string", "minLength": 1},
					"description": {"type": "string"},
					"require_completion_by_all": {"type": "boolean"},
					"delay": {"type": "integer", "minimum": 0},
					"revert_task": {"type": "string"},
					"checklist": {"type": "array", "items": {"type": "string", "minLength": 1}},
					"raw_due_date": {
						"type": ["object", "null"],
						"required": ["api_name", "rule"],
						"properties": {
							"api_name": {"type": "string"},
							"rule": {"enum": ["after_task_started", "after_workflow_started", "after_field"]},
							"duration": {"type": "integer", "minimum": 0},
							"source_id": {"type": "string"}
						}
					},
					"raw_performers": {
						"type": "array",
						"items": {
							"type": "object",
							"required": ["api_name", "type"],
							"properties": {
								"api_name": {"type": "string"},
								"type": {"enum": ["user", "field", "workflow_starter", "group"]},
								"user_id": {"type": "string"},
								"group_id": {"type": "string"},
								"field": {"type": "string"}
							}
						}
					},
					"fields": {"type": "array", "items": {"$ref": "#/definitions/field"}},
					"conditions": {
						"type": "array",
						"items": {
							"type": "object",
							"required": ["api_name", "action", "rules"],
							"properties": {
								"api_name": {"type": "string"},
								"action": {"enum": ["skip_task", "start_task", "end_workflow"]},
								"order": {"type": "integer"},
								"rules": {
									"type": "array",
									"minItems": 1,
									"items": {
										"type": "object",
										"required": ["api_name", "predicates"],
										"properties": {
											"api_name": {"type": "string"},
											"order": {"type": "integer"},
											"predicates": {
												"type": "array",
												"minItems": 1,
												"items": {
													"type": "object",
													"required": ["api_name", "operator", "field_type"],
													"properties": {
														"api_name": {"type": "string"},
														"operator": {"enum": ["equal", "not_equal", "more_than", "less_than", "exist", "not_exist", "contain", "not_contain", "completed"]},
														"field_type": {"type": "string"},
														"field": {"type": "string"},
														"value": {"type": ["string", "null"]}
													}
												}
											}
										}
									}
								}
							}
						}
					}
				}
			}
		}
	},
	"definitions": {
		"field": {
			"type": "object",
			"required": ["api_name", "name", "type"],
			"properties": {
				"api_name": {"type": "string", "minLength": 1},
				"name": {"type": "string"},
				"type": {"enum": ["string", "text", "number", "date", "url", "file", "user", "group", "radio", "dropdown", "checkbox"]},
				"is_required": {"type": "boolean"},
				"order": {"type": "integer"},
				"selections": {
					"type": "array",
					"items": {
						"type": "object",
						"required": ["api_name", "value"],
						"properties": {
							"api_name": {"type": "string"},
							"value": {"type": "string"}
						}
					}
				}
			}
		}
	}
}`

func validateDocument(doc []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(versionSchema),
		gojsonschema.NewBytesLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("failed to validate version document: %w", err)
	}

	if !result.Valid() {
		first := result.Errors()[0]

		return fmt.Errorf("version document is invalid: %s: %s", first.Field(), first.Description())
	}

	return nil
}

package report

// Schema is the JSON Schema (Draft 2020-12) for the impact analysis
// JSON output. It documents the structure written by WriteJSON.
const Schema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://github.com/unbound-force/sttm-impact/impact-report.schema.json",
  "title": "STTM Impact Analysis Report",
  "description": "Output schema for sttm-impact analyze --format=json",
  "type": "object",
  "required": ["metadata", "summary", "assessments", "gaps", "generated_test_cases", "action_plan"],
  "properties": {
    "metadata": { "$ref": "#/$defs/Metadata" },
    "summary": { "$ref": "#/$defs/Summary" },
    "assessments": {
      "type": "array",
      "items": { "$ref": "#/$defs/ImpactAssessment" }
    },
    "gaps": {
      "type": "array",
      "items": { "$ref": "#/$defs/GapEntry" }
    },
    "generated_test_cases": {
      "type": "array",
      "items": { "$ref": "#/$defs/GeneratedTestCase" }
    },
    "action_plan": {
      "type": "object",
      "required": ["items"],
      "properties": {
        "items": {
          "type": "array",
          "items": { "$ref": "#/$defs/ActionItem" }
        }
      }
    }
  },
  "$defs": {
    "Metadata": {
      "type": "object",
      "required": ["tool_version", "go_version", "duration_ms", "warnings"],
      "properties": {
        "tool_version": { "type": "string" },
        "go_version": { "type": "string" },
        "preset": { "type": "string" },
        "timestamp": { "type": "string", "description": "RFC 3339 start time" },
        "duration_ms": { "type": "integer", "minimum": 0 },
        "warnings": {
          "type": "array",
          "items": { "type": "string" }
        }
      }
    },
    "Summary": {
      "type": "object",
      "required": ["total_test_cases", "total_changes", "skipped_changes", "impacted_test_cases", "level_counts", "gap_counts", "generated_count", "highest_impact"],
      "properties": {
        "total_test_cases": { "type": "integer", "minimum": 0 },
        "total_changes": { "type": "integer", "minimum": 0 },
        "skipped_changes": { "type": "integer", "minimum": 0 },
        "impacted_test_cases": { "type": "integer", "minimum": 0 },
        "level_counts": {
          "type": "object",
          "propertyNames": { "$ref": "#/$defs/ImpactLevel" },
          "additionalProperties": { "type": "integer", "minimum": 0 }
        },
        "gap_counts": {
          "type": "object",
          "propertyNames": { "$ref": "#/$defs/ChangeKind" },
          "additionalProperties": { "type": "integer", "minimum": 0 }
        },
        "generated_count": { "type": "integer", "minimum": 0 },
        "highest_impact": {
          "type": "array",
          "maxItems": 5,
          "items": { "$ref": "#/$defs/ImpactAssessment" }
        }
      }
    },
    "ImpactLevel": {
      "type": "string",
      "enum": ["HIGH", "MEDIUM", "LOW"]
    },
    "ChangeKind": {
      "type": "string",
      "enum": ["added", "deleted", "modified", "unchanged"]
    },
    "MappingChange": {
      "type": "object",
      "required": ["id", "tab", "source_field", "target_field", "change_kind"],
      "properties": {
        "id": { "type": "string" },
        "tab": { "type": "string" },
        "source_field": { "type": "string" },
        "target_field": { "type": "string" },
        "canonical_name": { "type": "string" },
        "sample_data": { "type": "string" },
        "change_kind": { "$ref": "#/$defs/ChangeKind" },
        "modified_fields": {
          "type": "array",
          "items": { "type": "string" }
        },
        "original_values": {
          "type": "object",
          "additionalProperties": { "type": "string" }
        },
        "new_values": {
          "type": "object",
          "additionalProperties": { "type": "string" }
        }
      }
    },
    "ImpactAssessment": {
      "type": "object",
      "required": ["test_case_id", "test_case_name", "impact", "confidence", "affected_steps", "causing_changes", "recommended_action", "recommendations", "contributions", "step_impacts"],
      "properties": {
        "test_case_id": { "type": "string" },
        "test_case_name": { "type": "string" },
        "impact": {
          "type": "object",
          "required": ["score", "level"],
          "properties": {
            "score": { "type": "number", "minimum": 0 },
            "level": { "$ref": "#/$defs/ImpactLevel" }
          }
        },
        "confidence": { "type": "number", "minimum": 0, "maximum": 1 },
        "affected_steps": {
          "type": "array",
          "items": { "type": "integer", "minimum": 1 }
        },
        "causing_changes": {
          "type": "array",
          "minItems": 1,
          "items": { "$ref": "#/$defs/MappingChange" }
        },
        "recommended_action": {
          "type": "string",
          "enum": ["UPDATE", "DELETE", "REVIEW"]
        },
        "recommendations": {
          "type": "array",
          "items": { "type": "string" }
        },
        "contributions": {
          "type": "array",
          "items": { "$ref": "#/$defs/Contribution" }
        },
        "step_impacts": {
          "type": "array",
          "items": { "$ref": "#/$defs/StepImpact" }
        }
      }
    },
    "Contribution": {
      "type": "object",
      "required": ["mapping_id", "signal", "confidence", "weight", "field_multiplier", "confidence_multiplier", "value"],
      "properties": {
        "mapping_id": { "type": "string" },
        "signal": {
          "type": "string",
          "enum": ["sample_data", "field_name", "canonical_name", "tab_name"]
        },
        "confidence": { "type": "number", "minimum": 0, "maximum": 1 },
        "weight": { "type": "number", "minimum": 0 },
        "field_multiplier": { "type": "number", "minimum": 0 },
        "confidence_multiplier": { "type": "number", "minimum": 0 },
        "value": { "type": "number", "minimum": 0 }
      }
    },
    "StepImpact": {
      "type": "object",
      "required": ["step", "action", "mapping_id"],
      "properties": {
        "step": { "type": "integer", "minimum": 1 },
        "action": {
          "type": "string",
          "enum": ["add", "update", "remove", "review"]
        },
        "mapping_id": { "type": "string" },
        "pseudo": { "type": "boolean" }
      }
    },
    "GapEntry": {
      "type": "object",
      "required": ["change", "kind"],
      "properties": {
        "change": { "$ref": "#/$defs/MappingChange" },
        "kind": { "$ref": "#/$defs/ChangeKind" }
      }
    },
    "TestCase": {
      "type": "object",
      "required": ["id", "name", "description", "precondition", "steps"],
      "properties": {
        "id": { "type": "string" },
        "name": { "type": "string" },
        "description": { "type": "string" },
        "precondition": { "type": "string" },
        "steps": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["number", "description", "expected_result"],
            "properties": {
              "number": { "type": "integer", "minimum": 1 },
              "description": { "type": "string" },
              "expected_result": { "type": "string" }
            }
          }
        }
      }
    },
    "GeneratedTestCase": {
      "type": "object",
      "required": ["test_case", "source_mapping_id", "tab"],
      "properties": {
        "test_case": { "$ref": "#/$defs/TestCase" },
        "source_mapping_id": { "type": "string" },
        "tab": { "type": "string" }
      }
    },
    "ActionItem": {
      "type": "object",
      "required": ["priority", "kind", "title", "action"],
      "properties": {
        "priority": { "type": "integer", "minimum": 1, "maximum": 5 },
        "kind": {
          "type": "string",
          "enum": ["assessment", "generated_test_case", "gap"]
        },
        "test_case_id": { "type": "string" },
        "mapping_id": { "type": "string" },
        "title": { "type": "string" },
        "action": { "type": "string" },
        "score": { "type": "number" },
        "level": { "$ref": "#/$defs/ImpactLevel" }
      }
    }
  }
}`

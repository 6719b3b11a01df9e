package ai

import (
	"encoding/json"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// gradingResponseSchema constrains the JSON the grading model must
// return before it is mapped into a GradingOutcome.
const gradingResponseSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["score"],
  "properties": {
    "score": {"type": "number", "minimum": 0},
    "percentage": {"type": "number"},
    "grade": {"type": "string"},
    "overallFeedback": {"type": "string"},
    "detailedAnalysis": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "properties": {
          "score": {"type": "number"},
          "feedback": {"type": "string"}
        }
      }
    },
    "comparisonWithReference": {
      "type": "object",
      "properties": {
        "similarities": {"type": "array", "items": {"type": "string"}},
        "differences": {"type": "array", "items": {"type": "string"}},
        "improvements": {"type": "array", "items": {"type": "string"}}
      }
    },
    "strengths": {"type": "array", "items": {"type": "string"}},
    "areasForImprovement": {"type": "array", "items": {"type": "string"}},
    "specificFeedback": {"type": "array", "items": {"type": "string"}},
    "recommendations": {"type": "array", "items": {"type": "string"}},
    "confidence": {"type": "number", "minimum": 0, "maximum": 1},
    "rubricBreakdown": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "properties": {
          "score": {"type": "number"},
          "comment": {"type": "string"}
        }
      }
    }
  }
}`

var gradingSchema = jsonschema.MustCompileString("grading_response.json", gradingResponseSchema)

func validateGradingJSON(content string) error {
	var value interface{}
	dec := json.NewDecoder(strings.NewReader(content))
	dec.UseNumber()
	if err := dec.Decode(&value); err != nil {
		return err
	}
	return gradingSchema.Validate(value)
}

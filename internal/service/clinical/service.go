package clinical

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/w-h-a/medrecord/generator"
	"github.com/w-h-a/medrecord/record"
)

const promptTemplate = `Extract and return the following fields as a JSON object:

- "type_of_record": one of "prescription", "discharge summary", "progress note", "diagnostic report"
- "date_of_upload": today's date as YYYY-MM-DD

If it is a medical prescription, extract:
- "medications": currently taken, each with "name", "dosage", "frequency", "duration", and "end_date" (the date up to which the medication is taken, calculated from frequency and duration, YYYY-MM-DD)
- "vaccinations": already taken
- "allergies"
- "medical_conditions": diagnosed
- "tests": tests mentioned, with significant results only if necessary
- "summary": a single human-readable paragraph summarizing the extracted information, traceable for retrieval

Text:
"""
%s
"""

Return only the JSON object. Ensure the JSON is valid and parsable.`

// ParseError means the model replied but its output was not a valid
// JSON record. It carries the raw output so callers can distinguish
// garbage output from a failed provider call.
type ParseError struct {
	Output string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("extraction output is not valid JSON: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Service extracts a structured clinical record from raw document
// text with one deterministic model call.
type Service struct {
	generator generator.Generator
}

func (s *Service) Extract(ctx context.Context, rawText string) (record.ClinicalRecord, error) {
	prompt := fmt.Sprintf(promptTemplate, rawText)

	// temperature 0 so identical text yields identical output
	output, err := s.generator.Generate(
		ctx,
		[]generator.Message{
			{Role: generator.RoleUser, Content: prompt},
		},
		generator.WithTemperature(0),
	)
	if err != nil {
		return record.ClinicalRecord{}, err
	}

	var clinicalRecord record.ClinicalRecord

	carved, err := carveJSON(output)
	if err != nil {
		return record.ClinicalRecord{}, &ParseError{Output: output, Err: err}
	}

	if err := json.Unmarshal([]byte(carved), &clinicalRecord); err != nil {
		return record.ClinicalRecord{}, &ParseError{Output: output, Err: err}
	}

	return clinicalRecord, nil
}

// carveJSON trims prose and code fences around the first JSON object
// in the model's reply.
func carveJSON(output string) (string, error) {
	start := strings.Index(output, "{")
	end := strings.LastIndex(output, "}")

	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("no JSON object in output")
	}

	return output[start : end+1], nil
}

func New(generator generator.Generator) *Service {
	return &Service{
		generator: generator,
	}
}

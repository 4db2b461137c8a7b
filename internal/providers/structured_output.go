package providers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/jackzampolin/comply/internal/errdefs"
)

var errNoSchema = errors.New("no response schema loaded")

// decodeVerdict turns a structured payload into a Result.
//
// An absent or unparsable payload is an EmptyResponseError. A payload that
// fails the schema, carries a non-boolean is_compliant, or a confidence_score
// outside [0,1] is an InvalidResponseError.
func decodeVerdict(p Provider, model string, schemaDoc map[string]any, payload string, inputMsg string) (*Result, error) {
	parsed, err := parseStructuredJSON(payload)
	if err != nil {
		return nil, &errdefs.EmptyResponseError{Provider: string(p), Model: model}
	}

	if err := validateStructuredJSON(schemaDoc, parsed); err != nil {
		return nil, &errdefs.InvalidResponseError{Provider: string(p), Err: err}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(parsed, &fields); err != nil {
		return nil, &errdefs.InvalidResponseError{Provider: string(p), Err: fmt.Errorf("payload is not an object: %w", err)}
	}

	var v struct {
		IsCompliant     bool
		Reasoning       string
		ConfidenceScore float64
	}
	if err := decodeField(fields, "is_compliant", &v.IsCompliant); err != nil {
		return nil, &errdefs.InvalidResponseError{Provider: string(p), Err: err}
	}
	if err := decodeField(fields, "reasoning", &v.Reasoning); err != nil {
		return nil, &errdefs.InvalidResponseError{Provider: string(p), Err: err}
	}
	if err := decodeField(fields, "confidence_score", &v.ConfidenceScore); err != nil {
		return nil, &errdefs.InvalidResponseError{Provider: string(p), Err: err}
	}
	if math.IsNaN(v.ConfidenceScore) || v.ConfidenceScore < 0 || v.ConfidenceScore > 1 {
		return nil, &errdefs.InvalidResponseError{
			Provider: string(p),
			Err:      fmt.Errorf("confidence_score %v outside [0,1]", v.ConfidenceScore),
		}
	}

	return &Result{
		Model:           model,
		Provider:        p,
		IsCompliant:     v.IsCompliant,
		Reasoning:       v.Reasoning,
		ConfidenceScore: v.ConfidenceScore,
		InputMsg:        inputMsg,
	}, nil
}

// decodeField decodes one required field with Go's strict JSON typing:
// "true" (a string) does not decode into a bool.
func decodeField(fields map[string]json.RawMessage, name string, dst any) error {
	raw, ok := fields[name]
	if !ok || string(raw) == "null" {
		return fmt.Errorf("missing field %q", name)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("field %q: %w", name, err)
	}
	return nil
}

// parseStructuredJSON parses JSON from model output, with lightweight recovery
// for markdown code fences and surrounding text.
func parseStructuredJSON(content string) (json.RawMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" || content == "null" {
		return nil, fmt.Errorf("empty structured output")
	}

	candidates := []string{content}
	if stripped := stripCodeFences(content); stripped != "" && stripped != content {
		candidates = append(candidates, stripped)
	}
	if extracted := extractJSONCandidate(content); extracted != "" && extracted != content {
		candidates = append(candidates, extracted)
	}

	seen := make(map[string]struct{}, len(candidates))
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		if _, ok := seen[candidate]; ok {
			continue
		}
		seen[candidate] = struct{}{}

		var parsed any
		if err := json.Unmarshal([]byte(candidate), &parsed); err == nil {
			if parsed == nil {
				continue
			}
			normalized, mErr := json.Marshal(parsed)
			if mErr != nil {
				return nil, fmt.Errorf("failed to normalize structured output: %w", mErr)
			}
			return normalized, nil
		}
	}

	return nil, fmt.Errorf("failed to parse structured JSON")
}

func stripCodeFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return ""
	}

	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return ""
	}

	// Drop first fence line.
	lines = lines[1:]
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func extractJSONCandidate(content string) string {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	if start < 0 {
		return ""
	}
	end := strings.LastIndex(trimmed, "}")
	if end < start {
		return ""
	}
	return strings.TrimSpace(trimmed[start : end+1])
}

// validateStructuredJSON validates parsed JSON against a schema document.
func validateStructuredJSON(schemaDoc map[string]any, parsed json.RawMessage) error {
	if len(schemaDoc) == 0 {
		return errNoSchema
	}

	coreSchema, err := json.Marshal(schemaDoc)
	if err != nil {
		return fmt.Errorf("failed to serialize structured schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(coreSchema)); err != nil {
		return fmt.Errorf("failed to load structured schema: %w", err)
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("failed to compile structured schema: %w", err)
	}

	var doc any
	if err := json.Unmarshal(parsed, &doc); err != nil {
		return fmt.Errorf("failed to decode structured JSON for validation: %w", err)
	}

	if err := compiled.Validate(doc); err != nil {
		return fmt.Errorf("structured output does not match schema: %w", err)
	}
	return nil
}

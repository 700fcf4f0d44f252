package enrich

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/ppiankov/docstruct/internal/model"
)

// ErrInvalidResponse is returned when a completion cannot be read as a paragraph analysis
var ErrInvalidResponse = errors.New("invalid enrichment response")

const analysisSchema = `{
	"type": "object",
	"required": ["structural_tag", "argument_role", "gist"],
	"properties": {
		"structural_tag": {"type": "string", "minLength": 1},
		"argument_role": {"type": "string", "minLength": 1},
		"gist": {"type": "string", "minLength": 1}
	}
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func analysisValidator() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("analysis.json", bytes.NewReader([]byte(analysisSchema))); err != nil {
			schemaErr = fmt.Errorf("load analysis schema: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile("analysis.json")
	})
	return compiledSchema, schemaErr
}

// analysis is the decoded model answer for one paragraph
type analysis struct {
	StructuralTag model.StructuralTag `json:"structural_tag"`
	ArgumentRole  model.ArgumentRole  `json:"argument_role"`
	Gist          string              `json:"gist"`
}

// parseAnalysis recovers the JSON object from model output, validates it and
// decodes the tag names case-insensitively
func parseAnalysis(content string) (analysis, error) {
	raw, err := parseStructuredJSON(content)
	if err != nil {
		return analysis{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	schema, err := analysisValidator()
	if err != nil {
		return analysis{}, err
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return analysis{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if err := schema.Validate(doc); err != nil {
		return analysis{}, fmt.Errorf("%w: does not match schema: %v", ErrInvalidResponse, err)
	}

	var out analysis
	if err := json.Unmarshal(raw, &out); err != nil {
		return analysis{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	out.Gist = strings.TrimSpace(out.Gist)
	if out.Gist == "" {
		return analysis{}, fmt.Errorf("%w: blank gist", ErrInvalidResponse)
	}
	return out, nil
}

// parseStructuredJSON parses JSON from model output, with lightweight recovery
// for markdown code fences and surrounding text
func parseStructuredJSON(content string) (json.RawMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("empty structured output")
	}

	candidates := []string{content}
	if stripped := stripCodeFences(content); stripped != "" && stripped != content {
		candidates = append(candidates, stripped)
	}
	if extracted := extractJSONObject(content); extracted != "" && extracted != content {
		candidates = append(candidates, extracted)
	}

	for _, candidate := range candidates {
		var parsed map[string]any
		if err := json.Unmarshal([]byte(candidate), &parsed); err == nil {
			return json.RawMessage(candidate), nil
		}
	}

	return nil, fmt.Errorf("no JSON object in output")
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

	// Drop the opening fence (and its language tag) and a trailing fence
	lines = lines[1:]
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func extractJSONObject(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return ""
	}
	return strings.TrimSpace(content[start : end+1])
}

// cleanImageTag strips quotes the model tends to wrap around the description
func cleanImageTag(text string) string {
	return strings.Trim(strings.TrimSpace(text), `"'`)
}

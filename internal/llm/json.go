package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"
)

// CompleteJSON runs req against p and decodes the JSON object in the first
// choice into v. Text format requests are upgraded to json_object.
//
// When req carries a schema, every field present in the output is checked
// against its property definition before decoding. Missing fields are left for
// the caller to default; a null value counts as missing.
func CompleteJSON(ctx context.Context, p Provider, req CompletionRequest, v any) error {
	if req.Format == "" || req.Format == FormatText {
		req.Format = FormatJSONObject
	}
	if req.Format == FormatJSONSchema && req.Schema == nil {
		req.Format = FormatJSONObject
	}

	resp, err := p.Complete(ctx, req)
	if err != nil {
		return &UpstreamError{Op: p.Name() + " completion", Err: err}
	}

	content := extractObject(resp.Content)
	if content == "" {
		return &UpstreamError{Op: p.Name() + " completion", Err: ErrEmptyContent}
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(content), &fields); err != nil {
		return &UpstreamError{Op: "parsing JSON content", Err: err}
	}

	if req.Schema != nil {
		if err := validateFields(req.Schema.Definition, fields); err != nil {
			return &UpstreamError{Op: "validating " + req.Schema.Name, Err: err}
		}
	}

	if err := json.Unmarshal([]byte(content), v); err != nil {
		return &UpstreamError{Op: "decoding JSON content", Err: err}
	}
	return nil
}

// extractObject trims surrounding whitespace and any text or markdown fences
// outside the outermost braces.
func extractObject(content string) string {
	s := strings.TrimSpace(content)
	if s == "" {
		return ""
	}
	if idx := strings.Index(s, "{"); idx >= 0 {
		s = s[idx:]
	}
	if idx := strings.LastIndex(s, "}"); idx >= 0 {
		s = s[:idx+1]
	}
	return s
}

func validateFields(def jsonschema.Definition, fields map[string]any) error {
	var problems []string
	for name, prop := range def.Properties {
		value, ok := fields[name]
		if !ok || value == nil {
			continue
		}
		// Validate also rejects enum mismatches, so check them first for a
		// readable message.
		if s, ok := value.(string); ok && len(prop.Enum) > 0 && !slices.Contains(prop.Enum, s) {
			problems = append(problems, fmt.Sprintf("%s: %q is not one of %s", name, s, strings.Join(prop.Enum, ", ")))
			continue
		}
		if !jsonschema.Validate(prop, value) {
			problems = append(problems, fmt.Sprintf("%s: expected %s", name, prop.Type))
		}
	}
	if len(problems) > 0 {
		slices.Sort(problems)
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

package oracle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// labelSchema compiles a JSON schema accepting {"label": <one of allowed>}.
func labelSchema(allowedLabels []string) (*jsonschema.Schema, error) {
	schemaMap := map[string]any{
		"type":     "object",
		"required": []string{"label"},
		"properties": map[string]any{
			"label": map[string]any{
				"type": "string",
				"enum": allowedLabels,
			},
		},
	}
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("label.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("label.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// ParseLabel extracts the label from a raw model answer and checks it against
// allowedLabels. The answer may be a JSON object {"label": ...}, optionally in
// a code fence, or a bare label. Labels are normalized to lower snake case
// before validation.
func ParseLabel(provider, raw string, allowedLabels []string) (string, error) {
	schema, err := labelSchema(allowedLabels)
	if err != nil {
		return "", err
	}

	text := stripCodeFence(raw)
	label := text
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err == nil {
		s, ok := obj["label"].(string)
		if !ok {
			return "", &InvalidLabelError{Provider: provider, Raw: raw}
		}
		label = s
	}

	label = NormalizeLabel(label)
	if err := schema.Validate(map[string]any{"label": label}); err != nil {
		return "", &InvalidLabelError{Provider: provider, Raw: raw}
	}
	return label, nil
}

// NormalizeLabel lowercases a label and joins its words with underscores.
func NormalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Trim(s, `"'.`)
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	return strings.Join(strings.Fields(s), "_")
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

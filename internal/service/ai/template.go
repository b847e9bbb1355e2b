package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

// ErrMissingBinding is returned when a declared placeholder has no value.
var ErrMissingBinding = errors.New("missing template binding")

// Template 是带命名占位符的提示词模板，占位符写作 {{.name}}。
type Template struct {
	name string
	vars []string
	tpl  prompt.ChatTemplate
}

// NewTemplate compiles text with eino's Go template formatter. vars lists the
// placeholders the text references.
func NewTemplate(name, text string, vars ...string) *Template {
	return &Template{
		name: name,
		vars: vars,
		tpl:  prompt.FromMessages(schema.GoTemplate, schema.UserMessage(text)),
	}
}

// Name returns the template identifier.
func (t *Template) Name() string {
	return t.name
}

// Render substitutes each placeholder with the JSON encoding of its binding.
func (t *Template) Render(ctx context.Context, bindings map[string]any) (string, error) {
	values := make(map[string]any, len(t.vars))
	for _, name := range t.vars {
		value, ok := bindings[name]
		if !ok {
			return "", fmt.Errorf("%w: %s requires %q", ErrMissingBinding, t.name, name)
		}
		encoded, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode binding %q: %w", name, err)
		}
		values[name] = string(encoded)
	}

	messages, err := t.tpl.Format(ctx, values)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", t.name, err)
	}
	if len(messages) == 0 {
		return "", fmt.Errorf("render %s: empty output", t.name)
	}
	return messages[0].Content, nil
}

package tools

import (
	"bytes"
	"fmt"
	"text/template"
)

// RenderPrompt renders a task description template with the run inputs.
// Task definitions look like:
//
//	description: "Answer the following request: {{ .prompt }}"
//
// Unknown keys render as "<no value>" rather than failing, same contract the
// crew-style configs had.
func RenderPrompt(tpl string, inputs map[string]string) (string, error) {
	if inputs == nil {
		return tpl, nil
	}

	t, err := template.New("task").
		Option("missingkey=default").
		Parse(tpl)
	if err != nil {
		return "", fmt.Errorf("parsing task template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, inputs); err != nil {
		return "", fmt.Errorf("rendering task template: %w", err)
	}

	return buf.String(), nil
}

package core

import (
	"bytes"
	"text/template"
)

// ExpandContent renders file content against the SystemContext, so profiles
// can embed host facts ({{ .Hostname }}, {{ .Distro }}). Unknown variables
// are an error rather than silent empty strings.
func ExpandContent(content string, ctx *SystemContext) (string, error) {
	tmpl, err := template.New("rampart").Option("missingkey=error").Parse(content)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return "", err
	}
	return buf.String(), nil
}

package prompts

import (
	"bytes"
	"strings"
	"text/template"
)

// maxOptionLen keeps one runaway snippet from dominating the prompt.
const maxOptionLen = 600

type ReviewPromptData struct {
	Field   string
	Options []string
}

var funcs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}

// GenerateReviewPrompt renders the numbered option list the reviewer model
// answers with a single number.
func GenerateReviewPrompt(baseTemplate, field string, options []string) (string, error) {
	data := ReviewPromptData{
		Field:   field,
		Options: make([]string, 0, len(options)),
	}
	for _, opt := range options {
		opt = strings.Join(strings.Fields(opt), " ")
		if r := []rune(opt); len(r) > maxOptionLen {
			opt = string(r[:maxOptionLen]) + "..."
		}
		data.Options = append(data.Options, opt)
	}

	tmpl, err := template.New("review").Funcs(funcs).Parse(baseTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

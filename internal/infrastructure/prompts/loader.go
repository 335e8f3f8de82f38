package prompts

import (
	_ "embed"
)

//go:embed reviewer_system.txt
var ReviewerSystemPrompt string

//go:embed review.tmpl
var ReviewTemplate string

package ai

import (
	"fmt"
	"strings"
)

// Action is a text transform offered by the editor.
type Action string

const (
	ActionImprove    Action = "improve"
	ActionFixGrammar Action = "fix_grammar"
	ActionShorter    Action = "shorter"
	ActionLonger     Action = "longer"
	ActionTranslate  Action = "translate"
	ActionContinue   Action = "continue"
	ActionGenerate   Action = "generate"
)

const systemPrompt = `You are a writing assistant inside an email template editor for a lending company.
Return only the resulting text, with no preamble, quotes or commentary.
Preserve merge tags written as {{namespace:field}} exactly as they appear.`

var instructions = map[Action]string{
	ActionImprove:    "Improve the clarity and tone of the following text while keeping its meaning.",
	ActionFixGrammar: "Fix spelling and grammar in the following text. Change nothing else.",
	ActionShorter:    "Rewrite the following text to be noticeably shorter.",
	ActionLonger:     "Expand the following text with more detail while keeping its meaning.",
	ActionContinue:   "Continue writing after the following text. Return only the continuation.",
}

// EditRequest is the body of POST /api/ai/edit-text.
type EditRequest struct {
	Text     string `json:"text"`
	Action   Action `json:"action"`
	Language string `json:"language,omitempty"`
	Prompt   string `json:"prompt,omitempty"`
}

const maxInput = 20000

// BuildPrompt validates r and returns the system and user prompts.
func BuildPrompt(r EditRequest) (string, string, error) {
	if len(r.Text) > maxInput || len(r.Prompt) > maxInput {
		return "", "", fmt.Errorf("text must be %d characters or fewer", maxInput)
	}
	switch r.Action {
	case ActionTranslate:
		lang := strings.TrimSpace(r.Language)
		if lang == "" {
			return "", "", fmt.Errorf("language is required for translate")
		}
		if strings.TrimSpace(r.Text) == "" {
			return "", "", fmt.Errorf("text is required")
		}
		return systemPrompt, fmt.Sprintf("Translate the following text into %s.\n\n%s", lang, r.Text), nil
	case ActionGenerate:
		prompt := strings.TrimSpace(r.Prompt)
		if prompt == "" {
			return "", "", fmt.Errorf("prompt is required for generate")
		}
		user := "Write text for the following request: " + prompt
		if strings.TrimSpace(r.Text) != "" {
			user += "\n\nSurrounding text for context:\n" + r.Text
		}
		return systemPrompt, user, nil
	}
	inst, ok := instructions[r.Action]
	if !ok {
		return "", "", fmt.Errorf("unknown action %q", r.Action)
	}
	if strings.TrimSpace(r.Text) == "" {
		return "", "", fmt.Errorf("text is required")
	}
	return systemPrompt, inst + "\n\n" + r.Text, nil
}

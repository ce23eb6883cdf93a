package agent

import (
	"strings"

	"github.com/skillbridge/skillbridge/internal/prompt"
)

// ── Prompt construction ──

// buildSystemPrompt assembles the layered system prompt:
//   - persona shared by every stage (L2, persona.md)
//   - user custom rules (L3, rules.md), placed early for attention
//   - stage instructions (L2, <stage>.md)
//   - hardcoded tool-call protocol (L1, varies by mode)
func buildSystemPrompt(loader *prompt.PromptLoader, instructions string, useFC bool) string {
	var sb strings.Builder

	if loader != nil {
		if persona := loader.LoadPersona(); persona != "" {
			sb.WriteString(persona)
			sb.WriteString("\n\n")
		}
		if rules := loader.LoadUserRules(); rules != "" {
			sb.WriteString("## User rules\n")
			sb.WriteString(rules)
			sb.WriteString("\n\n")
		}
	}

	sb.WriteString("## Your task\n")
	sb.WriteString(instructions)
	sb.WriteString("\n\n")
	sb.WriteString(l1Constraint(useFC))
	return sb.String()
}

const l1ConstraintFC = `## Tool protocol
- Call tools through the function-calling interface only; never describe a call in prose.
- Use only the tools you were given. Arguments must match each tool's schema.
- A tool result with "status": "error" is information, not a reason to stop; adapt and continue.
- When your task is done, reply with plain text and no tool calls.`

const l1ConstraintYAML = `## Tool protocol
- Every reply is exactly one YAML decision in a ` + "```yaml" + ` block.
- action: tool runs one tool; action: answer ends your turn.
- Use only the tools listed in the task message. tool_params must match the tool's schema.
- A tool result with "status": "error" is information, not a reason to stop; adapt and continue.`

func l1Constraint(useFC bool) string {
	if useFC {
		return l1ConstraintFC
	}
	return l1ConstraintYAML
}

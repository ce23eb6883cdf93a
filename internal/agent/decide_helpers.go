package agent

import (
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/skillbridge/skillbridge/internal/util"
	"gopkg.in/yaml.v3"
)

// parseDecision reads a YAML decision from a model reply. A tool decision
// must name its tool.
func parseDecision(raw string) (Decision, error) {
	yamlStr, err := extractYAML(raw)
	if err != nil {
		yamlStr = raw
	}

	var decision Decision
	if err := yaml.Unmarshal([]byte(yamlStr), &decision); err != nil {
		// Windows paths inside double quotes ("C:\resumes\cv.pdf") break
		// YAML escaping; retry with forward slashes.
		fixed := fixBackslashes(yamlStr)
		if err2 := yaml.Unmarshal([]byte(fixed), &decision); err2 != nil {
			return Decision{}, fmt.Errorf("YAML parse error: %w", err)
		}
		log.Printf("[Decide] Recovered from YAML backslash issue")
	}

	switch {
	case decision.Action == "":
		return Decision{}, fmt.Errorf("decision missing 'action' field")
	case decision.Action == "tool" && decision.ToolName == "":
		return Decision{}, fmt.Errorf("tool decision missing 'tool_name' field")
	}
	decision.Answer = strings.TrimSpace(decision.Answer)

	return decision, nil
}

// extractYAML returns the body of the first ```yaml (or bare ```) block, or
// the whole content when there is no fence. An opened but unclosed fence is
// an error.
func extractYAML(content string) (string, error) {
	for _, fence := range []string{"```yaml", "```"} {
		idx := strings.Index(content, fence)
		if idx < 0 {
			continue
		}
		rest := content[idx+len(fence):]
		end := strings.Index(rest, "```")
		if end < 0 {
			return "", fmt.Errorf("unclosed %s code block", fence)
		}
		return strings.TrimSpace(rest[:end]), nil
	}
	return strings.TrimSpace(content), nil
}

// windowsPathInQuotes matches drive paths inside double quotes, e.g. "E:\cv\me.pdf".
var windowsPathInQuotes = regexp.MustCompile(`"([A-Za-z]:\\[^"]*)"`)

// fixBackslashes replaces backslashes with forward slashes inside quoted
// Windows drive paths, leaving other YAML escapes alone.
func fixBackslashes(s string) string {
	return windowsPathInQuotes.ReplaceAllStringFunc(s, func(match string) string {
		inner := match[1 : len(match)-1]
		inner = strings.ReplaceAll(inner, `\`, `/`)
		return `"` + inner + `"`
	})
}

func truncate(s string, maxLen int) string { return util.Clip(s, maxLen) }

// Package ai - util.go provides shared utilities for LLM response processing.
package ai

import "strings"

// CleanMarkdownBlock removes code fence wrappers from responses. LLMs often
// wrap output in ```markdown ... ``` blocks even when instructed not to.
func CleanMarkdownBlock(text string) string {
	text = strings.TrimSpace(text)

	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")
	// Skip a language identifier on the first line
	if idx := strings.Index(text, "\n"); idx >= 0 {
		firstLine := text[:idx]
		if len(firstLine) < 20 && !strings.Contains(firstLine, " ") {
			text = text[idx+1:]
		}
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

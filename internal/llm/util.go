// Package llm - util.go provides shared utilities for LLM response processing.
package llm

import "strings"

const fence = "```"

// SanitizeJSON turns raw model text into candidate JSON text. It trims the text,
// strips a surrounding code fence and then keeps only the span from the first '{'
// to the last '}'. Without such a span the text is returned as is and the caller's
// parse reports the failure. It never fails.
func SanitizeJSON(raw string) string {
	cleaned := CleanJSONBlock(raw)

	first := strings.Index(cleaned, "{")
	last := strings.LastIndex(cleaned, "}")
	if first >= 0 && last > first {
		return cleaned[first : last+1]
	}
	return cleaned
}

// CleanJSONBlock removes markdown code block wrappers from JSON responses.
// LLMs often wrap JSON in ```json ... ``` blocks even when instructed not to.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, fence) {
		return text
	}

	text = strings.TrimPrefix(text, fence)
	// Skip a language identifier on the opening line
	if idx := strings.IndexAny(text, "\r\n"); idx >= 0 {
		tag := text[:idx]
		if !strings.ContainsAny(tag, " \t{[") {
			text = text[idx+1:]
		}
	}

	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, fence)
	return strings.TrimSpace(text)
}

package chat

import "strings"

// IsComplete guesses whether a reply was cut off mid-sentence. An empty reply
// counts as complete; otherwise the trimmed text must end in '.', '!' or '?'.
func IsComplete(text string) bool {
	if text == "" {
		return true
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	switch trimmed[len(trimmed)-1] {
	case '.', '!', '?':
		return true
	}
	return false
}

// ContinuePrompt wraps a truncated reply so the model picks it up again.
func ContinuePrompt(prior string) string {
	return "Continue the following response:\n\n" + strings.TrimSpace(prior)
}

package rewriter

import "strings"

// Lead-ins some models put in front of the answer.
var chattyPrefixes = []string{
	"Here's the text transformed",
	"Here is the text transformed",
	"The transformed text is",
	"Here's the transformed text",
	"Here is the transformed text",
}

// stripQuotes removes one pair of quotes enclosing the whole text.
func stripQuotes(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1]
	}
	return s
}

func cleanOutput(s string) string {
	return stripQuotes(strings.TrimSpace(s))
}

// cleanGenerated handles completion-style models that echo the prompt and
// add a lead-in before the rewritten text.
func cleanGenerated(s, prompt string) string {
	if i := strings.Index(s, prompt); i >= 0 {
		s = s[i+len(prompt):]
	}
	s = strings.TrimSpace(s)

	for _, prefix := range chattyPrefixes {
		start := strings.Index(s, prefix)
		if start < 0 {
			continue
		}
		if colon := strings.Index(s[start:], ":"); colon >= 0 {
			s = strings.TrimSpace(s[start+colon+1:])
		}
	}
	return stripQuotes(s)
}

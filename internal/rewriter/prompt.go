package rewriter

import (
	"fmt"
	"strings"
)

const strictSuffix = " Only respond with the transformed text, nothing else."

// preservationGuidance describes how much of the source style to keep.
func preservationGuidance(p int, toStyle string) string {
	switch {
	case p == 50:
		return "with a balanced mix of original and target styles"
	case p < 50:
		return fmt.Sprintf("with a stronger emphasis on the %s style (%d%% %s, %d%% original)", toStyle, 100-p, toStyle, p)
	default:
		return fmt.Sprintf("while preserving more of the original style (%d%% original, %d%% %s)", p, 100-p, toStyle)
	}
}

// buildPrompt renders the instruction sent to the model. strict asks the
// model to answer with the rewritten text only.
func buildPrompt(req Request, strict bool) string {
	var b strings.Builder
	b.WriteString("Transform the following text ")
	if req.FromStyle != "" {
		fmt.Fprintf(&b, "from %s style ", req.FromStyle)
	}
	fmt.Fprintf(&b, "to %s style %s.", req.ToStyle, preservationGuidance(req.PreservationPercentage, req.ToStyle))
	b.WriteString(" Keep the original meaning intact.")
	if strict {
		b.WriteString(strictSuffix)
	}
	b.WriteString(` The text is: "`)
	b.WriteString(req.OriginalText)
	b.WriteString(`"`)
	return b.String()
}

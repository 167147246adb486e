package intake

import (
	"fmt"
	"strings"

	"github.com/danishmustafa86/aidlink/internal/schemas"
)

const (
	tryAgainPrompt = "I'm having trouble processing that right now. Please try again in a moment."
	clarifyPrompt  = "I'm sorry, I didn't understand. Could you describe the emergency in a few words?"
	abandonedReply = "I wasn't able to gather the details needed for a report. " +
		"If this is an active emergency, please contact emergency services directly."
)

var exitTokens = map[string]bool{
	"exit": true, "quit": true, "cancel": true, "stop": true, "nevermind": true,
}

// exitRequested reports whether the utterance is an explicit abandonment.
// Only a bare exit word counts; "stop the bleeding" is report content.
func exitRequested(text string) bool {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(text)))
	return len(fields) == 1 && exitTokens[strings.Trim(fields[0], ".!")]
}

func categoryMenu() string {
	names := make([]string, 0, len(schemas.Categories()))
	for _, c := range schemas.Categories() {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}

func menuPrompt() string {
	return fmt.Sprintf(
		"I want to make sure I route this correctly. Which of these best describes your emergency: %s?",
		categoryMenu(),
	)
}

func classifyInstructions() string {
	return fmt.Sprintf(`You are the triage classifier for an emergency intake service.
Classify the citizen's situation into exactly one category: %s.
Respond with JSON only: {"category": "<category>", "confidence": <0.0-1.0>}.
Always pick your best-guess category from the list, even at low confidence.`,
		categoryMenu(),
	)
}

func collectInstructions(schema *schemas.Schema, collected map[string]string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `You are gathering details for a %s emergency report.
Schema fields:
`, schema.Category)

	for _, f := range schema.Fields {
		requirement := "optional"
		if f.Required {
			requirement = "required"
		}
		fmt.Fprintf(&sb, "- %s (%s): %s\n", f.Name, requirement, f.Description)
	}

	sb.WriteString("\nAlready collected:\n")
	if len(collected) == 0 {
		sb.WriteString("(none)\n")
	}
	for _, f := range schema.Fields {
		if v, ok := collected[f.Name]; ok {
			fmt.Fprintf(&sb, "- %s: %s\n", f.Name, v)
		}
	}

	next := "none"
	if missing := schema.MissingRequired(collected); len(missing) > 0 {
		next = missing[0]
	} else if missing := schema.MissingOptional(collected); len(missing) > 0 {
		next = missing[0]
	}

	fmt.Fprintf(&sb, `
Extract any schema field values present in the citizen's latest message.
Then ask one short question for the highest-priority missing field (next: %s).
Respond with JSON only: {"fields": {"<name>": "<value>", ...}, "reply": "<question>"}.
Include only fields the citizen actually provided; never invent values.`, next)

	return sb.String()
}

// askFor composes a fallback question when the gateway supplies none.
func askFor(schema *schemas.Schema, collected map[string]string) string {
	missing := schema.MissingRequired(collected)
	if len(missing) == 0 {
		missing = schema.MissingOptional(collected)
	}
	if len(missing) == 0 {
		return ""
	}

	if f, err := schema.Field(missing[0]); err == nil {
		return fmt.Sprintf("Could you tell me the %s (%s)?",
			strings.ReplaceAll(f.Name, "_", " "), f.Description)
	}
	return fmt.Sprintf("Could you tell me the %s?", strings.ReplaceAll(missing[0], "_", " "))
}

package gateway

import (
	"strings"
	"testing"
)

func TestComposePrompt(t *testing.T) {
	prompt := composePrompt("Classify the emergency.", []Turn{
		{Role: RoleCitizen, Text: "there is a fire"},
		{Role: RoleAssistant, Text: "where?"},
	})

	if !strings.HasPrefix(prompt, "Classify the emergency.") {
		t.Error("prompt does not lead with instructions")
	}
	if !strings.Contains(prompt, "citizen: there is a fire\n") {
		t.Errorf("prompt missing citizen turn:\n%s", prompt)
	}
	if !strings.Contains(prompt, "assistant: where?\n") {
		t.Errorf("prompt missing assistant turn:\n%s", prompt)
	}
	if strings.Index(prompt, "citizen:") > strings.Index(prompt, "assistant:") {
		t.Error("turns out of order")
	}
}

func TestComposePromptNoHistory(t *testing.T) {
	prompt := composePrompt("Classify the emergency.", nil)
	if prompt != "Classify the emergency." {
		t.Errorf("prompt = %q, want bare instructions", prompt)
	}
}

package rag

import (
	"strings"
	"testing"

	"docchat/internal/llm"
)

func TestBuildMessages(t *testing.T) {
	history := []HistoryMessage{
		{Role: "user", Content: "first question"},
		{Role: "ai", Content: "first answer"},
		{Role: "assistant", Content: "dropped"},
		{Role: "", Content: "dropped"},
	}

	got := buildMessages("Context: {context} | again {context}", "A\n\nB", history, "second question")

	want := []llm.Message{
		{Role: llm.RoleSystem, Content: "Context: A\n\nB | again A\n\nB"},
		{Role: llm.RoleUser, Content: "first question"},
		{Role: llm.RoleAssistant, Content: "first answer"},
		{Role: llm.RoleUser, Content: "second question"},
	}
	if len(got) != len(want) {
		t.Fatalf("buildMessages() returned %d messages, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("message %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestBuildMessages_DefaultPrompt(t *testing.T) {
	got := buildMessages(DefaultSystemPrompt, "", nil, "q")
	if len(got) != 2 {
		t.Fatalf("got %d messages, want 2", len(got))
	}
	if strings.Contains(got[0].Content, contextPlaceholder) {
		t.Error("placeholder left in default prompt")
	}
}

func TestJoinContext(t *testing.T) {
	if got := joinContext(nil); got != "" {
		t.Errorf("joinContext(nil) = %q", got)
	}
	got := joinContext([]candidate{{text: "one"}, {text: "two"}})
	if got != "one\n\ntwo" {
		t.Errorf("joinContext() = %q", got)
	}
}

func TestPreview(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "short", text: "abc", want: "abc..."},
		{name: "exact", text: strings.Repeat("x", 200), want: strings.Repeat("x", 200) + "..."},
		{name: "long", text: strings.Repeat("y", 250), want: strings.Repeat("y", 200) + "..."},
		{name: "multibyte", text: strings.Repeat("é", 201), want: strings.Repeat("é", 200) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := preview(tt.text); got != tt.want {
				t.Errorf("preview() = %q, want %q", got, tt.want)
			}
		})
	}
}

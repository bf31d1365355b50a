package rag

import (
	"strings"

	"docchat/internal/llm"
)

// DefaultSystemPrompt is used when a request carries no system prompt.
// The {context} placeholder is replaced by the retrieved chunks.
const DefaultSystemPrompt = `You are a helpful assistant that answers questions based on the provided context.

Use the context below to answer questions accurately and objectively.

Context: {context}

Rules:
- If the answer is in the context, give a clear and direct answer
- If the context does not contain enough information, say clearly that the information is not available
- Do not make up information that is not in the context
- Quote relevant passages of the context when appropriate
- Keep a professional and friendly tone`

const (
	contextPlaceholder = "{context}"
	previewLength      = 200
)

// buildMessages assembles the system prompt, the conversation history and the question.
func buildMessages(systemPrompt, contextText string, history []HistoryMessage, question string) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{
		Role:    llm.RoleSystem,
		Content: strings.ReplaceAll(systemPrompt, contextPlaceholder, contextText),
	})

	for _, m := range history {
		switch m.Role {
		case RoleUser:
			messages = append(messages, llm.Message{Role: llm.RoleUser, Content: m.Content})
		case RoleAI:
			messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: m.Content})
		}
	}

	return append(messages, llm.Message{Role: llm.RoleUser, Content: question})
}

// joinContext separates chunk texts with a blank line.
func joinContext(cands []candidate) string {
	texts := make([]string, len(cands))
	for i, c := range cands {
		texts[i] = c.text
	}
	return strings.Join(texts, "\n\n")
}

// preview returns the first 200 characters of text followed by "...".
func preview(text string) string {
	runes := []rune(text)
	if len(runes) > previewLength {
		runes = runes[:previewLength]
	}
	return string(runes) + "..."
}

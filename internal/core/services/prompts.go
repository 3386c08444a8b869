package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/lexchat/internal/core/domain"
	"github.com/custodia-labs/lexchat/internal/core/ports/driven"
)

// DefaultPersona is the assistant persona and corpus description used in
// the generation prompt when none is configured.
const DefaultPersona = "Chartered Accountant Law"

// rewriteInstruction is the fixed system instruction for the query
// rewrite stage. The model must reformulate, never answer.
const rewriteInstruction = "Rewrite the user's message into a standalone question using the chat history. " +
	"Do NOT answer. Only rewrite."

// RefusalMessage returns the verbatim refusal the generator must emit
// when the retrieved context does not contain the answer. A refusal is a
// normal return value, not an error.
func RefusalMessage(persona string) string {
	return fmt.Sprintf("I cannot answer this based on the provided %s documents.", persona)
}

// answerInstruction builds the system instruction for the generation
// stage: persona, the grounding rule with the refusal sentence, and the
// retrieved context serialized in rank order between explicit markers.
func answerInstruction(persona string, context domain.RetrievalResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("You are a %s Assistant. Use the provided context to answer. ", persona))
	sb.WriteString(fmt.Sprintf("If answer is not in the context, say: '%s'\n\n", RefusalMessage(persona)))
	sb.WriteString("--- CONTEXT START ---\n")
	sb.WriteString(strings.Join(context.Texts(), "\n\n"))
	sb.WriteString("\n--- CONTEXT END ---")
	return sb.String()
}

// historyMessages converts prior turns into provider chat messages.
func historyMessages(history []domain.Turn) []driven.ChatMessage {
	msgs := make([]driven.ChatMessage, 0, len(history))
	for _, turn := range history {
		role := driven.ChatRoleUser
		if turn.Role == domain.RoleAssistant {
			role = driven.ChatRoleAssistant
		}
		msgs = append(msgs, driven.ChatMessage{Role: role, Content: turn.Content})
	}
	return msgs
}

package conversation

import (
	"strings"

	"github.com/upb/storefront-assistant/models"
)

// HistoryPolicy decides how much of a transcript is given to the model as
// grounding context. It never changes what is persisted.
type HistoryPolicy interface {
	Context(conv *models.Conversation) string
}

// KeepAll supplies the whole transcript
type KeepAll struct{}

// Context implements HistoryPolicy
func (KeepAll) Context(conv *models.Conversation) string {
	if conv == nil {
		return ""
	}
	return conv.History
}

// LastTurns supplies only the most recent N turns
type LastTurns int

// Context implements HistoryPolicy
func (n LastTurns) Context(conv *models.Conversation) string {
	if conv == nil {
		return ""
	}
	// Rows written before turns were tracked only carry the text block
	if len(conv.Turns) == 0 {
		return conv.History
	}

	turns := conv.Turns
	if int(n) > 0 && len(turns) > int(n) {
		turns = turns[len(turns)-int(n):]
	}

	var b strings.Builder
	for _, turn := range turns {
		switch turn.Role {
		case models.RoleUser:
			b.WriteString("\nUser: ")
		default:
			b.WriteString("\nAI: ")
		}
		b.WriteString(turn.Text)
	}
	return b.String()
}

// NewHistoryPolicy returns KeepAll for n <= 0 and LastTurns(n) otherwise
func NewHistoryPolicy(n int) HistoryPolicy {
	if n <= 0 {
		return KeepAll{}
	}
	return LastTurns(n)
}

package models

import (
	"strings"
	"time"
)

// TurnRole identifies who produced a conversation turn
type TurnRole string

const (
	RoleUser      TurnRole = "user"
	RoleAssistant TurnRole = "assistant"
)

// ConversationTurn is one message in a user's conversation
type ConversationTurn struct {
	Role      TurnRole  `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTurn creates a turn stamped with the current UTC time
func NewTurn(role TurnRole, text string) ConversationTurn {
	return ConversationTurn{Role: role, Text: text, Timestamp: time.Now().UTC()}
}

// Conversation is the append-only transcript owned by one user.
// History is the flat transcript text; Turns is the structured form of the same exchange.
type Conversation struct {
	ID        int64              `json:"id" db:"id"`
	UserID    int64              `json:"user_id" db:"user_id"`
	History   string             `json:"history" db:"history"`
	Turns     []ConversationTurn `json:"turns" db:"turns"`
	Version   int64              `json:"version" db:"version"`
	CreatedAt time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Conversation model
func (Conversation) TableName() string {
	return "conversation_histories"
}

// Append adds one user turn and one assistant turn to the transcript.
// Timestamps never run backwards; a turn stamped before the last stored turn
// takes that turn's time.
func (c *Conversation) Append(userTurn, assistantTurn ConversationTurn) {
	if n := len(c.Turns); n > 0 {
		userTurn.Timestamp = notBefore(userTurn.Timestamp, c.Turns[n-1].Timestamp)
	}
	assistantTurn.Timestamp = notBefore(assistantTurn.Timestamp, userTurn.Timestamp)

	c.History += FormatExchange(userTurn.Text, assistantTurn.Text)
	c.Turns = append(c.Turns, userTurn, assistantTurn)
}

func notBefore(t, floor time.Time) time.Time {
	if t.Before(floor) {
		return floor
	}
	return t
}

// FormatExchange renders one exchange in the transcript text format
func FormatExchange(question, answer string) string {
	var b strings.Builder
	b.WriteString("\nUser: ")
	b.WriteString(question)
	b.WriteString("\nAI: ")
	b.WriteString(answer)
	return b.String()
}

package assistant

import (
	"errors"
	"fmt"
	"time"
)

// Recognized history roles. "assistant" and "bot" are aliases for the
// model side; both map to Gemini's "model" role at the adapter.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleBot       = "bot"
)

// ChatMessage is one turn of conversation as clients store it: insertion
// ordered, role alternation not enforced.
type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Confidence grades how well an answer is grounded in cited sources.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Reply is the envelope every assistant operation resolves to. Upstream
// failures surface as Success=false with a user-safe Polish message, never
// as an error from the service.
type Reply struct {
	Success    bool     `json:"success"`
	Message    string   `json:"message"`
	Model      string   `json:"model"`
	Sources    []string `json:"sources,omitempty"`
	Confidence string   `json:"confidence,omitempty"`
}

var (
	// ErrEmptyMessage rejects blank chat messages.
	ErrEmptyMessage = errors.New("message must be a non-empty string")
	// ErrEmptyDocument rejects blank analysis content.
	ErrEmptyDocument = errors.New("document content must be a non-empty string")
	// ErrDocumentTooLarge rejects documents over the configured byte budget.
	ErrDocumentTooLarge = errors.New("document exceeds the analysis size budget")
)

// ValidateHistory checks every entry carries a recognized role.
func ValidateHistory(history []ChatMessage) error {
	for i, msg := range history {
		switch msg.Role {
		case RoleUser, RoleAssistant, RoleBot:
		default:
			return fmt.Errorf("history entry %d: unrecognized role %q", i, msg.Role)
		}
	}
	return nil
}

// ABOUTME: Message and State types for the conversation log
// ABOUTME: State is an immutable snapshot handed to presentation layers

package conversation

import (
	"errors"
	"time"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// ErrInvalidMessage is returned when appending a message without a known role or content.
var ErrInvalidMessage = errors.New("message needs a role and content")

// Message is one entry of the conversation log.
// ID and Timestamp are display metadata; they play no part in ordering.
type Message struct {
	ID        string    `json:"id,omitempty"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}

func (m Message) validate() error {
	if !m.Role.Valid() || m.Content == "" {
		return ErrInvalidMessage
	}
	return nil
}

// State is a point-in-time copy of the conversation.
type State struct {
	Messages      []Message
	Draft         string
	AwaitingReply bool
	Uploading     bool

	// SelectedFile is the file chosen in the upload control, empty once the
	// control has been reset.
	SelectedFile string

	// Version increases by one for every committed change.
	Version uint64
}

// Busy reports whether any flow is outstanding.
func (s State) Busy() bool {
	return s.AwaitingReply || s.Uploading
}

// Last returns the most recent message, or false for an empty log.
func (s State) Last() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

package types

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage is one bubble in the in-memory chat history. Messages are
// never persisted.
type ChatMessage struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Image     []byte    `json:"-"`
	FromUser  bool      `json:"from_user"`
	Timestamp time.Time `json:"timestamp"`
	Voice     bool      `json:"voice"`
	AudioPath string    `json:"audio_path,omitempty"` // local file for voice replies
}

// NewUserMessage builds a message sent by the farmer.
func NewUserMessage(text string) ChatMessage {
	return newMessage(text, true)
}

// NewBotMessage builds a message shown on behalf of the assistant.
func NewBotMessage(text string) ChatMessage {
	return newMessage(text, false)
}

func newMessage(text string, fromUser bool) ChatMessage {
	return ChatMessage{
		ID:        uuid.NewString(),
		Text:      text,
		FromUser:  fromUser,
		Timestamp: time.Now(),
	}
}

// HasImage reports whether the message carries an image attachment.
func (m ChatMessage) HasImage() bool {
	return len(m.Image) > 0
}

package types

import (
	"encoding/json"
	"io"
)

// DefaultSessionID is sent when a chat or voice request names no session.
const DefaultSessionID = "default"

// HealthResponse is the body of GET v1/health.
type HealthResponse struct {
	Status string `json:"status"`
}

// ChatRequest is the body of POST v1/chat.
type ChatRequest struct {
	SessionID    string   `json:"session_id"`
	Message      string   `json:"message"`
	Stream       bool     `json:"stream"`
	ImagesBase64 []string `json:"images_base64,omitempty"`
	UserContext  string   `json:"user_context,omitempty"`
}

// ChatResponse is the reply to POST v1/chat. Tool calls and sources are
// passed through undecoded.
type ChatResponse struct {
	Text      string            `json:"text"`
	ToolCalls []json.RawMessage `json:"tool_calls,omitempty"`
	Sources   []json.RawMessage `json:"sources,omitempty"`
}

// Prediction is one ranked label from the image classifier.
type Prediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// ImageClassification is the reply to POST v1/image/classify.
type ImageClassification struct {
	Label string       `json:"label"`
	Score float64      `json:"score"`
	TopK  []Prediction `json:"top_k"`
}

// VoiceRequest describes one upload to POST v1/voice. Audio is read to EOF
// while the request is sent.
type VoiceRequest struct {
	SessionID string
	TTS       bool
	Language  string // optional Whisper language code
	Filename  string
	Audio     io.Reader
}

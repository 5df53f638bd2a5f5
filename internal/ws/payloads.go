package ws

import (
	"encoding/json"

	"boostd/internal/domain"
	"boostd/internal/game"
)

// Message is the envelope for both directions.
type Message struct {
	Type    string          `json:"type"`
	Value   json.RawMessage `json:"value,omitempty"`
	Payload any             `json:"payload,omitempty"`
}

// client → server
type AnswerPayload struct {
	SnippetID string `json:"snippetId"`
	Answer    string `json:"answer"`
}

// server → client
type ReadyPayload struct {
	SessionID string                `json:"sessionId"`
	Params    domain.GameParameters `json:"params"`
	Snapshot  game.Snapshot         `json:"snapshot"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package bus

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EnvelopeType constrains the shape of Envelope.Payload.
type EnvelopeType string

const (
	TypeMessage    EnvelopeType = "message"
	TypeToolResult EnvelopeType = "tool_result"
	TypeSystem     EnvelopeType = "system"
	TypeControl    EnvelopeType = "control"
)

// Envelope is the wire message format exchanged over the bus.
type Envelope struct {
	ID        string          `json:"id"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Type      EnvelopeType    `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
	TraceID   string          `json:"traceId,omitempty"`
	ReplyTo   string          `json:"replyTo,omitempty"`
}

// MessagePayload is the payload shape for Type == TypeMessage.
type MessagePayload struct {
	Content string `json:"content"`
}

// ToolResultPayload is the payload shape for Type == TypeToolResult.
type ToolResultPayload struct {
	ToolName string `json:"toolName"`
	Result   string `json:"result"`
	IsError  bool   `json:"isError,omitempty"`
}

// NewMessage constructs a message-typed envelope with a fresh UUID and the
// current timestamp.
func NewMessage(from, to, content string) (Envelope, error) {
	payload, err := json.Marshal(MessagePayload{Content: content})
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		ID:        uuid.NewString(),
		From:      from,
		To:        to,
		Type:      TypeMessage,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}, nil
}

// NewToolResult constructs a tool_result-typed envelope.
func NewToolResult(from, to, toolName, result string, isError bool) (Envelope, error) {
	payload, err := json.Marshal(ToolResultPayload{ToolName: toolName, Result: result, IsError: isError})
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		ID:        uuid.NewString(),
		From:      from,
		To:        to,
		Type:      TypeToolResult,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}, nil
}

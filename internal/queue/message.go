package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageVersion is the current payload layout. Version 0 payloads predate the
// field and decode the same way.
const MessageVersion = 1

// Message tells a worker that an export job is ready to be claimed.
type Message struct {
	ExportID   string `json:"exportId"`
	RequestID  string `json:"requestId,omitempty"`
	EnqueuedAt string `json:"enqueuedAt"`
	Version    int    `json:"version"`
}

// NewExportMessage stamps a notification for a freshly created job.
func NewExportMessage(exportID, requestID string, now time.Time) Message {
	return Message{
		ExportID:   exportID,
		RequestID:  requestID,
		EnqueuedAt: now.UTC().Format(time.RFC3339),
		Version:    MessageVersion,
	}
}

func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a payload and refuses layouts newer than this build understands.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	if msg.Version > MessageVersion {
		return msg, fmt.Errorf("unsupported message version %d", msg.Version)
	}
	return msg, nil
}

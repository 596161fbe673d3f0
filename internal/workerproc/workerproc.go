// Package workerproc turns queue payloads into export job runs.
package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"resume-builder/internal/queue"
)

// JobProcessor claims and processes one export job by id.
type JobProcessor interface {
	ProcessByID(ctx context.Context, id string) (bool, error)
}

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a JSON decode failure.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

func (e ErrDecode) Unwrap() error { return e.Err }

// ErrMissingExportID indicates a message without a job id.
type ErrMissingExportID struct {
	Meta      MessageMeta
	RequestID string
}

func (e ErrMissingExportID) Error() string { return "missing export id" }

// ErrProcess indicates processing failed after successful parsing.
type ErrProcess struct {
	ExportID  string
	RequestID string
	Err       error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "process export"
	}
	return "process export: " + e.Err.Error()
}

func (e ErrProcess) Unwrap() error { return e.Err }

// Unrecoverable reports whether redelivering the payload can never succeed.
func Unrecoverable(err error) bool {
	var (
		empty   ErrEmptyBody
		decode  ErrDecode
		missing ErrMissingExportID
	)
	return errors.As(err, &empty) || errors.As(err, &decode) || errors.As(err, &missing)
}

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Message{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	if strings.TrimSpace(msg.ExportID) == "" {
		return msg, meta, ErrMissingExportID{Meta: meta, RequestID: msg.RequestID}
	}
	return msg, meta, nil
}

// HandleMessage parses a payload and processes the job it names. A job that is
// no longer pending counts as handled.
func HandleMessage(ctx context.Context, proc JobProcessor, body string) (queue.Message, error) {
	if proc == nil {
		return queue.Message{}, errors.New("export processor not configured")
	}
	msg, _, err := ParseMessage(body)
	if err != nil {
		return msg, err
	}
	if _, err := proc.ProcessByID(ctx, msg.ExportID); err != nil {
		return msg, ErrProcess{ExportID: msg.ExportID, RequestID: msg.RequestID, Err: err}
	}
	return msg, nil
}

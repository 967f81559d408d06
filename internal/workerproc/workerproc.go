package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"recruit-backend/internal/queue"
	"recruit-backend/internal/shared/telemetry"
)

// Processor runs one processing item.
type Processor interface {
	Process(ctx context.Context, itemID string) error
}

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{BodyLen: 0, BodySHA: ""}
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

// ErrMissingItemID indicates a message without a processing item id.
type ErrMissingItemID struct {
	Meta      MessageMeta
	RequestID string
}

func (e ErrMissingItemID) Error() string { return "missing item id" }

// ErrProcess indicates processing failed after successful parsing.
type ErrProcess struct {
	ItemID    string
	RequestID string
	Err       error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "process item"
	}
	return "process item: " + e.Err.Error()
}

func (e ErrProcess) Unwrap() error { return e.Err }

// Unrecoverable reports whether a message can never be processed and should
// be dropped instead of redelivered.
func Unrecoverable(err error) bool {
	var (
		empty   ErrEmptyBody
		decode  ErrDecode
		missing ErrMissingItemID
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
	if errors.Is(err, queue.ErrUnsupportedVersion) {
		// A newer worker may be able to read it; leave it for redelivery.
		return msg, meta, err
	}
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	if strings.TrimSpace(msg.ItemID) == "" {
		return msg, meta, ErrMissingItemID{Meta: meta, RequestID: msg.RequestID}
	}
	return msg, meta, nil
}

// HandleMessage parses, validates and processes a message payload.
func HandleMessage(ctx context.Context, proc Processor, body string) error {
	if proc == nil {
		return errors.New("processor not configured")
	}
	msg, _, err := ParseMessage(body)
	if err != nil {
		return err
	}
	return Handle(ctx, proc, msg)
}

// Handle processes an already decoded message.
func Handle(ctx context.Context, proc Processor, msg queue.Message) error {
	if proc == nil {
		return errors.New("processor not configured")
	}
	if strings.TrimSpace(msg.ItemID) == "" {
		return ErrMissingItemID{RequestID: msg.RequestID}
	}
	ctx = telemetry.WithRequestID(ctx, msg.RequestID)
	if err := proc.Process(ctx, msg.ItemID); err != nil {
		return ErrProcess{ItemID: msg.ItemID, RequestID: msg.RequestID, Err: err}
	}
	return nil
}

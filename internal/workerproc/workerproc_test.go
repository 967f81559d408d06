package workerproc

import (
	"context"
	"errors"
	"testing"

	"recruit-backend/internal/queue"
	"recruit-backend/internal/shared/telemetry"
)

type recordingProcessor struct {
	items      []string
	requestIDs []string
	err        error
}

func (p *recordingProcessor) Process(ctx context.Context, itemID string) error {
	p.items = append(p.items, itemID)
	p.requestIDs = append(p.requestIDs, telemetry.RequestID(ctx))
	return p.err
}

func TestParseMessageErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"empty", "  "},
		{"invalid json", "{bad"},
		{"missing id", `{"requestId":"r1"}`},
	}
	for _, tc := range cases {
		_, _, err := ParseMessage(tc.body)
		if err == nil || !Unrecoverable(err) {
			t.Fatalf("%s: expected unrecoverable error, got %v", tc.name, err)
		}
	}
}

func TestHandleMessagePropagatesRequestID(t *testing.T) {
	body, _ := queue.EncodeMessage(queue.Message{ItemID: "item-1", RequestID: "req-1", Version: queue.MessageVersion})
	proc := &recordingProcessor{}
	if err := HandleMessage(context.Background(), proc, string(body)); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if len(proc.items) != 1 || proc.items[0] != "item-1" || proc.requestIDs[0] != "req-1" {
		t.Fatalf("unexpected calls %+v", proc)
	}
}

func TestHandleMessageWrapsProcessError(t *testing.T) {
	boom := errors.New("boom")
	body, _ := queue.EncodeMessage(queue.Message{ItemID: "item-2"})
	err := HandleMessage(context.Background(), &recordingProcessor{err: boom}, string(body))

	var procErr ErrProcess
	if !errors.As(err, &procErr) || procErr.ItemID != "item-2" || !errors.Is(err, boom) {
		t.Fatalf("expected ErrProcess wrapping boom, got %v", err)
	}
	if Unrecoverable(err) {
		t.Fatalf("process errors must be retried")
	}
}

func TestParseMessageNewerVersionIsRecoverable(t *testing.T) {
	_, _, err := ParseMessage(`{"itemId":"item-9","version":99}`)
	if !errors.Is(err, queue.ErrUnsupportedVersion) {
		t.Fatalf("expected ErrUnsupportedVersion, got %v", err)
	}
	if Unrecoverable(err) {
		t.Fatal("newer versions must stay on the queue")
	}
}

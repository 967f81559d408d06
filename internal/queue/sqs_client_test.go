package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type fakeSender struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (f *fakeSender) SendMessage(ctx context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.inputs = append(f.inputs, in)
	return &sqs.SendMessageOutput{}, f.err
}

func TestSQSSendStandardQueue(t *testing.T) {
	sender := &fakeSender{}
	client := newSQSClient(sender, "https://sqs.us-east-1.amazonaws.com/1/cv-processing")

	err := client.Send(context.Background(), Message{ItemID: "item-1", ApplicationID: "app-1", Priority: 5, Version: MessageVersion})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	in := sender.inputs[0]
	if in.MessageGroupId != nil || in.MessageDeduplicationId != nil {
		t.Fatalf("standard queues must not set FIFO fields")
	}
	if got := aws.ToString(in.MessageAttributes["priority"].StringValue); got != "5" {
		t.Fatalf("expected priority attribute 5, got %q", got)
	}
	decoded, err := DecodeMessage([]byte(aws.ToString(in.MessageBody)))
	if err != nil || decoded.ItemID != "item-1" {
		t.Fatalf("unexpected body %+v, %v", decoded, err)
	}
}

func TestSQSSendFIFOGroupsByApplication(t *testing.T) {
	sender := &fakeSender{}
	client := newSQSClient(sender, "https://sqs.us-east-1.amazonaws.com/1/cv-processing.fifo")

	if err := client.Send(context.Background(), Message{ItemID: "item-2", ApplicationID: "app-2"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	in := sender.inputs[0]
	if aws.ToString(in.MessageGroupId) != "app-2" || aws.ToString(in.MessageDeduplicationId) != "item-2" {
		t.Fatalf("unexpected fifo fields group=%q dedup=%q", aws.ToString(in.MessageGroupId), aws.ToString(in.MessageDeduplicationId))
	}
}

func TestSQSSendWrapsError(t *testing.T) {
	boom := errors.New("throttled")
	client := newSQSClient(&fakeSender{err: boom}, "q")
	if err := client.Send(context.Background(), Message{ItemID: "item-3"}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"recruit-backend/internal/bootstrap"
	"recruit-backend/internal/shared/config"
	"recruit-backend/internal/shared/metrics"
	"recruit-backend/internal/shared/storage/db"
	"recruit-backend/internal/shared/telemetry"
	"recruit-backend/internal/workerproc"
)

const (
	sqsRegion      = "us-east-1"
	drainBatchSize = 20
)

// sqsSettings tunes the SQS consumer loop.
type sqsSettings struct {
	Concurrency       int
	VisibilitySeconds int
	ShutdownTimeout   time.Duration
}

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(cfg, db.RoleWorker)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}
	defer app.Close()

	if cfg.VisibilitySeconds > 0 {
		app.ProcessingService.LeaseTimeout = time.Duration(cfg.VisibilitySeconds) * time.Second
	}

	queueURL := strings.TrimSpace(cfg.SQSQueueURL)
	if queueURL == "" {
		interval := time.Duration(cfg.WorkerPollInterval) * time.Second
		log.Printf("worker started in database poll mode interval=%s", interval)
		pollDatabase(ctx, app.ProcessingService, interval)
		return
	}

	region := cfg.AWSRegion
	if strings.TrimSpace(region) == "" {
		region = sqsRegion
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		log.Fatalf("load aws config: %v", err)
	}
	runSQS(ctx, sqs.NewFromConfig(awsCfg), queueURL, app.ProcessingService, sqsSettings{
		Concurrency:       cfg.WorkerConcurrency,
		VisibilitySeconds: cfg.VisibilitySeconds,
		ShutdownTimeout:   time.Duration(cfg.ShutdownSeconds) * time.Second,
	})
}

type drainer interface {
	DrainPending(ctx context.Context, limit int) (int, error)
}

// pollDatabase drains runnable items on every tick until ctx is cancelled.
func pollDatabase(ctx context.Context, d drainer, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		done, err := d.DrainPending(ctx, drainBatchSize)
		if err != nil && ctx.Err() == nil {
			telemetry.Error("worker.drain_failed", map[string]any{"error": err.Error()})
		} else if done > 0 {
			telemetry.Info("worker.drained", map[string]any{"completed": done})
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func runSQS(ctx context.Context, client sqsAPI, queueURL string, proc workerproc.Processor, set sqsSettings) {
	concurrency := max(1, set.Concurrency)
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	log.Printf("worker started queue=%s concurrency=%d visibility=%ds", queueURL, concurrency, set.VisibilitySeconds)

pollLoop:
	for {
		select {
		case <-ctx.Done():
			break pollLoop
		default:
		}

		resp, err := client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(queueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     20,
			VisibilityTimeout:   int32(set.VisibilitySeconds),
			AttributeNames:      []sqstypes.QueueAttributeName{sqstypes.QueueAttributeName("ApproximateReceiveCount")},
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				break pollLoop
			}
			log.Printf("receive message: %v", err)
			continue
		}

		for _, msg := range resp.Messages {
			select {
			case <-ctx.Done():
				break pollLoop
			case sem <- struct{}{}:
			}
			metrics.IncProcessingJobsReceived()
			wg.Add(1)
			go func(m sqstypes.Message) {
				defer wg.Done()
				defer func() { <-sem }()
				handleMessage(ctx, client, queueURL, proc, m)
			}(msg)
		}
	}

	log.Printf("shutdown requested, waiting up to %s for in-flight items", set.ShutdownTimeout)
	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-time.After(set.ShutdownTimeout):
		log.Printf("shutdown timeout reached; exiting with in-flight items")
	}
}

type sqsAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// handleMessage processes one SQS message. Successful and unrecoverable
// messages are deleted; processing failures are left for redelivery.
func handleMessage(ctx context.Context, client sqsAPI, queueURL string, proc workerproc.Processor, msg sqstypes.Message) {
	decoded, meta, err := workerproc.ParseMessage(aws.ToString(msg.Body))
	if err != nil {
		fields := baseFields(msg, decoded.ItemID, decoded.RequestID)
		fields["body_len"] = meta.BodyLen
		if meta.BodySHA != "" {
			fields["body_sha256"] = meta.BodySHA
		}
		fields["error"] = err.Error()
		telemetry.Error("worker.item.rejected", fields)
		if workerproc.Unrecoverable(err) && deleteMessage(ctx, client, queueURL, msg, decoded.ItemID, decoded.RequestID) {
			metrics.IncProcessingJobsDeletedUnrecoverable()
		}
		return
	}

	telemetry.Info("worker.item.received", baseFields(msg, decoded.ItemID, decoded.RequestID))

	if err := workerproc.Handle(ctx, proc, decoded); err != nil {
		fields := baseFields(msg, decoded.ItemID, decoded.RequestID)
		fields["error"] = err.Error()
		telemetry.Error("worker.item.failed", fields)
		return
	}

	if deleteMessage(ctx, client, queueURL, msg, decoded.ItemID, decoded.RequestID) {
		telemetry.Info("worker.item.completed", baseFields(msg, decoded.ItemID, decoded.RequestID))
	}
}

func deleteMessage(ctx context.Context, client sqsAPI, queueURL string, msg sqstypes.Message, itemID, requestID string) bool {
	receipt := aws.ToString(msg.ReceiptHandle)
	if receipt == "" {
		fields := baseFields(msg, itemID, requestID)
		fields["error"] = "missing receipt handle"
		telemetry.Error("worker.item.delete_failed", fields)
		return false
	}
	if _, err := client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(queueURL),
		ReceiptHandle: aws.String(receipt),
	}); err != nil {
		fields := baseFields(msg, itemID, requestID)
		fields["error"] = err.Error()
		telemetry.Error("worker.item.delete_failed", fields)
		return false
	}
	return true
}

func baseFields(msg sqstypes.Message, itemID, requestID string) map[string]any {
	fields := map[string]any{
		"item_id":        itemID,
		"sqs_message_id": aws.ToString(msg.MessageId),
		"receive_count":  receiveCount(msg),
	}
	if strings.TrimSpace(requestID) != "" {
		fields["request_id"] = requestID
	}
	return fields
}

func receiveCount(msg sqstypes.Message) int {
	raw := msg.Attributes["ApproximateReceiveCount"]
	if raw == "" {
		return 0
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return parsed
}

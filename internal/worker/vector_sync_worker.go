package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"documet/internal/app"
	"documet/internal/model"
)

// defaultRequeueDelay spaces out redeliveries of a failing job so the broker
// does not spin the consumer in a hot loop.
const defaultRequeueDelay = 5 * time.Second

// VectorSyncer replays the vector index side of a document against the
// relational copy.
type VectorSyncer interface {
	RebuildVectors(ctx context.Context, userID, documentID uint) error
	PurgeVectors(ctx context.Context, userID, documentID uint) error
}

// VectorSyncWorker consumes reconciliation jobs queued when a synchronous
// vector index write failed, and retries the work out of band.
type VectorSyncWorker struct {
	conn         *amqp.Connection
	syncer       VectorSyncer
	queueName    string
	log          *slog.Logger
	requeueDelay time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewVectorSyncWorker(conn *amqp.Connection, syncer VectorSyncer, queueName string, log *slog.Logger) *VectorSyncWorker {
	if log == nil {
		log = slog.Default()
	}
	return &VectorSyncWorker{
		conn:         conn,
		syncer:       syncer,
		queueName:    queueName,
		log:          log,
		requeueDelay: defaultRequeueDelay,
	}
}

func (w *VectorSyncWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				w.handle(workerCtx, d)
			}
		}
	}()

	return nil
}

func (w *VectorSyncWorker) handle(ctx context.Context, d amqp.Delivery) {
	var job model.VectorJob
	if err := json.Unmarshal(d.Body, &job); err != nil {
		w.log.Error("decode vector job failed", "err", err)
		_ = d.Nack(false, false)
		return
	}

	var err error
	switch job.Op {
	case model.VectorJobRebuild:
		err = w.syncer.RebuildVectors(ctx, job.UserID, job.DocumentID)
	case model.VectorJobPurge:
		err = w.syncer.PurgeVectors(ctx, job.UserID, job.DocumentID)
	default:
		w.log.Error("unknown vector job op", "op", job.Op)
		_ = d.Nack(false, false)
		return
	}
	if err != nil {
		// The document vanished between enqueue and delivery; the job is
		// moot, so redelivering it could never succeed.
		if errors.Is(err, app.ErrNotFound) {
			w.log.Warn("vector job target gone, dropping", "op", job.Op, "document_id", job.DocumentID)
			_ = d.Ack(false)
			return
		}
		w.log.Error("vector job failed, requeueing", "op", job.Op, "document_id", job.DocumentID, "err", err)
		select {
		case <-ctx.Done():
		case <-time.After(w.requeueDelay):
		}
		_ = d.Nack(false, true)
		return
	}

	_ = d.Ack(false)
}

func (w *VectorSyncWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

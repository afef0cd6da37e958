package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"

	"documet/internal/app"
	"documet/internal/model"
)

type fakeSyncer struct {
	rebuildErr error
	purgeErr   error
	rebuilds   int
	purges     int
}

func (f *fakeSyncer) RebuildVectors(ctx context.Context, userID, documentID uint) error {
	f.rebuilds++
	return f.rebuildErr
}

func (f *fakeSyncer) PurgeVectors(ctx context.Context, userID, documentID uint) error {
	f.purges++
	return f.purgeErr
}

type fakeAcker struct {
	acks     int
	nacks    int
	requeued bool
}

func (f *fakeAcker) Ack(tag uint64, multiple bool) error { f.acks++; return nil }

func (f *fakeAcker) Nack(tag uint64, multiple, requeue bool) error {
	f.nacks++
	f.requeued = requeue
	return nil
}

func (f *fakeAcker) Reject(tag uint64, requeue bool) error {
	f.nacks++
	f.requeued = requeue
	return nil
}

func newTestWorker(s VectorSyncer) *VectorSyncWorker {
	w := NewVectorSyncWorker(nil, s, "vector_jobs_test", nil)
	w.requeueDelay = time.Millisecond
	return w
}

func jobDelivery(t *testing.T, ack amqp.Acknowledger, op string, documentID uint) amqp.Delivery {
	t.Helper()
	body, err := json.Marshal(model.VectorJob{Op: op, UserID: 1, DocumentID: documentID})
	require.NoError(t, err)
	return amqp.Delivery{Acknowledger: ack, Body: body}
}

func TestHandleAcksSuccessfulRebuild(t *testing.T) {
	syncer := &fakeSyncer{}
	ack := &fakeAcker{}
	w := newTestWorker(syncer)

	w.handle(context.Background(), jobDelivery(t, ack, model.VectorJobRebuild, 7))

	require.Equal(t, 1, syncer.rebuilds)
	require.Equal(t, 1, ack.acks)
	require.Zero(t, ack.nacks)
}

func TestHandleDropsJobForMissingDocument(t *testing.T) {
	// A rebuild queued before the document was deleted can never succeed;
	// it must be acked away instead of bouncing through the queue forever.
	syncer := &fakeSyncer{rebuildErr: app.ErrNotFound}
	ack := &fakeAcker{}
	w := newTestWorker(syncer)

	w.handle(context.Background(), jobDelivery(t, ack, model.VectorJobRebuild, 7))

	require.Equal(t, 1, ack.acks)
	require.Zero(t, ack.nacks)
}

func TestHandleDropsWrappedNotFound(t *testing.T) {
	syncer := &fakeSyncer{rebuildErr: fmt.Errorf("rebuild vectors: %w", app.ErrNotFound)}
	ack := &fakeAcker{}
	w := newTestWorker(syncer)

	w.handle(context.Background(), jobDelivery(t, ack, model.VectorJobRebuild, 7))

	require.Equal(t, 1, ack.acks)
	require.Zero(t, ack.nacks)
}

func TestHandleRequeuesTransientFailure(t *testing.T) {
	syncer := &fakeSyncer{purgeErr: errors.New("qdrant unreachable")}
	ack := &fakeAcker{}
	w := newTestWorker(syncer)

	w.handle(context.Background(), jobDelivery(t, ack, model.VectorJobPurge, 3))

	require.Equal(t, 1, syncer.purges)
	require.Zero(t, ack.acks)
	require.Equal(t, 1, ack.nacks)
	require.True(t, ack.requeued)
}

func TestHandleDiscardsUnknownOp(t *testing.T) {
	syncer := &fakeSyncer{}
	ack := &fakeAcker{}
	w := newTestWorker(syncer)

	w.handle(context.Background(), jobDelivery(t, ack, "compact", 3))

	require.Zero(t, syncer.rebuilds)
	require.Zero(t, syncer.purges)
	require.Equal(t, 1, ack.nacks)
	require.False(t, ack.requeued)
}

func TestHandleDiscardsMalformedPayload(t *testing.T) {
	ack := &fakeAcker{}
	w := newTestWorker(&fakeSyncer{})

	w.handle(context.Background(), amqp.Delivery{Acknowledger: ack, Body: []byte("{not json")})

	require.Equal(t, 1, ack.nacks)
	require.False(t, ack.requeued)
}

package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReprocessService struct {
	processed int
	updated   int
	err       error
	calls     int
}

func (f *fakeReprocessService) Reprocess(ctx context.Context) (int, int, error) {
	f.calls++
	return f.processed, f.updated, f.err
}

func newTestWorker(service ReprocessService) *Worker {
	return &Worker{
		mux:     asynq.NewServeMux(),
		service: service,
		logger:  slog.Default(),
	}
}

func TestReprocessPayloadRoundTrip(t *testing.T) {
	payload := ReprocessPayload{
		RequestedBy: "192.168.1.10:51234",
		TraceID:     "4bf92f3577b34da6a3ce929d0e0e4736",
		SpanID:      "00f067aa0ba902b7",
		EnqueuedAt:  time.Now().UnixNano(),
	}

	data, err := json.Marshal(payload)
	require.NoError(t, err)

	var decoded ReprocessPayload
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, payload, decoded)
}

func TestHandleReprocessSentiment(t *testing.T) {
	service := &fakeReprocessService{processed: 5, updated: 2}
	w := newTestWorker(service)

	payload, err := json.Marshal(ReprocessPayload{
		RequestedBy: "admin",
		EnqueuedAt:  time.Now().UnixNano(),
	})
	require.NoError(t, err)

	task := asynq.NewTask(TypeReprocessSentiment, payload)
	err = w.handleReprocessSentiment(context.Background(), task)
	require.NoError(t, err)
	assert.Equal(t, 1, service.calls)
}

func TestHandleReprocessSentimentWithTraceContext(t *testing.T) {
	service := &fakeReprocessService{processed: 1, updated: 1}
	w := newTestWorker(service)

	payload, err := json.Marshal(ReprocessPayload{
		TraceID:    "4bf92f3577b34da6a3ce929d0e0e4736",
		SpanID:     "00f067aa0ba902b7",
		EnqueuedAt: time.Now().UnixNano(),
	})
	require.NoError(t, err)

	task := asynq.NewTask(TypeReprocessSentiment, payload)
	require.NoError(t, w.handleReprocessSentiment(context.Background(), task))
	assert.Equal(t, 1, service.calls)
}

func TestHandleReprocessSentimentInvalidPayload(t *testing.T) {
	service := &fakeReprocessService{}
	w := newTestWorker(service)

	task := asynq.NewTask(TypeReprocessSentiment, []byte("{not json"))
	err := w.handleReprocessSentiment(context.Background(), task)
	require.Error(t, err)
	assert.Equal(t, 0, service.calls)
}

func TestHandleReprocessSentimentServiceError(t *testing.T) {
	service := &fakeReprocessService{err: errors.New("store unavailable")}
	w := newTestWorker(service)

	payload, err := json.Marshal(ReprocessPayload{EnqueuedAt: time.Now().UnixNano()})
	require.NoError(t, err)

	task := asynq.NewTask(TypeReprocessSentiment, payload)
	err = w.handleReprocessSentiment(context.Background(), task)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store unavailable")
}

func TestNewWorkerRegistersHandlers(t *testing.T) {
	w := NewWorker(WorkerConfig{RedisAddr: "localhost:6379", Concurrency: 3}, &fakeReprocessService{})
	require.NotNil(t, w.server)
	require.NotNil(t, w.mux)
	assert.Equal(t, 3, w.concurrency)
}

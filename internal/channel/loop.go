package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/geocoder-bridge/internal/bridge"
	"github.com/couchcryptid/geocoder-bridge/internal/domain"
	"github.com/couchcryptid/geocoder-bridge/internal/observability"
	"github.com/couchcryptid/storm-data-shared/retry"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// BatchExtractor reads up to batchSize raw method calls from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawMessage, error)
}

// Dispatcher completes a method call on its Result, possibly asynchronously.
type Dispatcher interface {
	HandleMethodCall(ctx context.Context, call bridge.MethodCall, result bridge.Result)
}

// BatchLoader writes encoded replies to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, replies []domain.OutputMessage) error
}

// Loop serves method calls arriving on a message transport: it fetches a
// batch, dispatches every call, waits for all replies, publishes them and
// then commits the batch.
type Loop struct {
	extractor  BatchExtractor
	dispatcher Dispatcher
	loader     BatchLoader
	logger     *slog.Logger
	metrics    *observability.Metrics
	running    atomic.Bool
	batchSize  int
}

// New creates a Loop with the given stages and observability.
func New(e BatchExtractor, d Dispatcher, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Loop {
	return &Loop{
		extractor:  e,
		dispatcher: d,
		loader:     l,
		logger:     logger,
		metrics:    metrics,
		batchSize:  batchSize,
	}
}

// CheckReadiness returns nil while Run is active.
func (l *Loop) CheckReadiness(_ context.Context) error {
	if !l.running.Load() {
		return errors.New("channel loop is not running")
	}
	return nil
}

// Run serves batches until the context is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("channel loop started", "batch_size", l.batchSize)
	l.running.Store(true)
	l.metrics.ChannelRunning.Set(1)
	defer func() {
		l.running.Store(false)
		l.metrics.ChannelRunning.Set(0)
	}()

	backoff := initialBackoff
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("channel loop stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !l.processBatch(ctx, &backoff) {
			return nil
		}
	}
}

// processBatch runs one fetch-dispatch-reply cycle. Returns false if the loop should stop.
func (l *Loop) processBatch(ctx context.Context, backoff *time.Duration) bool {
	start := time.Now()

	rawBatch, err := l.extractor.ExtractBatch(ctx, l.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		l.logger.Error("extract batch failed", "error", err)
		return l.backoffOrStop(ctx, backoff)
	}

	if len(rawBatch) == 0 {
		return ctx.Err() == nil
	}

	l.metrics.MessagesConsumed.Add(float64(len(rawBatch)))
	l.metrics.BatchSize.Observe(float64(len(rawBatch)))
	*backoff = initialBackoff

	pending := make([]*bridge.Pending, len(rawBatch))
	for i, raw := range rawBatch {
		pending[i] = l.dispatch(ctx, raw)
	}

	replies := make([]domain.OutputMessage, 0, len(rawBatch))
	for i, p := range pending {
		reply, err := p.Wait(ctx)
		if err != nil {
			// Uncommitted calls are redelivered after restart.
			return false
		}
		out, err := encodeReply(rawBatch[i].Key, reply)
		if err != nil {
			l.logger.Error("encode reply failed", "error", err, "id", reply.ID, "method", reply.Method)
			continue
		}
		replies = append(replies, out)
	}

	// The reader has already moved past this batch, so the same replies are
	// retried until they are written or the loop stops uncommitted.
	for {
		err := l.loader.LoadBatch(ctx, replies)
		if err == nil {
			break
		}
		l.logger.Error("load batch failed", "error", err, "batch_size", len(replies))
		if !l.backoffOrStop(ctx, backoff) {
			return false
		}
	}
	l.metrics.MessagesProduced.Add(float64(len(replies)))

	for _, raw := range rawBatch {
		l.commitOffset(ctx, raw)
	}

	l.metrics.BatchDuration.Observe(time.Since(start).Seconds())
	return true
}

// dispatch decodes a raw message and hands it to the dispatcher. A message
// that cannot be decoded still gets a failed reply so the caller is not left
// waiting.
func (l *Loop) dispatch(ctx context.Context, raw domain.RawMessage) *bridge.Pending {
	id := string(raw.Key)

	var call bridge.MethodCall
	if err := json.Unmarshal(raw.Value, &call); err != nil {
		l.logger.Warn("decode method call failed",
			"error", err,
			"topic", raw.Topic,
			"partition", raw.Partition,
			"offset", raw.Offset,
		)
		l.metrics.DecodeErrors.Inc()
		p := bridge.NewPending(id, "")
		p.Error(domain.CodeFailed, fmt.Sprintf("decode method call: %v", err), nil)
		return p
	}

	p := bridge.NewPending(id, call.Method)
	l.dispatcher.HandleMethodCall(ctx, call, p)
	return p
}

// encodeReply wraps a reply for the reply topic, keeping the request key.
func encodeReply(key []byte, reply bridge.Reply) (domain.OutputMessage, error) {
	data, err := json.Marshal(reply)
	if err != nil {
		return domain.OutputMessage{}, fmt.Errorf("marshal reply: %w", err)
	}
	return domain.OutputMessage{
		Key:   key,
		Value: data,
		Headers: map[string]string{
			"method": reply.Method,
			"status": reply.Status,
		},
	}, nil
}

// backoffOrStop sleeps with the current backoff and advances it.
// Returns false if the loop should stop.
func (l *Loop) backoffOrStop(ctx context.Context, backoff *time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !retry.SleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = retry.NextBackoff(*backoff, maxBackoff)
	return true
}

func (l *Loop) commitOffset(ctx context.Context, raw domain.RawMessage) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		l.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

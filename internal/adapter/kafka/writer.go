package kafka

import (
	"context"
	"log/slog"
	"sort"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/geocoder-bridge/internal/config"
	"github.com/couchcryptid/geocoder-bridge/internal/domain"
)

// Writer produces replies to the reply topic.
// It implements channel.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured reply topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaReplyTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch publishes all replies in a single WriteMessages call. Replies
// are keyed by correlation id so a caller's replies share a partition.
func (w *Writer) LoadBatch(ctx context.Context, replies []domain.OutputMessage) error {
	if len(replies) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(replies))
	for i := range replies {
		msgs[i] = toMessage(replies[i])
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

func toMessage(out domain.OutputMessage) kafkago.Message {
	keys := make([]string, 0, len(out.Headers))
	for k := range out.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	headers := make([]kafkago.Header, 0, len(keys))
	for _, k := range keys {
		headers = append(headers, kafkago.Header{Key: k, Value: []byte(out.Headers[k])})
	}
	return kafkago.Message{
		Key:     out.Key,
		Value:   out.Value,
		Headers: headers,
	}
}

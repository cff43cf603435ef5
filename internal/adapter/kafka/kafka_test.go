package kafka

import (
	"testing"
	"time"

	"github.com/couchcryptid/geocoder-bridge/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
)

func TestMapMessageToRawMessage(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("call-1"),
		Value:     []byte(`{"method":"findAddressesFromQuery","arguments":{"address":"Dam 1"}}`),
		Topic:     "geocoder-calls",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "client", Value: []byte("mobile")},
		},
	}

	raw := mapMessageToRawMessage(msg)

	assert.Equal(t, []byte("call-1"), raw.Key)
	assert.JSONEq(t, `{"method":"findAddressesFromQuery","arguments":{"address":"Dam 1"}}`, string(raw.Value))
	assert.Equal(t, "geocoder-calls", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "mobile", raw.Headers["client"])
	assert.Nil(t, raw.Commit)
}

func TestToMessage(t *testing.T) {
	out := domain.OutputMessage{
		Key:   []byte("call-1"),
		Value: []byte(`{"status":"success","result":[]}`),
		Headers: map[string]string{
			"status": "success",
			"method": "findAddressesFromQuery",
		},
	}

	msg := toMessage(out)

	assert.Equal(t, []byte("call-1"), msg.Key)
	assert.Equal(t, out.Value, msg.Value)
	assert.Len(t, msg.Headers, 2)
	// headers are emitted in key order
	assert.Equal(t, "method", msg.Headers[0].Key)
	assert.Equal(t, []byte("findAddressesFromQuery"), msg.Headers[0].Value)
	assert.Equal(t, "status", msg.Headers[1].Key)
	assert.Equal(t, []byte("success"), msg.Headers[1].Value)
}

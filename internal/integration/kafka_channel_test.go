//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/geocoder-bridge/internal/adapter/kafka"
	"github.com/couchcryptid/geocoder-bridge/internal/adapter/nominatim"
	"github.com/couchcryptid/geocoder-bridge/internal/bridge"
	"github.com/couchcryptid/geocoder-bridge/internal/channel"
	"github.com/couchcryptid/geocoder-bridge/internal/config"
	"github.com/couchcryptid/geocoder-bridge/internal/domain"
	"github.com/couchcryptid/geocoder-bridge/internal/observability"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const (
	testRequestTopic = "test-geocoder-calls"
	testReplyTopic   = "test-geocoder-replies"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("geocoder-bridge-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// fakeNominatim answers every search with one Amsterdam result.
func fakeNominatim(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search":
			_, _ = w.Write([]byte(`[{"lat":"52.3731","lon":"4.8926","name":"Dam",
				"display_name":"Dam 1, Amsterdam, 1012 JS, Nederland",
				"address":{"road":"Dam","house_number":"1","city":"Amsterdam","postcode":"1012 JS","country":"Nederland","country_code":"nl"}}]`))
		default:
			_, _ = w.Write([]byte(`{"error":"Unable to geocode"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func readReply(ctx context.Context, t *testing.T, consumer *kafkago.Reader) (kafkago.Message, bridge.Reply) {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from reply topic")

	var reply bridge.Reply
	require.NoError(t, json.Unmarshal(msg.Value, &reply), "unmarshal reply")
	return msg, reply
}

func header(msg kafkago.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

// TestChannelEndToEnd publishes method calls to the request topic and
// verifies the replies produced by a running channel loop.
func TestChannelEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testRequestTopic)
	createTopic(t, broker, testReplyTopic)

	cfg := &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaRequestTopic:  testRequestTopic,
		KafkaReplyTopic:    testReplyTopic,
		KafkaGroupID:       fmt.Sprintf("test-bridge-%d", time.Now().UnixNano()),
		BatchSize:          10,
		BatchFlushInterval: 500 * time.Millisecond,
	}

	metrics := observability.NewMetricsForTesting()
	geocoder := nominatim.NewClient(nominatim.Options{
		BaseURL:   fakeNominatim(t).URL,
		UserAgent: "geocoder-bridge-test",
		Timeout:   5 * time.Second,
		RateLimit: 100,
	}, metrics, discardLogger())
	b := bridge.New(geocoder, discardLogger(), metrics)

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	loop := channel.New(reader, b, writer, discardLogger(), metrics, cfg.BatchSize)
	loopCtx, stopLoop := context.WithCancel(ctx)
	loopDone := make(chan error, 1)
	go func() { loopDone <- loop.Run(loopCtx) }()
	t.Cleanup(func() {
		stopLoop()
		<-loopDone
		b.Wait()
	})

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testRequestTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	calls := []struct {
		key  string
		call bridge.MethodCall
	}{
		{"call-query", bridge.MethodCall{
			Method:    domain.MethodFindByQuery,
			Arguments: map[string]any{"address": "Dam 1 Amsterdam"},
		}},
		{"call-reverse", bridge.MethodCall{
			Method:    domain.MethodFindByCoordinates,
			Arguments: map[string]any{"latitude": 0.0, "longitude": 0.0},
		}},
		{"call-unknown", bridge.MethodCall{Method: "getPlacemark"}},
	}
	for _, c := range calls {
		payload, err := json.Marshal(c.call)
		require.NoError(t, err)
		require.NoError(t, producer.WriteMessages(ctx, kafkago.Message{Key: []byte(c.key), Value: payload}))
	}

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testReplyTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	byKey := make(map[string]bridge.Reply, len(calls))
	msgs := make(map[string]kafkago.Message, len(calls))
	for range calls {
		msg, reply := readReply(ctx, t, consumer)
		byKey[string(msg.Key)] = reply
		msgs[string(msg.Key)] = msg
	}

	query := byKey["call-query"]
	assert.Equal(t, "call-query", query.ID)
	assert.Equal(t, bridge.StatusSuccess, query.Status)
	assert.Equal(t, domain.MethodFindByQuery, header(msgs["call-query"], "method"))
	assert.Equal(t, bridge.StatusSuccess, header(msgs["call-query"], "status"))
	addresses, ok := query.Result.([]any)
	require.True(t, ok)
	require.Len(t, addresses, 1)
	first := addresses[0].(map[string]any)
	assert.Equal(t, "Dam 1,Amsterdam", first["addressLine1"])
	assert.Equal(t, "NL", first["countryCode"])

	reverse := byKey["call-reverse"]
	assert.Equal(t, bridge.StatusSuccess, reverse.Status)
	assert.Equal(t, []any{}, reverse.Result)

	unknown := byKey["call-unknown"]
	assert.Equal(t, bridge.StatusNotImplemented, unknown.Status)
	assert.Equal(t, bridge.StatusNotImplemented, header(msgs["call-unknown"], "status"))
}

package domain

import (
	"context"
	"time"
)

// RawMessage is an undecoded method call read from a message transport.
type RawMessage struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// OutputMessage is an encoded reply destined for a message transport.
type OutputMessage struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

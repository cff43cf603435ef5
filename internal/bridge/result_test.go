package bridge

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPending_FirstCompletionWins(t *testing.T) {
	p := NewPending("id-1", "findAddressesFromQuery")

	p.Error("failed", "boom", nil)
	p.Success([]string{"ignored"})
	p.NotImplemented()

	reply := p.Reply()
	assert.Equal(t, StatusError, reply.Status)
	assert.Equal(t, "id-1", reply.ID)
	assert.Equal(t, "findAddressesFromQuery", reply.Method)
	require.NotNil(t, reply.Error)
	assert.Equal(t, "boom", reply.Error.Message)
	assert.Nil(t, reply.Result)
}

func TestPending_LaterCompletionsAreLogged(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	p := NewPending("id-2", "findAddressesFromCoordinates")
	p.Success([]string{})
	assert.Empty(t, buf.String())

	p.Error("failed", "late", nil)
	p.NotImplemented()

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "duplicate completion dropped"))
	assert.Contains(t, out, "id=id-2")
	assert.Contains(t, out, "status=error")
	assert.Contains(t, out, "status=not_implemented")
	assert.Equal(t, StatusSuccess, p.Reply().Status)
}

func TestPending_WaitHonoursContext(t *testing.T) {
	p := NewPending("", "x")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPending_DoneClosedOnCompletion(t *testing.T) {
	p := NewPending("", "x")

	select {
	case <-p.Done():
		t.Fatal("done before completion")
	default:
	}

	p.NotImplemented()

	select {
	case <-p.Done():
	default:
		t.Fatal("done not closed after completion")
	}
	assert.Equal(t, StatusNotImplemented, p.Reply().Status)
}

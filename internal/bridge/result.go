package bridge

import (
	"context"
	"log/slog"
	"sync"
)

// Reply statuses.
const (
	StatusSuccess        = "success"
	StatusError          = "error"
	StatusNotImplemented = "not_implemented"
)

// Result receives the outcome of a method call. Exactly one of its methods
// is invoked per call, possibly from another goroutine.
type Result interface {
	Success(payload any)
	Error(code, message string, details any)
	NotImplemented()
}

// Reply is the transport-neutral envelope for a completed call.
type Reply struct {
	ID     string      `json:"id,omitempty"`
	Method string      `json:"method"`
	Status string      `json:"status"`
	Result any         `json:"result"`
	Error  *ReplyError `json:"error,omitempty"`
}

// ReplyError carries the error code and message of a failed call.
type ReplyError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Pending is a Result that records the first completion and drops, with a
// warning, any later ones. Transports use it to wait for a dispatched call.
type Pending struct {
	id     string
	method string

	once  sync.Once
	done  chan struct{}
	reply Reply
}

// NewPending creates a pending response for the call identified by id.
func NewPending(id, method string) *Pending {
	return &Pending{
		id:     id,
		method: method,
		done:   make(chan struct{}),
	}
}

func (p *Pending) Success(payload any) {
	p.complete(Reply{Status: StatusSuccess, Result: payload})
}

func (p *Pending) Error(code, message string, details any) {
	p.complete(Reply{
		Status: StatusError,
		Error:  &ReplyError{Code: code, Message: message, Details: details},
	})
}

func (p *Pending) NotImplemented() {
	p.complete(Reply{Status: StatusNotImplemented})
}

// Done is closed once the call has completed.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Reply returns the completed envelope. It is only meaningful after Done is closed.
func (p *Pending) Reply() Reply {
	<-p.done
	return p.reply
}

// Wait blocks until the call completes or ctx is done.
func (p *Pending) Wait(ctx context.Context) (Reply, error) {
	select {
	case <-p.done:
		return p.reply, nil
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	}
}

func (p *Pending) complete(r Reply) {
	first := false
	p.once.Do(func() {
		r.ID = p.id
		r.Method = p.method
		p.reply = r
		close(p.done)
		first = true
	})
	if !first {
		slog.Warn("duplicate completion dropped", "id", p.id, "method", p.method, "status", r.Status)
	}
}

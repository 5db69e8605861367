package server

import (
	"context"

	"github.com/eternalApril/moonwire/internal/resp"
)

// Dispatcher executes one decoded request and returns the reply to send back.
// Requests are conventionally arrays of bulk strings: the command name and its arguments.
// Dispatch is called from many connection goroutines at once
type Dispatcher interface {
	Dispatch(ctx context.Context, req resp.Value) resp.Value
}

// DispatcherFunc adapts a function to Dispatcher
type DispatcherFunc func(ctx context.Context, req resp.Value) resp.Value

func (f DispatcherFunc) Dispatch(ctx context.Context, req resp.Value) resp.Value {
	return f(ctx, req)
}

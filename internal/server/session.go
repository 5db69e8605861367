package server

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/eternalApril/moonwire/internal/metrics"
	"github.com/eternalApril/moonwire/internal/resp"
)

// State is the position of a connection in its request cycle
type State int

const (
	StateAwaitingData State = iota
	StateParsing
	StateDispatching
	StateWriting
	StateClosed // terminal, the peer went away between requests
	StateFailed // terminal, protocol, transport or reset error
)

func (s State) String() string {
	switch s {
	case StateAwaitingData:
		return "awaiting_data"
	case StateParsing:
		return "parsing"
	case StateDispatching:
		return "dispatching"
	case StateWriting:
		return "writing"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// session drives one client connection: read, decode, dispatch, encode, write, flush
type session struct {
	id         string
	conn       *resp.Conn
	dispatcher Dispatcher
	metrics    *metrics.Registry
	log        *zap.Logger

	state State
	// closing is set by the server before it closes the connection during shutdown
	closing func() bool
}

func (s *session) setState(st State) {
	if s.log.Core().Enabled(zap.DebugLevel) {
		s.log.Debug("state", zap.Stringer("from", s.state), zap.Stringer("to", st))
	}
	s.state = st
}

// serve runs the request cycle until the peer disconnects or something fails.
// A clean disconnect returns nil
func (s *session) serve(ctx context.Context) error {
	for {
		if s.conn.Buffered() > 0 {
			s.setState(StateParsing)
		} else {
			s.setState(StateAwaitingData)
		}

		req, err := s.conn.ReadValue()
		if err != nil {
			return s.fail(err)
		}
		s.metrics.FramesDecoded.WithLabelValues(typeLabel(req.Type)).Inc()

		s.setState(StateDispatching)
		start := time.Now()
		reply := s.dispatcher.Dispatch(ctx, req)
		s.metrics.DispatchDuration.Observe(time.Since(start).Seconds())

		s.setState(StateWriting)
		if err := s.conn.WriteValue(reply); err != nil {
			if !errors.Is(err, resp.ErrUnknownType) && !errors.Is(err, resp.ErrInvalidSimple) {
				return s.fail(err)
			}

			s.log.Error("dispatcher returned a reply that can't be encoded", zap.Error(err))
			reply = resp.MakeError("ERR internal error: invalid reply")
			if err := s.conn.WriteValue(reply); err != nil {
				return s.fail(err)
			}
		}
		if err := s.conn.Flush(); err != nil {
			return s.fail(err)
		}
		s.metrics.FramesEncoded.WithLabelValues(typeLabel(reply.Type)).Inc()
	}
}

// fail moves the session to its terminal state. io.EOF is the normal way
// for a client to leave and is not reported as an error
func (s *session) fail(err error) error {
	if errors.Is(err, io.EOF) {
		s.setState(StateClosed)
		return nil
	}

	s.setState(StateFailed)

	var perr *resp.ProtocolError
	if errors.As(err, &perr) {
		// the stream can't be resynchronized, tell the client why before hanging up
		if sendErr := s.conn.Send(resp.MakeErrorf("ERR Protocol error: %s", perr.Reason)); sendErr != nil {
			s.log.Debug("failed to report protocol error", zap.Error(sendErr))
		}
	}

	return err
}

// closeReason classifies the error returned by serve for metrics
func (s *session) closeReason(err error) string {
	var perr *resp.ProtocolError
	switch {
	case err == nil:
		return metrics.ReasonClean
	case s.closing != nil && s.closing() && errors.Is(err, net.ErrClosed):
		return metrics.ReasonShutdown
	case errors.As(err, &perr):
		return metrics.ReasonProtocol
	case errors.Is(err, resp.ErrConnReset):
		return metrics.ReasonReset
	}
	return metrics.ReasonIO
}

func typeLabel(t byte) string {
	switch t {
	case resp.TypeSimpleString:
		return "simple_string"
	case resp.TypeError:
		return "error"
	case resp.TypeInteger:
		return "integer"
	case resp.TypeBulkString:
		return "bulk_string"
	case resp.TypeArray:
		return "array"
	}
	return "unknown"
}

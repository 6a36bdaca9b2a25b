package relay

import (
	"context"
	"iter"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/satriahrh/contextchat/domain"
	"github.com/satriahrh/contextchat/utils/log"
)

// ErrorMessage is what clients see when the provider fails mid-stream.
const ErrorMessage = "Failed to process chat message"

type State int32

const (
	Idle State = iota
	Streaming
	Completed
	Failed
	Aborted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Streaming:
		return "streaming"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Sink is the client side of one relay session.
type Sink interface {
	// Open prepares the connection for streaming, e.g. writes headers.
	Open() error
	WriteChunk(text string) error
	WriteDone() error
	WriteError(message string) error
	Close() error
}

// Session forwards one fragment sequence to one client. It is single-use.
type Session struct {
	ID string

	sink  Sink
	state atomic.Int32
	// writeMu orders sink writes against the abort transition, so nothing is
	// written once the session left Streaming.
	writeMu   sync.Mutex
	closeOnce sync.Once
}

func NewSession(sink Sink) *Session {
	return &Session{ID: uuid.NewString(), sink: sink}
}

func (s *Session) State() State {
	return State(s.state.Load())
}

// Run pumps fragments to the sink until the sequence ends, fails, or ctx is
// done. It returns nil on completion, domain.ErrTransportAbort when the
// client went away, and the provider error on failure.
func (s *Session) Run(ctx context.Context, fragments iter.Seq2[string, error]) error {
	if !s.state.CompareAndSwap(int32(Idle), int32(Streaming)) {
		return nil
	}
	ctx = context.WithValue(ctx, log.SessionIDKey, s.ID)
	logger := log.WithCtx(ctx)

	// Registered before anything is written so an early disconnect is seen.
	stop := context.AfterFunc(ctx, s.abort)
	defer stop()
	defer s.close(ctx)

	if err := s.sink.Open(); err != nil {
		s.abort()
		logger.Debug("Opening stream failed", zap.Error(err))
		return domain.ErrTransportAbort
	}
	logger.Debug("Stream opened")

	chunks := 0
	for text, err := range fragments {
		if ctx.Err() != nil {
			s.abort()
		}
		if err != nil {
			if s.finish(Failed, func() error { return s.sink.WriteError(ErrorMessage) }, logger) {
				return err
			}
			break
		}
		if !s.forward(text, logger) {
			break
		}
		chunks++
	}

	if ctx.Err() != nil {
		s.abort()
	}
	if s.finish(Completed, s.sink.WriteDone, logger) {
		logger.Debug("Stream completed", zap.Int("chunks", chunks))
		return nil
	}

	logger.Debug("Stream aborted by client", zap.Int("chunks", chunks))
	return domain.ErrTransportAbort
}

// forward writes one chunk while the session is still streaming. A failed
// write aborts the session.
func (s *Session) forward(text string, logger *zap.Logger) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.State() != Streaming {
		return false
	}
	if err := s.sink.WriteChunk(text); err != nil {
		logger.Debug("Writing chunk failed", zap.Error(err))
		s.transition(Aborted)
		return false
	}
	return true
}

// finish moves to a terminal state and writes its frame. It reports false
// when another terminal state won.
func (s *Session) finish(to State, write func() error, logger *zap.Logger) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if !s.transition(to) {
		return false
	}
	if err := write(); err != nil {
		logger.Debug("Writing terminal frame failed", zap.Stringer("state", to), zap.Error(err))
	}
	return true
}

func (s *Session) abort() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.transition(Aborted)
}

// transition moves out of Streaming. Only the first caller wins.
func (s *Session) transition(to State) bool {
	return s.state.CompareAndSwap(int32(Streaming), int32(to))
}

func (s *Session) close(ctx context.Context) {
	s.closeOnce.Do(func() {
		if err := s.sink.Close(); err != nil {
			log.WithCtx(ctx).Debug("Closing stream sink failed", zap.Error(err))
		}
	})
}

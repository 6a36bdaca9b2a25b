package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
)

const (
	dataPrefix = "data: "
	doneToken  = "[DONE]"
	readSize   = 4096
)

var frameDelimiter = []byte("\n\n")

type State int

const (
	Idle State = iota
	Receiving
	Done
	Errored
	Canceled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Receiving:
		return "receiving"
	case Done:
		return "done"
	case Errored:
		return "errored"
	case Canceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// StreamError is an error frame sent by the server.
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string {
	return "stream error: " + e.Message
}

// StreamHandlers receive stream progress. Both may be nil.
type StreamHandlers struct {
	// OnChunk gets each fragment and the message accumulated so far.
	OnChunk func(chunk, message string)
	// OnError is not called when the stream is canceled through ctx.
	OnError func(err error)
}

type StreamResult struct {
	State   State
	Message string
	Err     error
}

type frame struct {
	Chunk *string `json:"chunk"`
	Error *string `json:"error"`
}

// Stream posts a message to the streaming endpoint and reassembles the reply.
// Canceling ctx stops reading and ends in Canceled without calling OnError.
// A body that ends without the termination frame is reported as
// io.ErrUnexpectedEOF.
func (c *Client) Stream(ctx context.Context, message string, contextTypes []string, h StreamHandlers) StreamResult {
	s := &reassembly{ctx: ctx, handlers: h, state: Idle}

	resp, err := c.post(ctx, "/chat/stream", message, contextTypes)
	if err != nil {
		return s.fail(err)
	}
	defer resp.Body.Close()
	s.state = Receiving

	buf := make([]byte, readSize)
	var pending []byte
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			for {
				i := bytes.Index(pending, frameDelimiter)
				if i < 0 {
					break
				}
				raw := string(pending[:i])
				pending = pending[i+len(frameDelimiter):]
				if s.handleFrame(raw) {
					return s.result()
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return s.fail(err)
		}
	}
}

// reassembly is the client half of one stream.
type reassembly struct {
	ctx      context.Context
	handlers StreamHandlers
	state    State
	message  strings.Builder
	err      error
}

// handleFrame applies one frame and reports whether the stream is over.
func (s *reassembly) handleFrame(raw string) bool {
	if s.ctx.Err() != nil {
		s.state = Canceled
		return true
	}
	raw = strings.TrimRight(raw, "\r")
	if !strings.HasPrefix(raw, dataPrefix) {
		return false
	}
	payload := strings.TrimPrefix(raw, dataPrefix)
	if payload == doneToken {
		s.state = Done
		return true
	}

	var f frame
	if err := json.Unmarshal([]byte(payload), &f); err != nil {
		// Not ours, skip it.
		return false
	}
	if f.Error != nil {
		s.fail(&StreamError{Message: *f.Error})
		return true
	}
	if f.Chunk != nil {
		s.message.WriteString(*f.Chunk)
		if s.handlers.OnChunk != nil {
			s.handlers.OnChunk(*f.Chunk, s.message.String())
		}
	}
	return false
}

func (s *reassembly) fail(err error) StreamResult {
	if isAbort(s.ctx, err) {
		s.state = Canceled
		return s.result()
	}
	s.state = Errored
	s.err = err
	if s.handlers.OnError != nil {
		s.handlers.OnError(err)
	}
	return s.result()
}

func (s *reassembly) result() StreamResult {
	return StreamResult{State: s.state, Message: s.message.String(), Err: s.err}
}

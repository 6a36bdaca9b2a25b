package relay

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
)

// DoneToken is the payload of the frame that ends a successful stream.
const DoneToken = "[DONE]"

var errSinkClosed = errors.New("sink closed")

type chunkFrame struct {
	Chunk string `json:"chunk"`
}

type errorFrame struct {
	Error string `json:"error"`
}

// SSESink writes Server-Sent Events "data:" frames and flushes after each one.
type SSESink struct {
	w      http.ResponseWriter
	rc     *http.ResponseController
	closed bool
}

func NewSSESink(w http.ResponseWriter) *SSESink {
	return &SSESink{w: w, rc: http.NewResponseController(w)}
}

func (s *SSESink) Open() error {
	h := s.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	s.w.WriteHeader(http.StatusOK)
	return s.rc.Flush()
}

func (s *SSESink) WriteChunk(text string) error {
	return s.writeJSON(chunkFrame{Chunk: text})
}

func (s *SSESink) WriteDone() error {
	return s.writeData([]byte(DoneToken))
}

func (s *SSESink) WriteError(message string) error {
	return s.writeJSON(errorFrame{Error: message})
}

// Close stops further writes. The HTTP server ends the response once the
// handler returns.
func (s *SSESink) Close() error {
	s.closed = true
	return nil
}

func (s *SSESink) writeJSON(v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return s.writeData(bytes.TrimRight(buf.Bytes(), "\n"))
}

func (s *SSESink) writeData(payload []byte) error {
	if s.closed {
		return errSinkClosed
	}
	frame := make([]byte, 0, len(payload)+8)
	frame = append(frame, "data: "...)
	frame = append(frame, payload...)
	frame = append(frame, "\n\n"...)
	if _, err := s.w.Write(frame); err != nil {
		return err
	}
	return s.rc.Flush()
}

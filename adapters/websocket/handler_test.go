package websocket

import (
	"context"
	"errors"
	"iter"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satriahrh/contextchat/domain"
	"github.com/satriahrh/contextchat/usecase"
)

type fakeLlm struct {
	fragments []string
	err       error
}

func (f *fakeLlm) Complete(context.Context, domain.PromptEnvelope) (string, error) {
	return strings.Join(f.fragments, ""), f.err
}

func (f *fakeLlm) Stream(_ context.Context, _ domain.PromptEnvelope) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, frag := range f.fragments {
			if !yield(frag, nil) {
				return
			}
		}
		if f.err != nil {
			yield("", f.err)
		}
	}
}

func dial(t *testing.T, llm domain.Llm) *websocket.Conn {
	t.Helper()
	svc := usecase.NewChatService(llm, usecase.NewComposer(domain.NewContextStore(), nil, 0))
	e := echo.New()
	e.GET("/api/chat/ws", NewHandler(svc).ChatStream)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/chat/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return conn
}

func readAll(t *testing.T, conn *websocket.Conn) []Message {
	t.Helper()
	var msgs []Message
	for {
		var m Message
		if err := conn.ReadJSON(&m); err != nil {
			var closeErr *websocket.CloseError
			require.True(t, errors.As(err, &closeErr), "unexpected read error: %v", err)
			assert.Equal(t, websocket.CloseNormalClosure, closeErr.Code)
			return msgs
		}
		msgs = append(msgs, m)
	}
}

func TestChatStreamOverWebSocket(t *testing.T) {
	conn := dial(t, &fakeLlm{fragments: []string{"Hel", "lo, ", "world"}})
	require.NoError(t, conn.WriteJSON(domain.ChatRequest{Message: "hi"}))

	msgs := readAll(t, conn)

	require.Len(t, msgs, 4)
	var sb strings.Builder
	for _, m := range msgs[:3] {
		require.NotNil(t, m.Chunk)
		sb.WriteString(*m.Chunk)
	}
	assert.Equal(t, "Hello, world", sb.String())
	assert.True(t, msgs[3].Done)
}

func TestChatStreamOverWebSocketFailure(t *testing.T) {
	conn := dial(t, &fakeLlm{fragments: []string{"a"}, err: errors.New("reset")})
	require.NoError(t, conn.WriteJSON(domain.ChatRequest{Message: "hi"}))

	msgs := readAll(t, conn)

	require.Len(t, msgs, 2)
	assert.Equal(t, "Failed to process chat message", msgs[1].Error)
	assert.False(t, msgs[1].Done)
}

func TestChatStreamOverWebSocketValidation(t *testing.T) {
	conn := dial(t, &fakeLlm{fragments: []string{"unused"}})
	require.NoError(t, conn.WriteJSON(domain.ChatRequest{Message: ""}))

	msgs := readAll(t, conn)

	require.Len(t, msgs, 1)
	assert.Equal(t, "Message is required", msgs[0].Error)
}

type blockingLlm struct {
	started chan struct{}
}

func (b *blockingLlm) Complete(context.Context, domain.PromptEnvelope) (string, error) {
	return "", nil
}

func (b *blockingLlm) Stream(ctx context.Context, _ domain.PromptEnvelope) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if !yield("first", nil) {
			return
		}
		close(b.started)
		<-ctx.Done()
	}
}

func TestShutdownClosesOpenStreams(t *testing.T) {
	gen := &blockingLlm{started: make(chan struct{})}
	svc := usecase.NewChatService(gen, usecase.NewComposer(domain.NewContextStore(), nil, 0))
	h := NewHandler(svc)
	e := echo.New()
	e.GET("/api/chat/ws", h.ChatStream)
	srv := httptest.NewServer(e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/chat/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.WriteJSON(domain.ChatRequest{Message: "hi"}))

	var first Message
	require.NoError(t, conn.ReadJSON(&first))
	require.NotNil(t, first.Chunk)
	<-gen.started
	assert.Equal(t, 1, h.hub.ClientCount())

	h.Shutdown()

	var m Message
	err = conn.ReadJSON(&m)
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, websocket.CloseGoingAway, closeErr.Code)
	assert.Eventually(t, func() bool { return h.hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
}

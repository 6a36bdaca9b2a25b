package websocket

import (
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/contextchat/adapters/relay"
	"github.com/satriahrh/contextchat/domain"
	"github.com/satriahrh/contextchat/usecase"
	"github.com/satriahrh/contextchat/utils/log"
)

type Handler struct {
	upgrader websocket.Upgrader
	svc      *usecase.ChatService
	hub      *Hub
}

func NewHandler(svc *usecase.ChatService) *Handler {
	return &Handler{
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		svc:      svc,
		hub:      NewHub(),
	}
}

// Shutdown closes every open stream. Register it with the HTTP server's
// shutdown hooks, since hijacked connections are not closed by Shutdown.
func (h *Handler) Shutdown() {
	h.hub.CloseAll()
}

// ChatStream handles "/api/chat/ws". The client sends one ChatRequest as JSON
// and receives chunk messages until a done or error message, after which the
// server closes the connection.
func (h *Handler) ChatStream(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already answered the request.
		log.WithCtx(c.Request().Context()).Debug("WebSocket upgrade failed", zap.Error(err))
		return nil
	}

	client := NewClient(c.Request().Context(), conn)
	ctx := client.Context()
	if !h.hub.Register(client) {
		_ = client.closeWith(websocket.CloseGoingAway)
		return nil
	}
	defer h.hub.Unregister(client)

	var req domain.ChatRequest
	if err := conn.ReadJSON(&req); err != nil {
		_ = client.WriteError("Invalid request body")
		return client.Close()
	}

	fragments, err := h.svc.Stream(ctx, req)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			_ = client.WriteError("Message is required")
		} else {
			_ = client.WriteError(relay.ErrorMessage)
		}
		return client.Close()
	}

	session := relay.NewSession(client)
	err = session.Run(ctx, fragments)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrTransportAbort):
		log.WithCtx(ctx).Debug("Client left chat stream", zap.String("session_id", session.ID))
	default:
		log.WithCtx(ctx).Error("Error streaming chat", zap.String("session_id", session.ID), zap.Error(err))
	}
	return nil
}

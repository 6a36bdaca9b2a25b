package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/satriahrh/contextchat/adapters/relay"
	"github.com/satriahrh/contextchat/domain"
	"github.com/satriahrh/contextchat/usecase"
	"github.com/satriahrh/contextchat/utils/log"
	"github.com/satriahrh/contextchat/utils/telemetry"
)

const (
	msgMessageRequired = "Message is required"
	msgInvalidBody     = "Invalid request body"
	msgChatFailed      = "Failed to process chat message"
)

type ChatHandler struct {
	chatService *usecase.ChatService
	requests    metric.Int64Counter
	streams     metric.Int64Counter
}

type ChatResponse struct {
	Response string `json:"response"`
}

type ContextsResponse struct {
	Contexts []string `json:"contexts"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func NewChatHandler(chatService *usecase.ChatService) *ChatHandler {
	const scope = "github.com/satriahrh/contextchat/adapters/http"
	return &ChatHandler{
		chatService: chatService,
		requests:    telemetry.Counter(scope, "chat.requests", "Non-streaming chat requests by outcome"),
		streams:     telemetry.Counter(scope, "chat.stream.sessions", "Streaming chat sessions by terminal state"),
	}
}

// Register mounts the chat routes on an /api group.
func (h *ChatHandler) Register(api *echo.Group) {
	api.GET("/health", h.HealthCheck)
	api.GET("/chat/contexts", h.Contexts)
	api.POST("/chat", h.Chat)
	api.POST("/chat/stream", h.ChatStream)
}

// Health check endpoint
func (h *ChatHandler) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Message: "Server is running"})
}

func (h *ChatHandler) Contexts(c echo.Context) error {
	return c.JSON(http.StatusOK, ContextsResponse{Contexts: h.chatService.Contexts()})
}

// Chat answers a message with one JSON payload.
func (h *ChatHandler) Chat(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := bindChatRequest(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgInvalidBody})
	}

	reply, err := h.chatService.Chat(ctx, req)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			h.requests.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "invalid")))
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgMessageRequired})
		}
		h.requests.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "failed")))
		log.WithCtx(ctx).Error("Error processing chat", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: msgChatFailed})
	}

	h.requests.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "ok")))
	return c.JSON(http.StatusOK, ChatResponse{Response: reply})
}

// ChatStream relays the reply as Server-Sent Events. Request problems are
// answered with plain JSON before the event stream starts.
func (h *ChatHandler) ChatStream(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := bindChatRequest(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgInvalidBody})
	}

	fragments, err := h.chatService.Stream(ctx, req)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgMessageRequired})
		}
		log.WithCtx(ctx).Error("Error starting chat stream", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: msgChatFailed})
	}

	session := relay.NewSession(relay.NewSSESink(c.Response()))
	err = session.Run(ctx, fragments)
	h.streams.Add(ctx, 1, metric.WithAttributes(attribute.String("state", session.State().String())))

	switch {
	case err == nil:
	case errors.Is(err, domain.ErrTransportAbort):
		log.WithCtx(ctx).Debug("Client left chat stream", zap.String("session_id", session.ID))
	default:
		log.WithCtx(ctx).Error("Error streaming chat", zap.String("session_id", session.ID), zap.Error(err))
	}
	return nil
}

// bindChatRequest decodes the JSON body. An empty body decodes to an empty
// request so it fails message validation rather than JSON parsing.
func bindChatRequest(c echo.Context) (domain.ChatRequest, error) {
	var req domain.ChatRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return domain.ChatRequest{}, err
	}
	return req, nil
}

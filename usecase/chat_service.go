package usecase

import (
	"context"
	"iter"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/satriahrh/contextchat/domain"
	"github.com/satriahrh/contextchat/utils/log"
)

const tracerName = "github.com/satriahrh/contextchat/usecase"

type ChatService struct {
	llm      domain.Llm
	composer *Composer
	tracer   trace.Tracer
}

func NewChatService(gen domain.Llm, composer *Composer) *ChatService {
	return &ChatService{
		llm:      gen,
		composer: composer,
		tracer:   otel.Tracer(tracerName),
	}
}

// Contexts returns the context names currently loaded.
func (s *ChatService) Contexts() []string {
	return s.composer.Contexts()
}

// Prepare validates the request, applies the default context set and
// composes the prompt.
func (s *ChatService) Prepare(ctx context.Context, req domain.ChatRequest) (domain.PromptEnvelope, error) {
	if strings.TrimSpace(req.Message) == "" {
		return domain.PromptEnvelope{}, &domain.ValidationError{Field: "message", Reason: "must not be empty"}
	}
	names := req.ContextNames
	if names == nil {
		names = domain.DefaultContextNames
	}
	return s.composer.Compose(ctx, req.Message, names), nil
}

// Chat answers with one complete reply.
func (s *ChatService) Chat(ctx context.Context, req domain.ChatRequest) (string, error) {
	envelope, err := s.Prepare(ctx, req)
	if err != nil {
		return "", err
	}

	ctx, span := s.tracer.Start(ctx, "chat.complete")
	defer span.End()

	log.WithCtx(ctx).Debug("Sending prompt to model", zap.Int("system_prompt_len", len(envelope.SystemPrompt)))
	reply, err := s.llm.Complete(ctx, envelope)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "complete failed")
		return "", err
	}
	span.SetAttributes(attribute.Int("chat.reply_len", len(reply)))
	log.WithCtx(ctx).Debug("Received reply from model", zap.Int("reply_len", len(reply)))
	return reply, nil
}

// Stream validates the request up front and returns the fragment sequence.
// Nothing is sent to the provider until the sequence is ranged over.
func (s *ChatService) Stream(ctx context.Context, req domain.ChatRequest) (iter.Seq2[string, error], error) {
	envelope, err := s.Prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	return func(yield func(string, error) bool) {
		ctx, span := s.tracer.Start(ctx, "chat.stream")
		defer span.End()

		fragments := 0
		defer func() { span.SetAttributes(attribute.Int("chat.fragments", fragments)) }()

		for text, err := range s.llm.Stream(ctx, envelope) {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "stream failed")
				yield("", err)
				return
			}
			fragments++
			if !yield(text, nil) {
				return
			}
		}
	}, nil
}

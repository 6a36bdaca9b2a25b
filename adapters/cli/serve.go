package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/satriahrh/contextchat/adapters/contextstore"
	chathttp "github.com/satriahrh/contextchat/adapters/http"
	"github.com/satriahrh/contextchat/adapters/llm"
	"github.com/satriahrh/contextchat/adapters/tokenizer"
	"github.com/satriahrh/contextchat/adapters/websocket"
	"github.com/satriahrh/contextchat/config"
	"github.com/satriahrh/contextchat/usecase"
	"github.com/satriahrh/contextchat/utils/log"
	"github.com/satriahrh/contextchat/utils/telemetry"
)

// Version is reported in telemetry resources.
var Version = "dev"

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the chat server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port, _ = cmd.Flags().GetInt("port")
			}
			if cmd.Flags().Changed("context-dir") {
				cfg.ContextDir, _ = cmd.Flags().GetString("context-dir")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().Int("port", config.DefaultPort, "Port to listen on (overrides PORT)")
	cmd.Flags().String("context-dir", config.DefaultContextDir, "Directory of context documents (overrides CONTEXT_DIR)")
	return cmd
}

func serve(ctx context.Context, cfg config.Config) error {
	closeLog := log.Configure(log.Options{Debug: cfg.Debug, File: cfg.LogFile})
	defer closeLog()

	shutdownTelemetry, err := telemetry.Init(ctx, cfg.TraceFile, Version)
	if err != nil {
		return fmt.Errorf("starting telemetry: %w", err)
	}
	defer shutdownTelemetry()

	store := contextstore.Load(ctx, cfg.ContextDir)

	var counter usecase.TokenCounter = tokenizer.Estimate{}
	if cfg.Prompt.MaxContextTokens > 0 {
		tk, err := tokenizer.NewTiktoken(cfg.Prompt.TokenEncoding)
		if err != nil {
			log.With().Warn("Falling back to estimated token counts", zap.Error(err))
		} else {
			counter = tk
		}
	}

	gemini, err := llm.NewGeminiClient(ctx, cfg.LLM)
	if err != nil {
		return fmt.Errorf("creating gemini client: %w", err)
	}
	if cfg.LLM.APIKey == "" {
		log.With().Warn("GEMINI_API_KEY is not set, chat requests will fail")
	}

	svc := usecase.NewChatService(gemini, usecase.NewComposer(store, counter, cfg.Prompt.MaxContextTokens))

	e := chathttp.NewEcho(cfg.BodyLimit)
	api := e.Group("/api")
	chathttp.NewChatHandler(svc).Register(api)
	ws := websocket.NewHandler(svc)
	api.GET("/chat/ws", ws.ChatStream)
	e.Server.RegisterOnShutdown(ws.Shutdown)

	for _, r := range e.Routes() {
		log.With(zap.String("method", r.Method), zap.String("path", r.Path)).Debug("Route")
	}
	log.With(
		zap.Int("port", cfg.Port),
		zap.String("model", cfg.LLM.Model),
		zap.Strings("contexts", store.Names()),
	).Info("Chat server ready")

	return chathttp.Run(ctx, e, cfg.Addr())
}

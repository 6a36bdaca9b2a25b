package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/satriahrh/contextchat/adapters/client"
)

func newAskCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <message>",
		Short: "Send a chat message and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message := strings.Join(args, " ")
			stream, _ := cmd.Flags().GetBool("stream")

			var contextTypes []string
			if cmd.Flags().Changed("context") {
				contextTypes, _ = cmd.Flags().GetStringSlice("context")
				if contextTypes == nil {
					contextTypes = []string{}
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			c := apiClient(cmd)
			if !stream {
				reply, err := c.Send(ctx, message, contextTypes)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), reply)
				return nil
			}
			return streamReply(ctx, cmd, c, message, contextTypes)
		},
	}
	cmd.Flags().Bool("stream", false, "Print the reply as it streams in")
	cmd.Flags().StringSlice("context", nil, "Context groups to include (default: wiki,calendar,discord)")
	return cmd
}

func streamReply(ctx context.Context, cmd *cobra.Command, c *client.Client, message string, contextTypes []string) error {
	out := cmd.OutOrStdout()
	res := c.Stream(ctx, message, contextTypes, client.StreamHandlers{
		OnChunk: func(chunk, _ string) { fmt.Fprint(out, chunk) },
	})
	fmt.Fprintln(out)

	switch res.State {
	case client.Done:
		return nil
	case client.Canceled:
		fmt.Fprintln(cmd.ErrOrStderr(), "canceled")
		return nil
	default:
		return res.Err
	}
}

func newContextsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "contexts",
		Short: "List the context groups loaded by the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := apiClient(cmd).Contexts(cmd.Context())
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
}

func newHealthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the server is up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := apiClient(cmd).Health(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("server is not healthy")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}

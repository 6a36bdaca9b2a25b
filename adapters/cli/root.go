package cli

import (
	"github.com/spf13/cobra"

	"github.com/satriahrh/contextchat/adapters/client"
)

// NewRootCommand builds the contextchat command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "contextchat",
		Short: "Context-augmented chat relay",
		Long: `contextchat serves a chat API that prepends local context documents
to every message before sending it to the model, and relays the answer
back over HTTP, Server-Sent Events or a WebSocket.

Run "contextchat serve" to start the server; the other commands talk to a
running server.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().String("server", client.DefaultBaseURL, "Base URL of the chat API")

	root.AddCommand(
		newServeCommand(),
		newAskCommand(),
		newContextsCommand(),
		newHealthCommand(),
	)
	return root
}

func apiClient(cmd *cobra.Command) *client.Client {
	server, _ := cmd.Flags().GetString("server")
	return client.New(server)
}

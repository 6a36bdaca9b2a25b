package main

import (
	"os"

	"github.com/satriahrh/contextchat/adapters/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

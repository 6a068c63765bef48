// supportctl is the operator CLI for the washing machine support bot.
package main

import (
	"os"

	"github.com/janhvi2806/washing-machine-bot/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

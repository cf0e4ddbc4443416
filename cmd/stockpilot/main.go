// Command stockpilot runs the inventory HTTP API and its maintenance commands.
package main

import (
	"fmt"
	"os"

	"github.com/JonMunkholm/stockpilot/internal/core"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", userError(err))
		os.Exit(1)
	}
}

// userError prefers the mapped user message for known error kinds and falls
// back to the raw error (config, flags, I/O) when nothing matches.
func userError(err error) string {
	if msg := core.MapError(err); msg.Code != "ERR000" {
		return core.FormatUserError(err)
	}
	return err.Error()
}

// Command viewbridge serves view bridge sessions to remote hosts and
// inspects bridge payloads.
package main

import (
	"fmt"
	"os"

	"github.com/go-drift/viewbridge/cmd/viewbridge/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

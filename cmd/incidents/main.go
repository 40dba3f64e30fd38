// Command incidents serves, validates and exports crime incident data.
package main

import (
	"fmt"
	"os"

	"github.com/couchcryptid/incident-data-service/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

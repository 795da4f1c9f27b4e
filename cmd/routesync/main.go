// Command routesync drives, records and replays a navigation history
// synchronized with an application store.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/routesync/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}

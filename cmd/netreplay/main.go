// Command netreplay imports, replays and analyzes network traces.
package main

import (
	"os"

	"github.com/roach88/netreplay/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}

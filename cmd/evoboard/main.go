// Command evoboard evolves board-game strategists with NEAT and inspects the
// resulting runs.
package main

import (
	"fmt"
	"os"

	"github.com/baldhumanity/evoboard/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

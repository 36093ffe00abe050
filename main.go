// The main package for the vlrscrape executable.
package main

import (
	"os"

	"github.com/mshayan3/vlrscrape/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	os.Exit(cmd.Execute())
}

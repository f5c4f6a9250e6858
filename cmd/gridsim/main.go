package main

import (
	"os"

	"github.com/rustyeddy/gridsim/cmd/gridsim/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

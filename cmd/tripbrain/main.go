package main

import (
	"os"

	"github.com/tripbrain-dev/tripbrain/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

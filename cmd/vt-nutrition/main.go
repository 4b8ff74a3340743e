package main

import (
	"os"

	"github.com/bwalsh/vt-nutrition/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

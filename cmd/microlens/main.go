package main

import (
	"os"

	"github.com/damianti/micro-organisms/cmd/microlens/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"os"

	"github.com/rampart-sh/rampart/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"os"

	"github.com/chargesim/chargesim/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

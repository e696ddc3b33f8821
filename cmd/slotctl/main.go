package main

import (
	"os"

	"github.com/slotwise/slotctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

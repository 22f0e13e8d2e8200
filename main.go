package main

import (
	"os"

	"github.com/worawit/triamsob/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

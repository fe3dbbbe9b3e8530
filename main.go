package main

import (
	"os"

	"github.com/heatplan/heatplan/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

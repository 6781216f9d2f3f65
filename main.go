package main

import (
	"os"

	"github.com/wegman-software/tagprep/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"os"

	"github.com/leisambientais/leischat/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"os"

	"tacc/cmd/tacc/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

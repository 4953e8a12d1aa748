package main

import (
	"os"

	"github.com/abhisek/calcbot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

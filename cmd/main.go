package main

import (
	"os"

	"github.com/ericzzh/roomwarden/server/command"
)

func main() {
	if err := command.Execute(); err != nil {
		os.Exit(1)
	}
}

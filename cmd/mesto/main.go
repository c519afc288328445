// Package main is the entry point for the mesto server and CLI.
package main

import (
	"os"

	"github.com/panyam/mesto/cmd/mesto/app"
)

func main() {
	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

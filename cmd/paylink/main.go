// Package main is the entry point for the paylink CLI.
package main

import (
	"os"

	"github.com/mrz1836/paylink/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}

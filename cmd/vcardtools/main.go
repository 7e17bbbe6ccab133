// Package main is the entry point for the vcardtools CLI tool.
package main

import (
	"os"

	"github.com/uncaged-coder/vcardtools/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

// Package main provides the botfrontctl entry point.
package main

import (
	"fmt"
	"os"

	"botfront-infra/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

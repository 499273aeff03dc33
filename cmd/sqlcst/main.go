// Package main provides the sqlcst command.
package main

import (
	"os"

	"github.com/leapstack-labs/sqlcst/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

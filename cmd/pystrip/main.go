// Command pystrip removes comments and docstrings from Python code.
package main

import (
	"context"
	"os"

	"github.com/jrandolf/pystrip/internal/cli"
)

func main() {
	if err := cli.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}

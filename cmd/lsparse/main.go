package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Ning0612/lsparse/internal/cli/commands"
)

func main() {
	err := commands.Run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	if err != nil && commands.ExitCode(err) != 2 {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(commands.ExitCode(err))
}

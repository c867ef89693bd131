// log2what writes records through a configured logger and inspects rotated log files.
//
// Usage:
//
//	log2what [global options] <command> [command options]
//
// Commands:
//
//	write <comment> [data...]   write one record through the configured sinks
//	generations                 list the generation files of a log, oldest first
//
// Exit codes:
//
//	0: success
//	1: command failed
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

// Version can be set with -ldflags "-X main.Version=1.0.0"
var Version = "0.1.0-dev"

func main() {
	os.Exit(run(os.Args))
}

// createApp creates the CLI application.
func createApp() *cli.Command {
	return &cli.Command{
		Name:     "log2what",
		Usage:    "write and inspect log2what logs",
		Version:  Version,
		Commands: createCommands(),
		// Exit codes are mapped by run
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	}
}

func run(args []string) int {
	app := createApp()
	if err := app.Run(context.Background(), args); err != nil {
		fmt.Fprintf(os.Stderr, "log2what: %v\n", err)
		return 1
	}
	return 0
}

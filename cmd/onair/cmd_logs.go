package main

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/five82/onair/internal/logtail"
)

type LogsCmd struct {
	flags *Flags

	lines int
	raw   bool
}

// NewLogsCmd creates the log tail command.
func NewLogsCmd(flags *Flags) *LogsCmd {
	return &LogsCmd{flags: flags}
}

// Register adds the logs command to the application.
func (cmd *LogsCmd) Register(root *cli.Command) *cli.Command {
	root.Commands = append(root.Commands, &cli.Command{
		Name:      "logs",
		Usage:     "Print the end of the onair log file",
		UsageText: "onair logs [options]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "lines",
				Aliases:     []string{"n"},
				Usage:       "number of lines to show",
				Value:       50,
				Destination: &cmd.lines,
			},
			&cli.BoolFlag{
				Name:        "raw",
				Usage:       "print JSON lines as written",
				Destination: &cmd.raw,
			},
		},
		Action: cmd.run,
	})
	return root
}

func (cmd *LogsCmd) run(_ context.Context, c *cli.Command) error {
	return printLogs(c.Root().Writer, cmd.flags.Config.Log.File, cmd.lines, cmd.raw)
}

func printLogs(out io.Writer, path string, n int, raw bool) error {
	if path == "" {
		return fmt.Errorf("no log file configured")
	}
	lines, err := logtail.Read(path, n)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		_, err := fmt.Fprintf(out, "No log entries in %s\n", path)
		return err
	}
	if !raw {
		lines = logtail.FormatLines(lines)
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/five82/onair/internal/app"
	"github.com/five82/onair/internal/history"
)

type HistoryCmd struct {
	flags *Flags

	limit  int
	format string
}

// NewHistoryCmd creates a new history command.
func NewHistoryCmd(flags *Flags) *HistoryCmd {
	return &HistoryCmd{flags: flags}
}

// Register adds the history command to the application.
func (cmd *HistoryCmd) Register(root *cli.Command) *cli.Command {
	root.Commands = append(root.Commands, &cli.Command{
		Name:      "history",
		Usage:     "Print recorded tracks, newest first",
		UsageText: "onair history [options]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "limit",
				Aliases:     []string{"n"},
				Usage:       "show at most N tracks (0 for all)",
				Value:       20,
				Destination: &cmd.limit,
			},
			&cli.StringFlag{
				Name:        "format",
				Aliases:     []string{"f"},
				Usage:       "output format (table, json, yaml)",
				Value:       "table",
				Destination: &cmd.format,
			},
		},
		Action: cmd.run,
	})
	return root
}

func (cmd *HistoryCmd) run(ctx context.Context, c *cli.Command) error {
	store, err := app.OpenStore(ctx, cmd.flags.Config, log.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	records, err := store.List(ctx, cmd.limit)
	if err != nil {
		return fmt.Errorf("list history: %w", err)
	}
	return writeHistory(c.Root().Writer, records, cmd.format, time.Now())
}

func writeHistory(out io.Writer, records []history.Record, format string, now time.Time) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "table":
		return writeHistoryTable(out, records, now)
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if records == nil {
			records = []history.Record{}
		}
		return enc.Encode(records)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want table, json or yaml)", format)
	}
}

func writeHistoryTable(out io.Writer, records []history.Record, now time.Time) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(out, "No tracks recorded yet")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTITLE\tARTIST\tPLAYED")
	for _, r := range records {
		title := r.Title
		if len(title) > 50 {
			title = title[:47] + "..."
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s (%s)\n",
			r.ID,
			title,
			r.Artist,
			r.Timestamp.Local().Format("2006-01-02 15:04:05"),
			humanize.RelTime(r.Timestamp, now, "ago", "from now"),
		)
	}
	return w.Flush()
}

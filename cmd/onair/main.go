package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/five82/onair/internal/app"
	"github.com/five82/onair/internal/radio"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	short := commit
	if len(commit) > 7 {
		short = commit[:7]
	}
	return fmt.Sprintf("%s (%s) %s", version, short, date)
}

func main() {
	os.Exit(run())
}

func run() int {
	if _, err := setupLogger("info", "", false); err != nil {
		fmt.Fprintf(os.Stderr, "onair: %v\n", err)
		return 1
	}
	radio.UserAgent = "onair/" + version

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	flags := &Flags{}
	defer func() { _ = flags.Close() }()
	cmd := newApp(flags)
	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "onair: %v\n", err)
		return 1
	}
	return 0
}

func newApp(flags *Flags) *cli.Command {
	cmd := &cli.Command{
		Name:      "onair",
		Usage:     "Track what a web radio station is playing",
		UsageText: "onair [global options] [command [command options]]",
		Description: `onair polls the station's "now playing" endpoint, records every new
track in a local history and shows it in a terminal UI.

Run 'onair' with no arguments to open the interactive view.
Run 'onair watch' to poll without a UI, for example under a service manager.`,
		Version: build(),
		Flags:   flags.global(),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			mode := modeOneShot
			switch {
			case c.Args().Len() == 0:
				mode = modeTUI
			case c.Args().First() == "watch":
				mode = modeWatch
			}
			return ctx, flags.load(mode)
		},
	}

	cmd = NewWatchCmd(flags).Register(cmd)
	cmd = NewHistoryCmd(flags).Register(cmd)
	cmd = NewNowCmd(flags).Register(cmd)
	cmd = NewLogsCmd(flags).Register(cmd)

	cmd.Action = func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() > 0 {
			return fmt.Errorf("unknown command %q. Run 'onair --help' for usage", c.Args().First())
		}
		return app.Run(ctx, app.Options{
			Config:    flags.Config,
			PrefsPath: flags.PrefsPath,
			Logger:    log.Logger,
		})
	}
	return cmd
}

// setupLogger points the global zerolog logger at the right sink. The TUI
// owns the terminal, so in that mode logs go to the file only, as JSON.
// Otherwise logs go to the console, and also to logFile when one is given.
// The returned closer releases the log file, if one was opened.
func setupLogger(level string, logFile string, tui bool) (io.Closer, error) {
	parsedLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("failed to parse log level: %w", err)
	}

	var (
		output io.Writer = zerolog.ConsoleWriter{Out: os.Stderr}
		closer io.Closer = nopCloser{}
	)
	if tui {
		output = io.Discard
	}

	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		closer = file
		if tui {
			output = file
		} else {
			output = io.MultiWriter(zerolog.ConsoleWriter{Out: os.Stderr}, file)
		}
	}

	log.Logger = zerolog.New(output).Level(parsedLevel).With().Timestamp().Logger()
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

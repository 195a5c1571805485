package main

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/five82/onair/internal/app"
	"github.com/five82/onair/internal/state"
)

type WatchCmd struct {
	flags *Flags
}

// NewWatchCmd creates the headless polling command.
func NewWatchCmd(flags *Flags) *WatchCmd {
	return &WatchCmd{flags: flags}
}

// Register adds the watch command to the application.
func (cmd *WatchCmd) Register(root *cli.Command) *cli.Command {
	root.Commands = append(root.Commands, &cli.Command{
		Name:      "watch",
		Usage:     "Poll and record tracks without the UI",
		UsageText: "onair watch",
		Description: `Runs the poller in the foreground and logs every status change.

Tracks are recorded exactly as in the interactive view. Stop with Ctrl+C.`,
		Action: cmd.run,
	})
	return root
}

func (cmd *WatchCmd) run(ctx context.Context, _ *cli.Command) error {
	logger := log.With().Str("component", "watch").Logger()

	eng, err := app.NewEngine(ctx, cmd.flags.Config, log.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	logger.Info().
		Str("api", eng.Client.BaseURL()).
		Str("store", cmd.flags.Config.Store.Driver).
		Str("path", cmd.flags.Config.Store.Path).
		Msg("watching")

	err = app.Watch(ctx, eng, func(s state.Snapshot) {
		evt := logger.Info()
		if s.Status.Kind() == state.KindError {
			evt = logger.Warn()
		}
		evt.Stringer("status", s.Status).Uint64("seq", s.Seq)
		if s.LastError != nil {
			evt = evt.AnErr("cause", s.LastError)
		}
		evt.Msg("status")
	})

	stats := eng.Poller.Stats()
	logger.Info().
		Int64("iterations", stats.Iterations).
		Int64("appended", stats.Appended).
		Int64("store_failures", stats.StoreFailures).
		Msg("stopped")

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

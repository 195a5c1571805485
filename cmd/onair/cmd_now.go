package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/five82/onair/internal/app"
)

type NowCmd struct {
	flags *Flags

	picture bool
}

// NewNowCmd creates the one-shot "what is playing" command.
func NewNowCmd(flags *Flags) *NowCmd {
	return &NowCmd{flags: flags}
}

// Register adds the now command to the application.
func (cmd *NowCmd) Register(root *cli.Command) *cli.Command {
	root.Commands = append(root.Commands, &cli.Command{
		Name:      "now",
		Usage:     "Show the track playing right now",
		UsageText: "onair now [options]",
		Description: `Fetches the current track once and prints it.

Nothing is recorded; use 'onair watch' or the interactive view for that.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "picture",
				Aliases:     []string{"p"},
				Usage:       "also print the cover picture URL",
				Destination: &cmd.picture,
			},
		},
		Action: cmd.run,
	})
	return root
}

func (cmd *NowCmd) run(ctx context.Context, c *cli.Command) error {
	client, err := app.NewClient(cmd.flags.Config)
	if err != nil {
		return err
	}

	track, err := client.FetchCurrentTrack(ctx)
	if err != nil {
		return fmt.Errorf("fetch current track: %w", err)
	}

	out := c.Root().Writer
	_, _ = fmt.Fprintf(out, "%s\n", track)

	if cmd.picture {
		url, err := client.FetchSongPicture(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("fetch song picture failed")
			return nil
		}
		_, _ = fmt.Fprintf(out, "picture: %s\n", url)
	}
	return nil
}

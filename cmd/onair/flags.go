package main

import (
	"fmt"
	"io"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/five82/onair/internal/config"
	"github.com/five82/onair/internal/prefs"
)

type runMode int

const (
	modeOneShot runMode = iota
	modeWatch
	modeTUI
)

// Flags holds global flag values and the config resolved from them.
type Flags struct {
	ConfigPath   string
	PrefsPath    string
	LogLevel     string
	LogFile      string
	Poll         time.Duration
	AssumeOnline bool

	// Config is loaded in the Before hook and available to all commands.
	Config config.Config

	logCloser io.Closer
}

func (f *Flags) global() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "path to config file",
			Sources:     cli.EnvVars("ONAIR_CONFIG"),
			Value:       config.DefaultPath(),
			Destination: &f.ConfigPath,
		},
		&cli.StringFlag{
			Name:        "prefs",
			Usage:       "path to UI preferences file",
			Sources:     cli.EnvVars("ONAIR_PREFS"),
			Value:       prefs.DefaultPath(),
			Destination: &f.PrefsPath,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error); overrides the config file",
			Sources:     cli.EnvVars("ONAIR_LOG_LEVEL"),
			Destination: &f.LogLevel,
		},
		&cli.StringFlag{
			Name:        "log-file",
			Usage:       "path to log file; overrides the config file",
			Sources:     cli.EnvVars("ONAIR_LOG_FILE"),
			Destination: &f.LogFile,
		},
		&cli.DurationFlag{
			Name:        "poll",
			Usage:       "pause between polls, e.g. 20s; overrides the config file",
			Sources:     cli.EnvVars("ONAIR_POLL"),
			Destination: &f.Poll,
		},
		&cli.BoolFlag{
			Name:        "assume-online",
			Usage:       "skip the network interface check",
			Sources:     cli.EnvVars("ONAIR_ASSUME_ONLINE"),
			Destination: &f.AssumeOnline,
		},
	}
}

// load reads the config file, applies flag overrides and sets up logging
// for the given mode.
func (f *Flags) load(mode runMode) error {
	cfg, err := config.Load(f.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := f.apply(&cfg); err != nil {
		return err
	}
	f.Config = cfg

	logFile := ""
	if mode != modeOneShot {
		logFile = cfg.Log.File
	}
	closer, err := setupLogger(cfg.Log.Level, logFile, mode == modeTUI)
	if err != nil {
		return err
	}
	_ = f.Close()
	f.logCloser = closer
	return nil
}

// Close releases the log file opened by load.
func (f *Flags) Close() error {
	if f.logCloser == nil {
		return nil
	}
	err := f.logCloser.Close()
	f.logCloser = nil
	return err
}

func (f *Flags) apply(cfg *config.Config) error {
	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
	if f.LogFile != "" {
		path, err := config.ExpandPath(f.LogFile)
		if err != nil {
			return fmt.Errorf("log file: %w", err)
		}
		cfg.Log.File = path
	}
	if f.Poll > 0 {
		cfg.PollInterval = f.Poll
	}
	if f.AssumeOnline {
		cfg.AssumeOnline = true
	}
	return cfg.Validate()
}

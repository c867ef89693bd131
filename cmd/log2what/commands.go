package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/lixenwraith/log2what"
	"github.com/lixenwraith/log2what/dbwriter"
)

// createCommands creates all subcommands.
func createCommands() []*cli.Command {
	return []*cli.Command{
		createWriteCommand(),
		createGenerationsCommand(),
	}
}

func createWriteCommand() *cli.Command {
	return &cli.Command{
		Name:      "write",
		Usage:     "write one record through the configured sinks",
		ArgsUsage: "<comment> [data...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "TOML file with a [log2what] table",
			},
			&cli.StringSliceFlag{
				Name:    "set",
				Aliases: []string{"s"},
				Usage:   "configuration override, key=value (repeatable)",
			},
			&cli.StringFlag{
				Name:    "level",
				Aliases: []string{"l"},
				Usage:   "record level: trace, debug, info, warn, error",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "module",
				Aliases: []string{"m"},
				Usage:   "module name, overrides the configuration",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() == 0 {
				return fmt.Errorf("write: missing comment")
			}
			level, err := log2what.ParseLevel(cmd.String("level"))
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd.String("config"), cmd.StringSlice("set"))
			if err != nil {
				return err
			}
			if m := cmd.String("module"); m != "" {
				cfg.Module = m
			}

			logger, err := buildLogger(cfg)
			if err != nil {
				return err
			}
			args := cmd.Args().Slice()
			data := make([]any, 0, len(args)-1)
			for _, a := range args[1:] {
				data = append(data, a)
			}
			logger.Log(level, args[0], data...)
			return logger.Close()
		},
	}
}

func createGenerationsCommand() *cli.Command {
	return &cli.Command{
		Name:    "generations",
		Aliases: []string{"gen"},
		Usage:   "list the generation files of a log, oldest first",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Usage:   "log directory",
				Value:   "./log/",
			},
			&cli.StringFlag{
				Name:    "name",
				Aliases: []string{"n"},
				Usage:   "base name of the log",
				Value:   "root",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			gens, err := log2what.ListGenerations(cmd.String("dir"), cmd.String("name"))
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.Root().Writer, 0, 4, 2, ' ', 0)
			for _, g := range gens {
				created := "-"
				if t, errTime := log2what.GenerationTime(cmd.String("name"), g.Name); errTime == nil {
					created = t.Format("2006-01-02 15:04:05.000")
				}
				fmt.Fprintf(tw, "%s\t%d\t%s\n", g.Name, g.Size, created)
			}
			return tw.Flush()
		},
	}
}

// loadConfig reads path, if given, and applies the overrides
func loadConfig(path string, overrides []string) (*log2what.Config, error) {
	cfg := log2what.DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = log2what.NewConfigFromFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyOverride(overrides...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildLogger assembles a logger from cfg, adding the database sink when enabled
func buildLogger(cfg *log2what.Config) (*log2what.Logger, error) {
	if cfg.InternalErrorsToStderr {
		log2what.DefaultRegistry().SetInternalErrors(os.Stderr)
	}
	b := log2what.NewBuilder().Config(cfg)
	var db *dbwriter.Writer
	if cfg.EnableDB {
		dbCfg := dbwriter.DefaultConfig()
		dbCfg.Driver = cfg.DBDriver
		dbCfg.URL = cfg.DBURL
		dbCfg.BatchSize = int(cfg.DBBatchSize)
		dbCfg.FlushInterval = time.Duration(cfg.DBFlushIntervalMs) * time.Millisecond
		dbCfg.KeepAlive = cfg.DBKeepAlive
		if cfg.InternalErrorsToStderr {
			dbCfg.Diagnostics = log2what.NewStreamWriter(os.Stderr)
		}
		var err error
		if db, err = dbwriter.Open(dbCfg); err != nil {
			return nil, err
		}
		b.Writer(db)
	}
	l, err := b.Build()
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, err
	}
	return l, nil
}

package main

import (
	"context"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	"github.com/LudovicGuerra/ifrit-enhanced/internal/logger"
	"github.com/LudovicGuerra/ifrit-enhanced/internal/reftable"
)

var (
	dataDir    string
	outputDir  string
	refTables  string
	workers    int64
	reencodeAI bool
	logLevel   string
	logFormat  string
	debug      bool
	noColor    bool
)

func rootFlags() []cli.Flag {
	return append([]cli.Flag{
		&cli.StringFlag{
			Name:        "data-dir",
			Aliases:     []string{"d"},
			Usage:       "directory holding c0m###.dat files",
			Destination: &dataDir,
		},
		&cli.StringFlag{
			Name:        "ref-tables",
			Usage:       "reference table override (.json, .yaml or .toml)",
			Destination: &refTables,
		},
		&cli.BoolFlag{
			Name:        "no-color",
			Usage:       "disable coloured output",
			Destination: &noColor,
		},
	}, loggingFlags()...)
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

func outputFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:        "out",
		Aliases:     []string{"o"},
		Usage:       "output directory",
		Value:       "out",
		Destination: &outputDir,
	}
}

func workersFlag() *cli.Int64Flag {
	return &cli.Int64Flag{
		Name:        "workers",
		Aliases:     []string{"j"},
		Usage:       "files processed at once (0 = GOMAXPROCS)",
		Destination: &workers,
	}
}

func reencodeAIFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:        "reencode-ai",
		Usage:       "assemble the AI program and relocate the file around it",
		Destination: &reencodeAI,
	}
}

// setup applies the config file and installs the logger.
func setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg = LoadConfig()
	applyRootConfig(cmd, cfg)
	if noColor {
		color.NoColor = true
	}
	level := logLevel
	if debug {
		level = "debug"
	}
	lvl, err := logger.ParseLevel(level)
	if err != nil {
		return ctx, err
	}
	log, err := logger.Open(os.Stderr, logFormat, lvl)
	if err != nil {
		return ctx, err
	}
	return logger.WithContext(ctx, log), nil
}

func loadTables() (*reftable.Tables, error) {
	if refTables == "" {
		return reftable.Default(), nil
	}
	return reftable.Load(refTables)
}

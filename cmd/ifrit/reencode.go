package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/LudovicGuerra/ifrit-enhanced/internal/batch"
	"github.com/LudovicGuerra/ifrit-enhanced/internal/logger"
)

func reencodeCmd() *cli.Command {
	return &cli.Command{
		Name:      "reencode",
		Usage:     "Decode and re-encode monster files into an output directory",
		ArgsUsage: "[file or directory ...]",
		Flags: []cli.Flag{
			outputFlag(),
			workersFlag(),
			reencodeAIFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyReencodeConfig(cmd, cfg)
			log := logger.FromContext(ctx)

			paths, err := resolveInputs(cmd.Args().Slice(), batch.Discover)
			if err != nil {
				return err
			}
			tables, err := loadTables()
			if err != nil {
				return err
			}
			report, err := batch.Run(ctx, paths, batch.Options{Workers: int(workers), Log: log},
				batch.Reencode(tables, outputDir, reencodeAI))
			if err != nil {
				return err
			}
			return report.Err()
		},
	}
}

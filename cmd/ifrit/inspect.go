package main

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/LudovicGuerra/ifrit-enhanced/internal/monster"
)

func inspectCmd() *cli.Command {
	var (
		withAI bool
		names  bool
		field  string
	)

	return &cli.Command{
		Name:      "inspect",
		Usage:     "Print a monster file as JSON",
		ArgsUsage: "<c0m###.dat>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "ai",
				Usage:       "include the disassembled AI program",
				Destination: &withAI,
			},
			&cli.BoolFlag{
				Name:        "names",
				Aliases:     []string{"n"},
				Usage:       "add the item, ability, card and resistance names",
				Destination: &names,
			},
			&cli.StringFlag{
				Name:        "field",
				Aliases:     []string{"f"},
				Usage:       "print a single stat field",
				Destination: &field,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			r, err := openRecord(cmd.Args().First(), withAI)
			if err != nil {
				return err
			}
			v, err := inspectValue(r, field, names)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(v, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(os.Stdout, string(out))
			return err
		},
	}
}

// inspectValue picks what inspect prints: one field, the record with its
// resolved names, or the bare record.
func inspectValue(r *monster.Record, field string, names bool) (any, error) {
	switch {
	case field != "":
		return r.Field(field)
	case names:
		return monster.Resolved{Record: r, Names: r.Names()}, nil
	default:
		return r, nil
	}
}

func openRecord(arg string, withAI bool) (*monster.Record, error) {
	path, err := resolveFile(arg)
	if err != nil {
		return nil, err
	}
	tables, err := loadTables()
	if err != nil {
		return nil, err
	}
	return monster.Open(path, tables, monster.DecodeOptions{AI: withAI})
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/LudovicGuerra/ifrit-enhanced/internal/ai"
)

func disasmCmd() *cli.Command {
	var asJSON bool

	return &cli.Command{
		Name:      "disasm",
		Usage:     "Print the AI program of a monster file",
		ArgsUsage: "<c0m###.dat>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "print the program as JSON instead of a listing",
				Destination: &asJSON,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			r, err := openRecord(cmd.Args().First(), true)
			if err != nil {
				return err
			}
			if asJSON {
				out, err := json.MarshalIndent(r.AI, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(os.Stdout, string(out))
				return err
			}
			tables, err := loadTables()
			if err != nil {
				return err
			}
			lines, err := ai.Listing(r.AI, tables, r.Texts)
			if err != nil {
				return err
			}
			return writeColorListing(os.Stdout, lines)
		},
	}
}

var (
	blockColor    = color.New(color.FgYellow, color.Bold)
	offsetColor   = color.New(color.FgHiBlack)
	mnemonicColor = color.New(color.FgCyan)
)

// writeColorListing is ai.WriteListing with highlighted block names and
// mnemonics.
func writeColorListing(w io.Writer, lines []ai.Line) error {
	block := ""
	for _, l := range lines {
		if l.Block != block {
			block = l.Block
			if _, err := fmt.Fprintln(w, blockColor.Sprint(block+":")); err != nil {
				return err
			}
		}
		hex := make([]string, len(l.Bytes))
		for i, b := range l.Bytes {
			hex[i] = fmt.Sprintf("%02X", b)
		}
		_, err := fmt.Fprintf(w, "  %s  %-24s %s %s\n",
			offsetColor.Sprintf("%04X", l.Offset),
			strings.Join(hex, " "),
			mnemonicColor.Sprintf("%-16s", l.Mnemonic),
			l.Args)
		if err != nil {
			return err
		}
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/LudovicGuerra/ifrit-enhanced/internal/logger"
	"github.com/LudovicGuerra/ifrit-enhanced/internal/monster"
)

func applyCmd() *cli.Command {
	var out string

	return &cli.Command{
		Name:      "apply",
		Usage:     "Apply a JSON patch to a monster file",
		ArgsUsage: "<c0m###.dat> <patch.json>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "output file (default: overwrite the input)",
				Destination: &out,
			},
			reencodeAIFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			if cmd.Args().Len() != 2 {
				return errors.New("apply needs a monster file and a patch file")
			}
			if cfg.ReencodeAI != nil && !cmd.IsSet("reencode-ai") {
				reencodeAI = *cfg.ReencodeAI
			}
			patch, err := os.ReadFile(cmd.Args().Get(1))
			if err != nil {
				return err
			}
			path, err := resolveFile(cmd.Args().First())
			if err != nil {
				return err
			}
			if out == "" {
				out = path
			}
			return applyPatch(path, out, patch, reencodeAI, log)
		},
	}
}

var errAINeedsReencode = errors.New("ai edits need --reencode-ai")

func patchTouchesAI(patch []byte) (bool, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(patch, &keys); err != nil {
		return false, fmt.Errorf("patch: %w", err)
	}
	_, ok := keys["ai"]
	return ok, nil
}

// applyPatch rewrites in to out. A patch carrying an "ai" key is refused
// unless withAI is set.
func applyPatch(in, out string, patch []byte, withAI bool, log logger.Logger) error {
	editsAI, err := patchTouchesAI(patch)
	if err != nil {
		return err
	}
	if editsAI && !withAI {
		return errAINeedsReencode
	}
	tables, err := loadTables()
	if err != nil {
		return err
	}
	r, err := monster.Open(in, tables, monster.DecodeOptions{AI: withAI})
	if err != nil {
		return err
	}
	log = logger.WithFile(log, r.Label)
	before := r.Header.FileSize
	if err := r.ApplyJSON(patch); err != nil {
		return err
	}
	data, err := r.Encode(monster.EncodeOptions{ReencodeAI: withAI})
	if err != nil {
		return err
	}
	if err := writeFileAtomic(out, data); err != nil {
		return err
	}
	log.Info("patched", "out", out, "size_before", before, "size_after", len(data))
	return nil
}

// writeFileAtomic writes through a temp file in the target directory so the
// input can be replaced in place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return err
	}
	return os.Rename(name, path)
}

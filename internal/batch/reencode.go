package batch

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"github.com/LudovicGuerra/ifrit-enhanced/internal/logger"
	"github.com/LudovicGuerra/ifrit-enhanced/internal/monster"
	"github.com/LudovicGuerra/ifrit-enhanced/internal/reftable"
)

// Reencode returns a Func that decodes each file, encodes it back and writes
// the result under outDir with the same base name. With reencodeAI the AI
// program goes through the assembler and relocation as well.
func Reencode(tables *reftable.Tables, outDir string, reencodeAI bool) Func {
	return func(ctx context.Context, path string, log logger.Logger) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		r, err := monster.Open(path, tables, monster.DecodeOptions{AI: reencodeAI})
		if err != nil {
			return err
		}
		orig := r.Bytes()
		out, err := r.Encode(monster.EncodeOptions{ReencodeAI: reencodeAI})
		if err != nil {
			return err
		}
		if !bytes.Equal(orig, out) {
			log.Warn("re-encoded file differs", "before", len(orig), "after", len(out))
		}
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(outDir, r.Label), out, 0o644)
	}
}

package monster

import (
	"path/filepath"

	"github.com/LudovicGuerra/ifrit-enhanced/internal/reftable"
	"github.com/LudovicGuerra/ifrit-enhanced/pkg/dat"
)

// Open maps the file at path and decodes it. The record is labelled with the
// file's base name and holds its own copy of the bytes, so the mapping is
// released before Open returns.
func Open(path string, tables *reftable.Tables, opts DecodeOptions) (*Record, error) {
	f, err := dat.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return Decode(filepath.Base(path), f.Data, tables, opts)
}

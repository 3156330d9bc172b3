// Package combattext reads and writes the battle-text table of the battle
// script section: a table of little-endian u16 pointers followed by
// NUL-terminated menu-font strings.
package combattext

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/LudovicGuerra/ifrit-enhanced/internal/fftext"
	"github.com/LudovicGuerra/ifrit-enhanced/pkg/dat"
)

// MaxTextLen caps the scan for a string terminator.
const MaxTextLen = 100

const pointerSize = 2

var ErrTableOverflow = errors.New("combattext: table does not fit u16 pointers")

// Decode returns the strings addressed by the pointer table of a battle
// script section. A zero pointer after the first slot ends the table, and an
// empty first string means the monster has no text.
func Decode(section []byte, sh dat.ScriptHeader) ([]string, error) {
	if err := sh.Validate(len(section)); err != nil {
		return nil, err
	}
	table := section[sh.TextOffset:sh.TextSub]
	pool := section[sh.TextSub:]

	texts := []string{}
	for i := 0; i+pointerSize <= len(table); i += pointerSize {
		ptr := binary.LittleEndian.Uint16(table[i : i+pointerSize])
		if i > 0 && ptr == 0 {
			break
		}
		raw := scan(pool, int(ptr))
		if len(raw) == 0 && i == 0 {
			return []string{}, nil
		}
		texts = append(texts, fftext.Decode(raw))
	}
	return texts, nil
}

// scan returns the bytes at pool[start:] up to the first 0x00, the end of
// the pool or MaxTextLen bytes, whichever comes first.
func scan(pool []byte, start int) []byte {
	if start >= len(pool) {
		return nil
	}
	end := min(len(pool), start+MaxTextLen)
	for i := start; i < end; i++ {
		if pool[i] == 0 {
			return pool[start:i]
		}
	}
	return pool[start:end]
}

// Encode builds the pointer table followed by the strings, each terminated
// by a single 0x00. It returns the whole table and the pointer table length.
func Encode(texts []string) ([]byte, int, error) {
	ptrLen := len(texts) * pointerSize
	pointers := make([]byte, ptrLen)
	var pool []byte
	for i, s := range texts {
		if len(pool) > math.MaxUint16 {
			return nil, 0, fmt.Errorf("%w: text %d starts at %d", ErrTableOverflow, i, len(pool))
		}
		binary.LittleEndian.PutUint16(pointers[i*pointerSize:], uint16(len(pool)))
		raw, err := fftext.Encode(s)
		if err != nil {
			return nil, 0, fmt.Errorf("text %d: %w", i, err)
		}
		pool = append(pool, raw...)
		pool = append(pool, 0)
	}
	return append(pointers, pool...), ptrLen, nil
}

// Rewrite replaces the text table of buf, from offset_text_offset to the end
// of the battle script section, with the encoding of texts. Later sections
// move by the size difference. buf is not modified.
func Rewrite(buf []byte, h dat.Header, sh dat.ScriptHeader, texts []string) ([]byte, dat.Header, dat.ScriptHeader, error) {
	table, ptrLen, err := Encode(texts)
	if err != nil {
		return nil, dat.Header{}, dat.ScriptHeader{}, err
	}
	start, end, err := h.Range(dat.SectionBattleScript)
	if err != nil {
		return nil, dat.Header{}, dat.ScriptHeader{}, err
	}
	if err := sh.Validate(int(end - start)); err != nil {
		return nil, dat.Header{}, dat.ScriptHeader{}, err
	}

	out, nh, err := dat.Splice(buf, h, dat.SectionBattleScript, int(start+sh.TextOffset), int(end), table)
	if err != nil {
		return nil, dat.Header{}, dat.ScriptHeader{}, err
	}
	nsh := sh
	nsh.TextSub = sh.TextOffset + uint32(ptrLen)
	sec, err := dat.SectionBytes(out, nh, dat.SectionBattleScript)
	if err != nil {
		return nil, dat.Header{}, dat.ScriptHeader{}, err
	}
	if err := nsh.Put(sec); err != nil {
		return nil, dat.Header{}, dat.ScriptHeader{}, err
	}
	return out, nh, nsh, nil
}

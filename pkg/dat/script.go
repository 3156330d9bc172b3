package dat

import "encoding/binary"

// ScriptHeaderSize is the size of the battle script sub-header.
const ScriptHeaderSize = 16

// ScriptHeader is the sub-header at the start of the battle script section.
// All offsets are relative to the start of that section.
type ScriptHeader struct {
	SubCount   uint32 `json:"battle_nb_sub"`
	AISub      uint32 `json:"offset_ai_sub"`
	TextOffset uint32 `json:"offset_text_offset"`
	TextSub    uint32 `json:"offset_text_sub"`
}

func DecodeScriptHeader(section []byte) (ScriptHeader, error) {
	if len(section) < ScriptHeaderSize {
		return ScriptHeader{}, Errorf(ErrTruncated, "battle script needs %d header bytes, have %d", ScriptHeaderSize, len(section))
	}
	return ScriptHeader{
		SubCount:   binary.LittleEndian.Uint32(section[0:4]),
		AISub:      binary.LittleEndian.Uint32(section[4:8]),
		TextOffset: binary.LittleEndian.Uint32(section[8:12]),
		TextSub:    binary.LittleEndian.Uint32(section[12:16]),
	}, nil
}

// Put writes the sub-header at the start of section.
func (sh ScriptHeader) Put(section []byte) error {
	if len(section) < ScriptHeaderSize {
		return Errorf(ErrTruncated, "battle script needs %d header bytes, have %d", ScriptHeaderSize, len(section))
	}
	binary.LittleEndian.PutUint32(section[0:4], sh.SubCount)
	binary.LittleEndian.PutUint32(section[4:8], sh.AISub)
	binary.LittleEndian.PutUint32(section[8:12], sh.TextOffset)
	binary.LittleEndian.PutUint32(section[12:16], sh.TextSub)
	return nil
}

// Validate checks AISub <= TextOffset <= TextSub <= size.
func (sh ScriptHeader) Validate(size int) error {
	if sh.AISub < ScriptHeaderSize {
		return Errorf(ErrOffsetOutOfBounds, "ai sub-section at %d overlaps the script header", sh.AISub)
	}
	if sh.TextOffset < sh.AISub || sh.TextSub < sh.TextOffset || uint64(sh.TextSub) > uint64(size) {
		return Errorf(ErrOffsetOutOfBounds, "ai=%d text_offset=%d text_sub=%d in a %d byte section",
			sh.AISub, sh.TextOffset, sh.TextSub, size)
	}
	return nil
}

// PointerTableLen is the byte length of the combat-text pointer table.
func (sh ScriptHeader) PointerTableLen() uint32 {
	return sh.TextSub - sh.TextOffset
}

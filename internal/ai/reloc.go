package ai

import (
	"math"

	"github.com/LudovicGuerra/ifrit-enhanced/internal/reftable"
	"github.com/LudovicGuerra/ifrit-enhanced/pkg/dat"
)

// Relocate assembles p and writes it over the AI code of buf.
//
// The combat-text pointer table and strings keep their bytes and move with
// the end of the code. offset_text_offset and offset_text_sub follow them,
// sections after the battle script shift by the length difference and the
// file size grows or shrinks accordingly. buf is never modified; the new
// file is returned with its header and script header.
func Relocate(buf []byte, h dat.Header, sh dat.ScriptHeader, p *Program, tables *reftable.Tables) ([]byte, dat.Header, dat.ScriptHeader, error) {
	code, offs, err := Assemble(p, tables)
	if err != nil {
		return nil, dat.Header{}, dat.ScriptHeader{}, err
	}

	secStart, secEnd, err := h.Range(dat.SectionBattleScript)
	if err != nil {
		return nil, dat.Header{}, dat.ScriptHeader{}, err
	}
	if uint64(secEnd) > uint64(len(buf)) {
		return nil, dat.Header{}, dat.ScriptHeader{}, dat.Errorf(dat.ErrRelocationInconsistent,
			"battle script ends at %d, buffer holds %d bytes", secEnd, len(buf))
	}
	if err := sh.Validate(int(secEnd - secStart)); err != nil {
		return nil, dat.Header{}, dat.ScriptHeader{}, err
	}

	oldLen := uint64(sh.TextOffset - sh.AISub)
	if uint64(p.Start) > oldLen {
		return nil, dat.Header{}, dat.ScriptHeader{}, dat.Errorf(dat.ErrRelocationInconsistent,
			"init block at %d past the %d byte ai sub-section", p.Start, oldLen)
	}
	newLen := uint64(p.Start) + uint64(len(code))
	ptrLen := uint64(sh.PointerTableLen())
	if uint64(sh.AISub)+newLen+ptrLen > math.MaxUint32 {
		return nil, dat.Header{}, dat.ScriptHeader{}, dat.Errorf(dat.ErrRelocationInconsistent,
			"ai sub-section of %d bytes does not fit", newLen)
	}

	aiStart := int(secStart) + int(sh.AISub)
	out, nh, err := dat.Splice(buf, h, dat.SectionBattleScript, aiStart+int(p.Start), int(secStart)+int(sh.TextOffset), code)
	if err != nil {
		return nil, dat.Header{}, dat.ScriptHeader{}, err
	}

	nsh := sh
	nsh.TextOffset = sh.AISub + uint32(newLen)
	nsh.TextSub = nsh.TextOffset + uint32(ptrLen)

	sec, err := dat.SectionBytes(out, nh, dat.SectionBattleScript)
	if err != nil {
		return nil, dat.Header{}, dat.ScriptHeader{}, err
	}
	if err := nsh.Put(sec); err != nil {
		return nil, dat.Header{}, dat.ScriptHeader{}, err
	}
	if err := PutOffsets(sec[nsh.AISub:nsh.TextOffset], offs); err != nil {
		return nil, dat.Header{}, dat.ScriptHeader{}, err
	}
	return out, nh, nsh, nil
}

// Package monstertest builds synthetic monster files for tests.
package monstertest

import (
	"encoding/binary"

	"github.com/LudovicGuerra/ifrit-enhanced/internal/stat"
	"github.com/LudovicGuerra/ifrit-enhanced/pkg/dat"
)

// AIHeaderSize is the size of the five block offsets at the start of the AI
// sub-section.
const AIHeaderSize = 20

// Options describes the content of a synthetic file. Zero values produce a
// small but well-formed file.
type Options struct {
	NbAnimation uint32
	// Info replaces the stat section. It is padded to stat.InfoSize.
	Info []byte
	// Blocks are the five AI code blocks: init, enemy turn, counter-attack,
	// death, before dying or hit.
	Blocks [5][]byte
	// Texts are raw menu-font strings without terminator.
	Texts [][]byte
	// Pointers overrides the computed text pointer table when non-nil.
	Pointers []uint16
	// TextPad is appended after the last string inside the battle script.
	TextPad []byte

	Sound, Unknown, Texture []byte
}

// Layout reports where the parts of a built file landed.
type Layout struct {
	Header dat.Header
	Script dat.ScriptHeader
	// BlockOffsets are relative to the AI sub-section.
	BlockOffsets [5]uint32
}

// Build lays out a complete 11-section monster file.
func Build(o Options) ([]byte, Layout) {
	sections := make([][]byte, dat.SectionCount+1)
	for s := dat.SectionSkeleton; s <= dat.SectionTexture; s++ {
		sections[s] = []byte{byte(s), byte(s), 0xEE, byte(s)}
	}

	anim := make([]byte, 8)
	binary.LittleEndian.PutUint32(anim, o.NbAnimation)
	copy(anim[4:], []byte{0xA0, 0xA1, 0xA2, 0xA3})
	sections[dat.SectionModelAnimation] = anim

	info := make([]byte, stat.InfoSize)
	copy(info, o.Info)
	sections[dat.SectionInfoStat] = info

	script, sh, offsets := buildScript(o)
	sections[dat.SectionBattleScript] = script

	if o.Sound != nil {
		sections[dat.SectionSound] = o.Sound
	}
	if o.Unknown != nil {
		sections[dat.SectionUnknown10] = o.Unknown
	}
	if o.Texture != nil {
		sections[dat.SectionTexture] = o.Texture
	}

	h := dat.Header{SectionCount: dat.SectionCount, Offsets: make([]uint32, dat.SectionCount+1)}
	pos := uint32(dat.HeaderSize(dat.SectionCount))
	for s := 1; s <= dat.SectionCount; s++ {
		h.Offsets[s] = pos
		pos += uint32(len(sections[s]))
	}
	h.FileSize = pos

	out := dat.EncodeHeader(h)
	for s := 1; s <= dat.SectionCount; s++ {
		out = append(out, sections[s]...)
	}
	return out, Layout{Header: h, Script: sh, BlockOffsets: offsets}
}

func buildScript(o Options) ([]byte, dat.ScriptHeader, [5]uint32) {
	var offsets [5]uint32
	ai := make([]byte, AIHeaderSize)
	pos := uint32(AIHeaderSize)
	for i, b := range o.Blocks {
		offsets[i] = pos
		binary.LittleEndian.PutUint32(ai[4*i:], pos)
		ai = append(ai, b...)
		pos += uint32(len(b))
	}

	pointers := o.Pointers
	if pointers == nil {
		var at uint16
		for _, t := range o.Texts {
			pointers = append(pointers, at)
			at += uint16(len(t) + 1)
		}
	}
	table := make([]byte, 2*len(pointers))
	for i, p := range pointers {
		binary.LittleEndian.PutUint16(table[2*i:], p)
	}
	var pool []byte
	for _, t := range o.Texts {
		pool = append(pool, t...)
		pool = append(pool, 0)
	}
	pool = append(pool, o.TextPad...)

	sh := dat.ScriptHeader{SubCount: 3, AISub: dat.ScriptHeaderSize}
	sh.TextOffset = sh.AISub + uint32(len(ai))
	sh.TextSub = sh.TextOffset + uint32(len(table))

	out := make([]byte, dat.ScriptHeaderSize)
	_ = sh.Put(out)
	out = append(out, ai...)
	out = append(out, table...)
	out = append(out, pool...)
	return out, sh, offsets
}

// Text encodes ASCII letters, digits and spaces in the menu font.
func Text(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		switch {
		case r == ' ':
			out = append(out, 0x20)
		case r >= '0' && r <= '9':
			out = append(out, byte(0x21+r-'0'))
		case r >= 'A' && r <= 'Z':
			out = append(out, byte(0x45+r-'A'))
		case r >= 'a' && r <= 'z':
			out = append(out, byte(0x5F+r-'a'))
		case r == '!':
			out = append(out, 0x2E)
		}
	}
	return out
}

// Default returns a small monster named Bomb with two texts and an AI
// program covering the conditional, assignment and lock-parameter ops.
func Default() Options {
	info := make([]byte, stat.InfoSize)
	copy(info, Text("Bomb"))
	copy(info[0x18:], []byte{10, 20, 30, 40})
	info[0xF4] = 20
	info[0xF5] = 30
	binary.LittleEndian.PutUint16(info[0x102:], 150)
	info[0x14C] = 128
	info[0x14D] = 64
	info[0x14F] = 3
	for i := 0; i < 8; i++ {
		info[0x160+i] = 90
	}
	for i := 0; i < 20; i++ {
		info[0x168+i] = 100
	}

	return Options{
		NbAnimation: 5,
		Info:        info,
		Blocks: [5][]byte{
			// init: varDC = 0; lock param 3; stop
			{0x0E, 0xDC, 0x00, 0x1A, 0x03, 0x00},
			// enemy turn: if self hp < 50 jump 4; text 0; attack 1; stop; attack 0; stop stop
			{0x02, 0xC8, 0x00, 0x01, 0x32, 0x00, 0x04, 0x00, 0x01, 0x00, 0x0C, 0x01, 0x00, 0x0C, 0x00, 0x00, 0x00},
			// counter-attack: GlobalVar60 += 1; stop
			{0x13, 0x60, 0x01, 0x00},
			// death: text 1; stop
			{0x01, 0x01, 0x00},
			// before dying or hit: stop
			{0x00},
		},
		Texts:   [][]byte{Text("Boom"), Text("Fizzle")},
		Sound:   []byte{0x53, 0x4E, 0x44, 0x00, 1, 2, 3, 4},
		Unknown: []byte{0x55, 0x4E, 0x4B},
		Texture: []byte{0x54, 0x49, 0x4D, 0x00, 9, 8, 7, 6, 5, 4},
	}
}

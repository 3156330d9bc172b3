package ai

import (
	"bytes"
	"encoding/binary"
	"errors"
	"reflect"
	"slices"
	"strings"
	"testing"

	"github.com/LudovicGuerra/ifrit-enhanced/internal/combattext"
	"github.com/LudovicGuerra/ifrit-enhanced/internal/monster/monstertest"
	"github.com/LudovicGuerra/ifrit-enhanced/internal/reftable"
	"github.com/LudovicGuerra/ifrit-enhanced/pkg/dat"
)

func disassemble(t *testing.T, buf []byte, layout monstertest.Layout) *Program {
	t.Helper()
	sec, err := dat.SectionBytes(buf, layout.Header, dat.SectionBattleScript)
	if err != nil {
		t.Fatalf("section: %v", err)
	}
	prog, _, err := Disassemble(sec, layout.Script, reftable.Default())
	if err != nil {
		t.Fatalf("disassemble: %v", err)
	}
	return prog
}

func withBlock(i int, code []byte) ([]byte, monstertest.Layout) {
	opts := monstertest.Default()
	opts.Blocks[i] = code
	return monstertest.Build(opts)
}

func TestDisassembleDefault(t *testing.T) {
	t.Parallel()

	buf, layout := monstertest.Build(monstertest.Default())
	sec, _ := dat.SectionBytes(buf, layout.Header, dat.SectionBattleScript)
	prog, offs, err := Disassemble(sec, layout.Script, reftable.Default())
	if err != nil {
		t.Fatalf("disassemble: %v", err)
	}
	if Offsets(layout.BlockOffsets) != offs {
		t.Fatalf("offsets: got %v want %v", offs, layout.BlockOffsets)
	}
	if prog.Start != HeaderSize {
		t.Fatalf("start: got %d want %d", prog.Start, HeaderSize)
	}
	if len(prog.Blocks) != BlockCount+1 {
		t.Fatalf("blocks: got %d want %d", len(prog.Blocks), BlockCount+1)
	}
	if end := prog.Blocks[BlockEnd]; len(end.Instructions) != 0 || len(end.Tail) != 0 {
		t.Fatalf("end block not empty: %+v", end)
	}

	initBlock := prog.Blocks[BlockInit].Instructions
	if len(initBlock) != 3 {
		t.Fatalf("init: got %d instructions want 3", len(initBlock))
	}
	a := initBlock[0].Assign
	if a == nil || a.Family != FamilySet || a.Scope != ScopeLocal || a.Var != (Variable{ID: 0xDC, Name: "varDC"}) || a.Value != 0 {
		t.Fatalf("init assignment: got %+v", a)
	}
	if initBlock[1].Op != OpLockParam || !bytes.Equal(initBlock[1].Operands, []byte{3}) {
		t.Fatalf("lock param: got %+v", initBlock[1])
	}

	turn := prog.Blocks[BlockEnemyTurn].Instructions
	if len(turn) != 7 {
		t.Fatalf("enemy turn: got %d instructions want 7", len(turn))
	}
	want := Condition{Subject: 0xC8, Left: 0, Comparator: 1, Right: 50, Debug: 0, Jump: [2]byte{4, 0}}
	if turn[0].Cond == nil || *turn[0].Cond != want {
		t.Fatalf("condition: got %+v want %+v", turn[0].Cond, want)
	}

	counter := prog.Blocks[BlockCounterAttack].Instructions
	if c := counter[0].Assign; c == nil || c.Family != FamilyAdd || c.Scope != ScopeGlobal || c.Var.Name != "GlobalVar60" {
		t.Fatalf("counter assignment: got %+v", c)
	}
}

func TestDoubleStopEndsBlock(t *testing.T) {
	t.Parallel()

	buf, layout := withBlock(BlockDeath, []byte{0x0C, 0x01, 0x00, 0x00, 0x0C, 0x02})
	b := disassemble(t, buf, layout).Blocks[BlockDeath]
	ops := make([]uint8, len(b.Instructions))
	for i, ins := range b.Instructions {
		ops[i] = ins.Op
	}
	if !slices.Equal(ops, []uint8{0x0C, OpStop, OpStop}) {
		t.Fatalf("ops: got %x", ops)
	}
	if !bytes.Equal(b.Tail, []byte{0x0C, 0x02}) {
		t.Fatalf("tail: got %x", b.Tail)
	}
}

func TestSingleStopDoesNotEndBlock(t *testing.T) {
	t.Parallel()

	buf, layout := withBlock(BlockDeath, []byte{0x00, 0x0C, 0x01, 0x00})
	b := disassemble(t, buf, layout).Blocks[BlockDeath]
	if len(b.Instructions) != 3 || len(b.Tail) != 0 {
		t.Fatalf("block: got %d instructions, tail %x", len(b.Instructions), b.Tail)
	}
	if b.Instructions[1].Op != 0x0C {
		t.Fatalf("second instruction: got %#02x", b.Instructions[1].Op)
	}
}

func TestTruncatedInstructionKeptAsTail(t *testing.T) {
	t.Parallel()

	buf, layout := withBlock(BlockDeath, []byte{0x00, 0x02, 0xC8})
	b := disassemble(t, buf, layout).Blocks[BlockDeath]
	if len(b.Instructions) != 1 || !bytes.Equal(b.Tail, []byte{0x02, 0xC8}) {
		t.Fatalf("block: %+v", b)
	}
}

// High unknown opcodes are dropped. Reassembly is shorter than the source.
func TestHighUnknownOpcodeSkippedLossy(t *testing.T) {
	t.Parallel()

	buf, layout := withBlock(BlockDeath, []byte{0x0C, 0x01, 0xF3, 0x00})
	prog := disassemble(t, buf, layout)
	b := prog.Blocks[BlockDeath]
	if len(b.Instructions) != 2 || b.Instructions[1].Op != OpStop {
		t.Fatalf("block: %+v", b)
	}

	out, nh, _, err := Relocate(buf, layout.Header, layout.Script, prog, reftable.Default())
	if err != nil {
		t.Fatalf("relocate: %v", err)
	}
	if len(out) != len(buf)-1 || nh.FileSize != layout.Header.FileSize-1 {
		t.Fatalf("filler byte was not dropped: len %d -> %d", len(buf), len(out))
	}
}

func TestUnknownLowOpcodeFails(t *testing.T) {
	t.Parallel()

	buf, layout := withBlock(BlockDeath, []byte{0x03, 0x00})
	sec, _ := dat.SectionBytes(buf, layout.Header, dat.SectionBattleScript)
	if _, _, err := Disassemble(sec, layout.Script, reftable.Default()); !errors.Is(err, ErrUnknownOpcode) {
		t.Fatalf("expected ErrUnknownOpcode, got %v", err)
	}
}

func TestBoundaryOutsideSubsection(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		block int
		value func(subLen uint32) uint32
	}{
		{"past end", BlockDeath, func(n uint32) uint32 { return n + 1 }},
		{"decreasing", BlockCounterAttack, func(uint32) uint32 { return HeaderSize }},
		{"inside header", BlockInit, func(uint32) uint32 { return 4 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			buf, layout := monstertest.Build(monstertest.Default())
			subStart := layout.Header.Offsets[dat.SectionBattleScript] + layout.Script.AISub
			subLen := layout.Script.TextOffset - layout.Script.AISub
			binary.LittleEndian.PutUint32(buf[subStart+uint32(4*tc.block):], tc.value(subLen))

			sec, _ := dat.SectionBytes(buf, layout.Header, dat.SectionBattleScript)
			if _, _, err := Disassemble(sec, layout.Script, reftable.Default()); !errors.Is(err, dat.ErrOffsetOutOfBounds) {
				t.Fatalf("expected ErrOffsetOutOfBounds, got %v", err)
			}
		})
	}
}

func TestBoundaryAtSubsectionEnd(t *testing.T) {
	t.Parallel()

	buf, layout := withBlock(BlockBeforeDyingOrHit, nil)
	prog := disassemble(t, buf, layout)
	if b := prog.Blocks[BlockBeforeDyingOrHit]; len(b.Instructions) != 0 {
		t.Fatalf("empty last block decoded %d instructions", len(b.Instructions))
	}
}

func TestZeroEditRoundTrip(t *testing.T) {
	t.Parallel()

	buf, layout := monstertest.Build(monstertest.Default())
	prog := disassemble(t, buf, layout)

	out, nh, nsh, err := Relocate(buf, layout.Header, layout.Script, prog, reftable.Default())
	if err != nil {
		t.Fatalf("relocate: %v", err)
	}
	if !bytes.Equal(out, buf) {
		t.Fatalf("zero-edit relocation changed the file")
	}
	if nh.FileSize != layout.Header.FileSize || !slices.Equal(nh.Offsets, layout.Header.Offsets) {
		t.Fatalf("header changed: got %+v want %+v", nh, layout.Header)
	}
	if nsh != layout.Script {
		t.Fatalf("script header changed: got %+v want %+v", nsh, layout.Script)
	}
}

func TestZeroEditRoundTripWithTails(t *testing.T) {
	t.Parallel()

	opts := monstertest.Default()
	opts.Blocks[BlockDeath] = []byte{0x00, 0x00, 0xDE, 0xAD, 0x03}
	opts.Blocks[BlockBeforeDyingOrHit] = []byte{0x00, 0x02}
	buf, layout := monstertest.Build(opts)
	prog := disassemble(t, buf, layout)

	out, _, _, err := Relocate(buf, layout.Header, layout.Script, prog, reftable.Default())
	if err != nil {
		t.Fatalf("relocate: %v", err)
	}
	if !bytes.Equal(out, buf) {
		t.Fatalf("tails were not carried verbatim")
	}
}

func TestGrowthShiftsEverythingByK(t *testing.T) {
	t.Parallel()

	buf, layout := monstertest.Build(monstertest.Default())
	orig := bytes.Clone(buf)
	prog := disassemble(t, buf, layout)

	// attack 2 + target self: 4 more bytes in the enemy turn block.
	const k = 4
	turn := &prog.Blocks[BlockEnemyTurn]
	turn.Instructions = slices.Insert(turn.Instructions, 0,
		Instruction{Op: 0x04, Operands: []byte{0xC8}},
		Instruction{Op: 0x0C, Operands: []byte{0x02}},
	)

	out, nh, nsh, err := Relocate(buf, layout.Header, layout.Script, prog, reftable.Default())
	if err != nil {
		t.Fatalf("relocate: %v", err)
	}
	if !bytes.Equal(buf, orig) {
		t.Fatalf("input buffer modified")
	}
	if nh.FileSize != layout.Header.FileSize+k || len(out) != int(nh.FileSize) {
		t.Fatalf("file size: got %d want %d", nh.FileSize, layout.Header.FileSize+k)
	}
	if nsh.TextOffset != layout.Script.TextOffset+k || nsh.TextSub != layout.Script.TextSub+k {
		t.Fatalf("text offsets: got %+v from %+v", nsh, layout.Script)
	}
	for s := dat.SectionSound; s <= dat.SectionTexture; s++ {
		if nh.Offsets[s] != layout.Header.Offsets[s]+k {
			t.Fatalf("section %s: got %d want %d", s, nh.Offsets[s], layout.Header.Offsets[s]+k)
		}
		got, _ := dat.SectionBytes(out, nh, s)
		want, _ := dat.SectionBytes(orig, layout.Header, s)
		if !bytes.Equal(got, want) {
			t.Fatalf("section %s content changed", s)
		}
	}
	for s := dat.SectionSkeleton; s <= dat.SectionBattleScript; s++ {
		if nh.Offsets[s] != layout.Header.Offsets[s] {
			t.Fatalf("section %s moved", s)
		}
	}

	onDisk, err := dat.DecodeHeader(out)
	if err != nil || onDisk.FileSize != nh.FileSize || !slices.Equal(onDisk.Offsets, nh.Offsets) {
		t.Fatalf("header prefix: got %+v err %v", onDisk, err)
	}

	sec, _ := dat.SectionBytes(out, nh, dat.SectionBattleScript)
	got, offs, err := Disassemble(sec, nsh, reftable.Default())
	if err != nil {
		t.Fatalf("disassemble relocated: %v", err)
	}
	want := Offsets(layout.BlockOffsets)
	for i := BlockCounterAttack; i < BlockCount; i++ {
		want[i] += k
	}
	if offs != want {
		t.Fatalf("block offsets: got %v want %v", offs, want)
	}
	if !reflect.DeepEqual(got, prog) {
		t.Fatalf("relocated program differs:\n got %+v\nwant %+v", got, prog)
	}

	texts, err := combattext.Decode(sec, nsh)
	if err != nil {
		t.Fatalf("texts: %v", err)
	}
	if !slices.Equal(texts, []string{"Boom", "Fizzle"}) {
		t.Fatalf("texts: got %q", texts)
	}
}

func TestShrinkShiftsBack(t *testing.T) {
	t.Parallel()

	buf, layout := monstertest.Build(monstertest.Default())
	prog := disassemble(t, buf, layout)
	prog.Blocks[BlockInit].Instructions = prog.Blocks[BlockInit].Instructions[2:]

	out, nh, nsh, err := Relocate(buf, layout.Header, layout.Script, prog, reftable.Default())
	if err != nil {
		t.Fatalf("relocate: %v", err)
	}
	const k = 5
	if nh.FileSize != layout.Header.FileSize-k || len(out) != int(nh.FileSize) {
		t.Fatalf("file size: got %d want %d", nh.FileSize, layout.Header.FileSize-k)
	}
	if nsh.TextOffset != layout.Script.TextOffset-k {
		t.Fatalf("text offset: got %d want %d", nsh.TextOffset, layout.Script.TextOffset-k)
	}
	if nh.Offsets[dat.SectionTexture] != layout.Header.Offsets[dat.SectionTexture]-k {
		t.Fatalf("texture offset: got %d", nh.Offsets[dat.SectionTexture])
	}
}

func TestRelocateFailureLeavesInputUntouched(t *testing.T) {
	t.Parallel()

	buf, layout := monstertest.Build(monstertest.Default())
	orig := bytes.Clone(buf)
	prog := disassemble(t, buf, layout)
	prog.Blocks[BlockInit].Instructions[0].Assign.Var.Name = "NoSuchVar"

	if _, _, _, err := Relocate(buf, layout.Header, layout.Script, prog, reftable.Default()); !errors.Is(err, ErrUnknownVariable) {
		t.Fatalf("expected ErrUnknownVariable, got %v", err)
	}
	if !bytes.Equal(buf, orig) {
		t.Fatalf("input buffer modified on failure")
	}

	prog = disassemble(t, buf, layout)
	padded := append(bytes.Clone(buf), 0)
	if _, _, _, err := Relocate(padded, layout.Header, layout.Script, prog, reftable.Default()); !errors.Is(err, dat.ErrRelocationInconsistent) {
		t.Fatalf("expected ErrRelocationInconsistent, got %v", err)
	}
}

func TestAssignmentScopeSelectsOpcode(t *testing.T) {
	t.Parallel()

	tables := reftable.Default()
	cases := []struct {
		family AssignFamily
		scope  VariableScope
		op     uint8
	}{
		{FamilySet, ScopeLocal, 0x0E},
		{FamilySet, ScopeGlobal, 0x0F},
		{FamilySet, ScopeSaveData, 0x11},
		{FamilyAdd, ScopeLocal, 0x12},
		{FamilyAdd, ScopeGlobal, 0x13},
		{FamilyAdd, ScopeSaveData, 0x15},
	}
	for _, tc := range cases {
		// Op is stale on purpose: the scope decides.
		ins := Instruction{Op: 0x0E, Assign: &Assignment{Family: tc.family, Scope: tc.scope, Var: Variable{ID: 7}, Value: 9}}
		got, err := encodeInstruction(ins, tables)
		if err != nil {
			t.Fatalf("%s/%s: %v", tc.family, tc.scope, err)
		}
		if !bytes.Equal(got, []byte{tc.op, 7, 9}) {
			t.Fatalf("%s/%s: got %x want %02x0709", tc.family, tc.scope, got, tc.op)
		}
	}

	ins := Instruction{Assign: &Assignment{Scope: ScopeGlobal, Var: Variable{ID: 1, Name: "GlobalVar61"}, Value: 2}}
	got, err := encodeInstruction(ins, tables)
	if err != nil || !bytes.Equal(got, []byte{0x0F, 0x61, 2}) {
		t.Fatalf("named variable: got %x err %v", got, err)
	}

	ins = Instruction{Assign: &Assignment{Scope: VariableScope(9)}}
	if _, err := encodeInstruction(ins, tables); !errors.Is(err, ErrInvalidOperand) {
		t.Fatalf("expected ErrInvalidOperand, got %v", err)
	}
}

func TestLockParamPadsToTableSize(t *testing.T) {
	t.Parallel()

	tables, err := reftable.New(reftable.Document{
		Opcodes:     []reftable.Opcode{{Code: OpLockParam, Name: "lock", Size: 3}},
		Comparators: []string{"=="},
	})
	if err != nil {
		t.Fatalf("tables: %v", err)
	}
	got, err := encodeInstruction(Instruction{Op: OpLockParam, Operands: []byte{5, 6, 7}}, tables)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Equal(got, []byte{OpLockParam, 5, 0, 0}) {
		t.Fatalf("lock param: got %x", got)
	}
	if _, err := encodeInstruction(Instruction{Op: OpLockParam}, tables); !errors.Is(err, ErrOperandSize) {
		t.Fatalf("expected ErrOperandSize, got %v", err)
	}
}

func TestEncodeValidatesOperands(t *testing.T) {
	t.Parallel()

	tables := reftable.Default()
	if _, err := encodeInstruction(Instruction{Op: 0x0C, Operands: []byte{1, 2}}, tables); !errors.Is(err, ErrOperandSize) {
		t.Fatalf("expected ErrOperandSize, got %v", err)
	}
	if _, err := encodeInstruction(Instruction{Op: 0x03}, tables); !errors.Is(err, ErrUnknownOpcode) {
		t.Fatalf("expected ErrUnknownOpcode, got %v", err)
	}
	bad := Instruction{Op: OpIf, Cond: &Condition{Comparator: 42}}
	if _, err := encodeInstruction(bad, tables); !errors.Is(err, ErrInvalidOperand) {
		t.Fatalf("expected ErrInvalidOperand, got %v", err)
	}
}

func TestStreamRoundTrip(t *testing.T) {
	t.Parallel()

	opts := monstertest.Default()
	opts.Blocks[BlockDeath] = []byte{0x00, 0x00, 0xAB}
	buf, layout := monstertest.Build(opts)
	prog := disassemble(t, buf, layout)

	stream := prog.Stream()
	seps := 0
	for _, ins := range stream {
		if ins.Separator {
			seps++
		}
	}
	if seps != BlockCount+1 || !stream[len(stream)-1].End {
		t.Fatalf("stream: %d separators, last end=%v", seps, stream[len(stream)-1].End)
	}

	back, err := FromStream(prog.Start, stream)
	if err != nil {
		t.Fatalf("from stream: %v", err)
	}
	if !reflect.DeepEqual(back, prog) {
		t.Fatalf("stream round trip differs")
	}

	if _, err := FromStream(prog.Start, stream[:len(stream)-1]); !errors.Is(err, ErrMalformedProgram) {
		t.Fatalf("expected ErrMalformedProgram, got %v", err)
	}
}

func TestAssembleRejectsBadShape(t *testing.T) {
	t.Parallel()

	p := &Program{Start: HeaderSize, Blocks: make([]Block, BlockCount)}
	if _, _, err := Assemble(p, reftable.Default()); !errors.Is(err, ErrMalformedProgram) {
		t.Fatalf("expected ErrMalformedProgram, got %v", err)
	}
	p.Blocks = make([]Block, BlockCount+1)
	p.Blocks[BlockEnd].Instructions = []Instruction{{Op: OpStop}}
	if _, _, err := Assemble(p, reftable.Default()); !errors.Is(err, ErrMalformedProgram) {
		t.Fatalf("expected ErrMalformedProgram for non-empty end block, got %v", err)
	}
}

func TestAssembleRejectsStreamMarkersInBlocks(t *testing.T) {
	t.Parallel()

	buf, layout := monstertest.Build(monstertest.Default())
	markers := map[string]Instruction{
		"separator": {Separator: true},
		"end":       {Separator: true, End: true},
		"bare end":  {End: true},
		"data":      {Data: []byte{0xAA}},
	}
	for name, marker := range markers {
		prog := disassemble(t, buf, layout)
		initBlock := &prog.Blocks[BlockInit]
		initBlock.Instructions = slices.Insert(slices.Clone(initBlock.Instructions), 1, marker)

		if _, _, err := Assemble(prog, reftable.Default()); !errors.Is(err, ErrMalformedProgram) {
			t.Fatalf("%s: expected ErrMalformedProgram, got %v", name, err)
		}
		if _, _, _, err := Relocate(buf, layout.Header, layout.Script, prog, reftable.Default()); !errors.Is(err, ErrMalformedProgram) {
			t.Fatalf("%s: relocate expected ErrMalformedProgram, got %v", name, err)
		}
	}
}

func TestListing(t *testing.T) {
	t.Parallel()

	buf, layout := monstertest.Build(monstertest.Default())
	prog := disassemble(t, buf, layout)
	lines, err := Listing(prog, reftable.Default(), []string{"Boom", "Fizzle"})
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if lines[0].Block != "init" || lines[0].Offset != HeaderSize || lines[0].Mnemonic != "set_local" {
		t.Fatalf("first line: %+v", lines[0])
	}

	var sb strings.Builder
	if err := WriteListing(&sb, lines); err != nil {
		t.Fatalf("write listing: %v", err)
	}
	out := sb.String()
	for _, want := range []string{"enemy_turn:", "subject=self 0 < 50", `0 "Boom"`, "varDC[local] = 0", "GlobalVar60[global] += 1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("listing missing %q:\n%s", want, out)
		}
	}
}

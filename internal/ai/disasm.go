package ai

import (
	"encoding/binary"
	"fmt"

	"github.com/LudovicGuerra/ifrit-enhanced/internal/reftable"
	"github.com/LudovicGuerra/ifrit-enhanced/pkg/dat"
)

// ReadOffsets reads the block offset table at the start of the AI
// sub-section.
func ReadOffsets(sub []byte) (Offsets, error) {
	var offs Offsets
	if len(sub) < HeaderSize {
		return offs, dat.Errorf(dat.ErrTruncated, "ai sub-section needs %d header bytes, have %d", HeaderSize, len(sub))
	}
	for i := range offs {
		offs[i] = binary.LittleEndian.Uint32(sub[4*i : 4*i+4])
	}
	return offs, nil
}

// PutOffsets writes the block offset table at the start of sub.
func PutOffsets(sub []byte, offs Offsets) error {
	if len(sub) < HeaderSize {
		return dat.Errorf(dat.ErrTruncated, "ai sub-section needs %d header bytes, have %d", HeaderSize, len(sub))
	}
	for i, off := range offs {
		binary.LittleEndian.PutUint32(sub[4*i:4*i+4], off)
	}
	return nil
}

// Disassemble decodes the AI sub-section of a battle script section.
//
// Unknown opcodes at or above HighOpcode are skipped one byte at a time and
// are lost on reassembly. Unknown opcodes below it fail with
// ErrUnknownOpcode.
func Disassemble(section []byte, sh dat.ScriptHeader, tables *reftable.Tables) (*Program, Offsets, error) {
	if err := sh.Validate(len(section)); err != nil {
		return nil, Offsets{}, err
	}
	sub := section[sh.AISub:sh.TextOffset]
	offs, err := ReadOffsets(sub)
	if err != nil {
		return nil, Offsets{}, err
	}

	prev := uint32(HeaderSize)
	for i, off := range offs {
		if off < prev || off > uint32(len(sub)) {
			return nil, Offsets{}, dat.Errorf(dat.ErrOffsetOutOfBounds,
				"block %s starts at %d, want [%d,%d]", BlockName(i), off, prev, len(sub))
		}
		prev = off
	}

	prog := &Program{Start: offs[BlockInit], Blocks: make([]Block, BlockCount+1)}
	for i := range BlockCount {
		end := uint32(len(sub))
		if i+1 < BlockCount {
			end = offs[i+1]
		}
		b, err := disassembleBlock(sub[offs[i]:end], tables)
		if err != nil {
			return nil, Offsets{}, fmt.Errorf("block %s: %w", BlockName(i), err)
		}
		prog.Blocks[i] = b
	}
	return prog, offs, nil
}

func disassembleBlock(code []byte, tables *reftable.Tables) (Block, error) {
	var b Block
	stops := 0
	pos := 0
	for pos < len(code) {
		op := code[pos]
		meta, ok := tables.Opcode(op)
		if !ok {
			if op >= HighOpcode {
				pos++
				continue
			}
			return Block{}, fmt.Errorf("%w: %#02x at %d", ErrUnknownOpcode, op, pos)
		}
		end := pos + 1 + meta.Size
		if end > len(code) {
			break
		}
		b.Instructions = append(b.Instructions, decodeInstruction(op, code[pos+1:end], tables))
		pos = end

		if op != OpStop {
			stops = 0
			continue
		}
		stops++
		if stops == 2 {
			break
		}
	}
	if pos < len(code) {
		b.Tail = append([]byte(nil), code[pos:]...)
	}
	return b, nil
}

func decodeInstruction(op uint8, operands []byte, tables *reftable.Tables) Instruction {
	ins := Instruction{Op: op}
	if len(operands) > 0 {
		ins.Operands = append([]byte(nil), operands...)
	}

	switch {
	case op == OpIf && len(operands) == 7:
		ins.Cond = &Condition{
			Subject:    operands[0],
			Left:       operands[1],
			Comparator: operands[2],
			Right:      operands[3],
			Debug:      operands[4],
			Jump:       [2]byte{operands[5], operands[6]},
		}
	case IsAssign(op) && len(operands) == 2:
		k := assignKinds[op]
		a := &Assignment{Family: k.family, Scope: k.scope, Var: Variable{ID: operands[0]}, Value: operands[1]}
		if name, ok := tables.VariableName(operands[0]); ok {
			a.Var.Name = name
		}
		ins.Assign = a
	}
	return ins
}

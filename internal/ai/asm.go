package ai

import (
	"fmt"

	"github.com/LudovicGuerra/ifrit-enhanced/internal/reftable"
)

// Stream flattens the program into one instruction list. Every block is
// followed by a separator and the last separator is marked End. Block tails
// become Data instructions.
func (p *Program) Stream() []Instruction {
	var out []Instruction
	for i, b := range p.Blocks {
		out = append(out, b.Instructions...)
		if len(b.Tail) > 0 {
			out = append(out, Instruction{Data: b.Tail})
		}
		out = append(out, Instruction{Separator: true, End: i == len(p.Blocks)-1})
	}
	return out
}

// FromStream rebuilds a program from a stream produced by Stream.
func FromStream(start uint32, stream []Instruction) (*Program, error) {
	p := &Program{Start: start}
	var cur Block
	ended := false
	for i, ins := range stream {
		if ended {
			return nil, fmt.Errorf("%w: instruction %d after end marker", ErrMalformedProgram, i)
		}
		switch {
		case ins.Separator:
			p.Blocks = append(p.Blocks, cur)
			cur = Block{}
			ended = ins.End
		case ins.Data != nil:
			if cur.Tail != nil {
				return nil, fmt.Errorf("%w: two data runs in block %d", ErrMalformedProgram, len(p.Blocks))
			}
			cur.Tail = ins.Data
		default:
			if cur.Tail != nil {
				return nil, fmt.Errorf("%w: instruction %d follows block data", ErrMalformedProgram, i)
			}
			cur.Instructions = append(cur.Instructions, ins)
		}
	}
	if !ended {
		return nil, fmt.Errorf("%w: missing end marker", ErrMalformedProgram)
	}
	if err := p.validateShape(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Program) validateShape() error {
	if len(p.Blocks) != BlockCount+1 {
		return fmt.Errorf("%w: %d blocks, want %d", ErrMalformedProgram, len(p.Blocks), BlockCount+1)
	}
	for bi, b := range p.Blocks {
		for ii, ins := range b.Instructions {
			if ins.Separator || ins.End || ins.Data != nil {
				return fmt.Errorf("%w: block %s, instruction %d is a stream marker", ErrMalformedProgram, BlockName(bi), ii)
			}
		}
	}
	end := p.Blocks[BlockEnd]
	if len(end.Instructions) != 0 || len(end.Tail) != 0 {
		return fmt.Errorf("%w: end block is not empty", ErrMalformedProgram)
	}
	if p.Start < HeaderSize {
		return fmt.Errorf("%w: init block at %d overlaps the offset table", ErrMalformedProgram, p.Start)
	}
	return nil
}

// Assemble encodes the program. The returned code starts at p.Start inside
// the AI sub-section, and the offsets locate every block in it.
func Assemble(p *Program, tables *reftable.Tables) ([]byte, Offsets, error) {
	if err := p.validateShape(); err != nil {
		return nil, Offsets{}, err
	}

	var (
		code  []byte
		offs  Offsets
		block int
	)
	offs[BlockInit] = p.Start
	for i, ins := range p.Stream() {
		if ins.Separator {
			if ins.End {
				break
			}
			block++
			if block < BlockCount {
				offs[block] = p.Start + uint32(len(code))
			}
			continue
		}
		enc, err := encodeInstruction(ins, tables)
		if err != nil {
			return nil, Offsets{}, fmt.Errorf("block %s, instruction %d: %w", BlockName(block), i, err)
		}
		code = append(code, enc...)
	}
	return code, offs, nil
}

func encodeInstruction(ins Instruction, tables *reftable.Tables) ([]byte, error) {
	if ins.Data != nil {
		return append([]byte(nil), ins.Data...), nil
	}

	op := ins.Op
	if ins.Assign != nil {
		a := ins.Assign
		resolved, ok := AssignOp(a.Family, a.Scope)
		if !ok {
			return nil, fmt.Errorf("%w: %s on %s variable", ErrInvalidOperand, a.Family, a.Scope)
		}
		op = resolved
	}
	meta, ok := tables.Opcode(op)
	if !ok {
		return nil, fmt.Errorf("%w: %#02x", ErrUnknownOpcode, op)
	}

	out := make([]byte, 1, 1+meta.Size)
	out[0] = op

	switch {
	case ins.Cond != nil:
		c := ins.Cond
		if _, ok := tables.Comparator(int(c.Comparator)); !ok {
			return nil, fmt.Errorf("%w: comparator %d", ErrInvalidOperand, c.Comparator)
		}
		out = append(out, c.Subject, c.Left, c.Comparator, c.Right, c.Debug, c.Jump[0], c.Jump[1])

	case ins.Assign != nil:
		a := ins.Assign
		id := a.Var.ID
		if a.Var.Name != "" {
			named, ok := tables.VariableID(a.Var.Name)
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrUnknownVariable, a.Var.Name)
			}
			id = named
		}
		out = append(out, id, a.Value)

	case op == OpLockParam:
		if len(ins.Operands) < 1 {
			return nil, fmt.Errorf("%w: %s needs a parameter", ErrOperandSize, meta.Name)
		}
		out = append(out, ins.Operands[0])
		for len(out) < 1+meta.Size {
			out = append(out, 0)
		}

	default:
		out = append(out, ins.Operands...)
	}

	if len(out) != 1+meta.Size {
		return nil, fmt.Errorf("%w: %s takes %d operand bytes, got %d", ErrOperandSize, meta.Name, meta.Size, len(out)-1)
	}
	return out, nil
}

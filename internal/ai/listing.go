package ai

import (
	"fmt"
	"io"
	"strings"

	"github.com/LudovicGuerra/ifrit-enhanced/internal/reftable"
)

// Line is one row of a program listing.
type Line struct {
	Block    string `json:"block"`
	Offset   uint32 `json:"offset"`
	Bytes    []int  `json:"bytes"`
	Mnemonic string `json:"mnemonic"`
	Args     string `json:"args,omitempty"`
}

// Listing renders the program with names resolved through tables. Offsets
// are relative to the AI sub-section. texts resolves the operand of the text
// opcode when it is not nil.
func Listing(p *Program, tables *reftable.Tables, texts []string) ([]Line, error) {
	var lines []Line
	pos := p.Start
	for bi, b := range p.Blocks {
		if bi == BlockEnd {
			break
		}
		name := BlockName(bi)
		for _, ins := range b.Instructions {
			enc, err := encodeInstruction(ins, tables)
			if err != nil {
				return nil, fmt.Errorf("block %s at %d: %w", name, pos, err)
			}
			mnemonic, args := describe(ins, enc[0], tables, texts)
			lines = append(lines, Line{Block: name, Offset: pos, Bytes: ints(enc), Mnemonic: mnemonic, Args: args})
			pos += uint32(len(enc))
		}
		if len(b.Tail) > 0 {
			lines = append(lines, Line{Block: name, Offset: pos, Bytes: ints(b.Tail), Mnemonic: "data"})
			pos += uint32(len(b.Tail))
		}
	}
	return lines, nil
}

func describe(ins Instruction, op uint8, tables *reftable.Tables, texts []string) (string, string) {
	mnemonic := fmt.Sprintf("op_%02x", op)
	if meta, ok := tables.Opcode(op); ok && meta.Name != "" {
		mnemonic = meta.Name
	}

	switch {
	case ins.Cond != nil:
		c := ins.Cond
		cmp, _ := tables.Comparator(int(c.Comparator))
		return mnemonic, fmt.Sprintf("subject=%s %d %s %d jump=%d",
			target(c.Subject, tables), c.Left, cmp, c.Right, int(c.Jump[0])|int(c.Jump[1])<<8)

	case ins.Assign != nil:
		a := ins.Assign
		name := a.Var.Name
		if name == "" {
			name = fmt.Sprintf("var%02X", a.Var.ID)
		}
		sym := "="
		if a.Family == FamilyAdd {
			sym = "+="
		}
		return mnemonic, fmt.Sprintf("%s[%s] %s %d", name, a.Scope, sym, a.Value)

	case op == OpText && len(ins.Operands) == 1:
		i := int(ins.Operands[0])
		if i < len(texts) {
			return mnemonic, fmt.Sprintf("%d %q", i, texts[i])
		}
		return mnemonic, fmt.Sprint(i)

	case op == OpTarget && len(ins.Operands) == 1:
		return mnemonic, target(ins.Operands[0], tables)
	}

	args := make([]string, len(ins.Operands))
	for i, b := range ins.Operands {
		args[i] = fmt.Sprint(b)
	}
	return mnemonic, strings.Join(args, " ")
}

func target(id uint8, tables *reftable.Tables) string {
	if name, ok := tables.TargetName(id); ok {
		return name
	}
	return fmt.Sprintf("%#02x", id)
}

func ints(b []byte) []int {
	out := make([]int, len(b))
	for i, v := range b {
		out[i] = int(v)
	}
	return out
}

// WriteListing prints lines as aligned text.
func WriteListing(w io.Writer, lines []Line) error {
	block := ""
	for _, l := range lines {
		if l.Block != block {
			block = l.Block
			if _, err := fmt.Fprintf(w, "%s:\n", block); err != nil {
				return err
			}
		}
		hex := make([]string, len(l.Bytes))
		for i, b := range l.Bytes {
			hex[i] = fmt.Sprintf("%02X", b)
		}
		if _, err := fmt.Fprintf(w, "  %04X  %-24s %-16s %s\n", l.Offset, strings.Join(hex, " "), l.Mnemonic, l.Args); err != nil {
			return err
		}
	}
	return nil
}

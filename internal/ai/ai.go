// Package ai disassembles and reassembles the enemy AI bytecode stored in
// the battle script section, and relocates the section when the assembled
// program changes length.
//
// The AI sub-section starts with five little-endian u32 offsets, one per
// code block, relative to the sub-section. The blocks follow back to back
// and the last one runs until the combat-text pointer table.
package ai

import (
	"errors"
	"fmt"

	"github.com/LudovicGuerra/ifrit-enhanced/internal/stat"
)

var (
	ErrUnknownOpcode    = errors.New("ai: unknown opcode")
	ErrOperandSize      = errors.New("ai: operand size mismatch")
	ErrInvalidOperand   = errors.New("ai: invalid operand")
	ErrUnknownVariable  = errors.New("ai: unknown variable")
	ErrMalformedProgram = errors.New("ai: malformed program")
)

const (
	OpStop      uint8 = 0x00
	OpText      uint8 = 0x01
	OpIf        uint8 = 0x02
	OpTarget    uint8 = 0x04
	OpLockParam uint8 = 0x1A

	// HighOpcode is the first byte value skipped as filler when the opcode
	// table does not know it.
	HighOpcode uint8 = 0x40

	// HeaderSize is the size of the block offset table.
	HeaderSize = BlockCount * 4
)

// Block indexes.
const (
	BlockInit = iota
	BlockEnemyTurn
	BlockCounterAttack
	BlockDeath
	BlockBeforeDyingOrHit
	BlockEnd

	// BlockCount is the number of code blocks stored in a file.
	BlockCount = BlockEnd
)

var blockNames = [...]string{
	BlockInit:             "init",
	BlockEnemyTurn:        "enemy_turn",
	BlockCounterAttack:    "counter_attack",
	BlockDeath:            "death",
	BlockBeforeDyingOrHit: "before_dying_or_hit",
	BlockEnd:              "end",
}

// BlockName returns the name of block i.
func BlockName(i int) string {
	if i >= 0 && i < len(blockNames) {
		return blockNames[i]
	}
	return fmt.Sprintf("block%d", i)
}

// Offsets are the block start offsets relative to the AI sub-section.
type Offsets [BlockCount]uint32

// VariableScope is encoded in the opcode of assignment instructions.
type VariableScope int

const (
	ScopeLocal VariableScope = iota
	ScopeGlobal
	ScopeSaveData
)

// AssignFamily distinguishes setting a variable from adding to it.
type AssignFamily int

const (
	FamilySet AssignFamily = iota
	FamilyAdd
)

type assignKey struct {
	family AssignFamily
	scope  VariableScope
}

var assignOps = map[assignKey]uint8{
	{FamilySet, ScopeLocal}:    0x0E,
	{FamilySet, ScopeGlobal}:   0x0F,
	{FamilySet, ScopeSaveData}: 0x11,
	{FamilyAdd, ScopeLocal}:    0x12,
	{FamilyAdd, ScopeGlobal}:   0x13,
	{FamilyAdd, ScopeSaveData}: 0x15,
}

var assignKinds = func() map[uint8]assignKey {
	m := make(map[uint8]assignKey, len(assignOps))
	for k, op := range assignOps {
		m[op] = k
	}
	return m
}()

// AssignOp returns the opcode writing a variable of the given scope.
func AssignOp(family AssignFamily, scope VariableScope) (uint8, bool) {
	op, ok := assignOps[assignKey{family, scope}]
	return op, ok
}

// IsAssign reports whether op belongs to the assignment family.
func IsAssign(op uint8) bool {
	_, ok := assignKinds[op]
	return ok
}

// Condition is the decoded operand list of the conditional opcode.
type Condition struct {
	Subject uint8 `json:"subject"`
	Left    uint8 `json:"left"`
	// Comparator indexes the comparator table.
	Comparator uint8   `json:"comparator"`
	Right      uint8   `json:"right"`
	Debug      uint8   `json:"debug"`
	Jump       [2]byte `json:"jump"`
}

// Variable identifies an AI variable. When Name is set it takes precedence
// over ID on assembly.
type Variable struct {
	ID   uint8  `json:"id"`
	Name string `json:"name,omitempty"`
}

// Assignment is the decoded operand list of a set or add instruction.
type Assignment struct {
	Family AssignFamily  `json:"family"`
	Scope  VariableScope `json:"scope"`
	Var    Variable      `json:"var"`
	Value  uint8         `json:"value"`
}

// Instruction is one decoded opcode with its operands.
//
// Separator instructions only exist in the flat stream built by
// Program.Stream and are never serialized. Data instructions carry raw bytes
// written verbatim.
type Instruction struct {
	Op       uint8         `json:"op"`
	Operands stat.ByteList `json:"operands,omitempty"`
	Cond     *Condition    `json:"cond,omitempty"`
	Assign   *Assignment   `json:"assign,omitempty"`

	Data      stat.ByteList `json:"data,omitempty"`
	Separator bool          `json:"separator,omitempty"`
	End       bool          `json:"end,omitempty"`
}

// Block is one code block. Tail holds the bytes following the double STOP
// that ends the scan.
type Block struct {
	Instructions []Instruction `json:"instructions"`
	Tail         stat.ByteList `json:"tail,omitempty"`
}

// Program is a disassembled AI sub-section: the five code blocks followed by
// an empty end block.
type Program struct {
	// Start is the offset of the init block inside the sub-section.
	Start  uint32  `json:"start"`
	Blocks []Block `json:"blocks"`
}

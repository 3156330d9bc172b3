// Package reftable holds the read-only name tables used to decode and encode
// monster files: opcode metadata, comparators, AI variables and targets, and
// the id/name lists for magic, items, cards, devour effects, abilities and
// special actions.
//
// A Tables value is immutable once built and safe for concurrent use.
package reftable

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

var ErrInvalidTable = errors.New("reftable: invalid table")

// Kind selects one of the id/name lists.
type Kind string

const (
	KindMagic         Kind = "magic"
	KindItem          Kind = "items"
	KindCard          Kind = "cards"
	KindDevour        Kind = "devour"
	KindAbility       Kind = "abilities"
	KindAbilityType   Kind = "ability_types"
	KindSpecialAction Kind = "special_actions"
	KindVariable      Kind = "variables"
	KindTarget        Kind = "targets"
)

// Entry is one id/name pair.
type Entry struct {
	ID   int    `json:"id" yaml:"id" toml:"id"`
	Name string `json:"name" yaml:"name" toml:"name"`
}

// Opcode describes one AI instruction.
type Opcode struct {
	Code uint8  `json:"code" yaml:"code" toml:"code"`
	Name string `json:"name" yaml:"name" toml:"name"`
	Size int    `json:"size" yaml:"size" toml:"size"`
}

// Document is the on-disk layout of a table file.
type Document struct {
	Opcodes        []Opcode `json:"opcodes" yaml:"opcodes" toml:"opcodes"`
	Comparators    []string `json:"comparators" yaml:"comparators" toml:"comparators"`
	Variables      []Entry  `json:"variables" yaml:"variables" toml:"variables"`
	Targets        []Entry  `json:"targets" yaml:"targets" toml:"targets"`
	Magic          []Entry  `json:"magic" yaml:"magic" toml:"magic"`
	Items          []Entry  `json:"items" yaml:"items" toml:"items"`
	Cards          []Entry  `json:"cards" yaml:"cards" toml:"cards"`
	Devour         []Entry  `json:"devour" yaml:"devour" toml:"devour"`
	Abilities      []Entry  `json:"abilities" yaml:"abilities" toml:"abilities"`
	AbilityTypes   []Entry  `json:"ability_types" yaml:"ability_types" toml:"ability_types"`
	SpecialActions []Entry  `json:"special_actions" yaml:"special_actions" toml:"special_actions"`
	Elements       []string `json:"elements" yaml:"elements" toml:"elements"`
	Statuses       []string `json:"statuses" yaml:"statuses" toml:"statuses"`
}

type list struct {
	entries []Entry
	byID    map[int]string
	byName  map[string]int
}

// Tables is the immutable lookup service built from a Document.
type Tables struct {
	opcodes     map[uint8]Opcode
	comparators []string
	lists       map[Kind]*list
	elements    []string
	statuses    []string
}

//go:embed data/ff8.json
var defaultJSON []byte

var (
	defaultOnce   sync.Once
	defaultTables *Tables
)

// Default returns the tables shipped with the binary.
func Default() *Tables {
	defaultOnce.Do(func() {
		t, err := Parse(defaultJSON)
		if err != nil {
			panic(fmt.Sprintf("reftable: embedded tables: %v", err))
		}
		defaultTables = t
	})
	return defaultTables
}

// Parse builds tables from JSON.
func Parse(data []byte) (*Tables, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	return New(doc)
}

// Load reads a table file. The format follows the extension: .json, .yaml,
// .yml or .toml.
func Load(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var doc Document
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &doc)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	case ".toml":
		err = toml.Unmarshal(data, &doc)
	default:
		return nil, fmt.Errorf("%w: unsupported table format %q", ErrInvalidTable, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalidTable, path, err)
	}
	t, err := New(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// New validates doc and builds the lookup maps. doc is copied.
func New(doc Document) (*Tables, error) {
	t := &Tables{
		opcodes:     make(map[uint8]Opcode, len(doc.Opcodes)),
		comparators: slices.Clone(doc.Comparators),
		lists:       make(map[Kind]*list),
		elements:    slices.Clone(doc.Elements),
		statuses:    slices.Clone(doc.Statuses),
	}
	for _, op := range doc.Opcodes {
		if _, dup := t.opcodes[op.Code]; dup {
			return nil, fmt.Errorf("%w: duplicate opcode %#02x", ErrInvalidTable, op.Code)
		}
		if op.Size < 0 || op.Size > 0xFF {
			return nil, fmt.Errorf("%w: opcode %#02x has operand size %d", ErrInvalidTable, op.Code, op.Size)
		}
		t.opcodes[op.Code] = op
	}
	if len(t.comparators) == 0 {
		return nil, fmt.Errorf("%w: no comparators", ErrInvalidTable)
	}

	sources := map[Kind][]Entry{
		KindMagic:         doc.Magic,
		KindItem:          doc.Items,
		KindCard:          doc.Cards,
		KindDevour:        doc.Devour,
		KindAbility:       doc.Abilities,
		KindAbilityType:   doc.AbilityTypes,
		KindSpecialAction: doc.SpecialActions,
		KindVariable:      doc.Variables,
		KindTarget:        doc.Targets,
	}
	for kind, entries := range sources {
		l := &list{
			entries: slices.Clone(entries),
			byID:    make(map[int]string, len(entries)),
			byName:  make(map[string]int, len(entries)),
		}
		for _, e := range entries {
			if _, dup := l.byID[e.ID]; dup {
				return nil, fmt.Errorf("%w: duplicate %s id %d", ErrInvalidTable, kind, e.ID)
			}
			l.byID[e.ID] = e.Name
			if _, seen := l.byName[e.Name]; !seen {
				l.byName[e.Name] = e.ID
			}
		}
		t.lists[kind] = l
	}
	return t, nil
}

// Opcode returns the metadata of code.
func (t *Tables) Opcode(code uint8) (Opcode, bool) {
	op, ok := t.opcodes[code]
	return op, ok
}

// Opcodes returns every known opcode ordered by code.
func (t *Tables) Opcodes() []Opcode {
	out := make([]Opcode, 0, len(t.opcodes))
	for _, op := range t.opcodes {
		out = append(out, op)
	}
	slices.SortFunc(out, func(a, b Opcode) int { return int(a.Code) - int(b.Code) })
	return out
}

// Comparator returns the symbol at index i.
func (t *Tables) Comparator(i int) (string, bool) {
	if i < 0 || i >= len(t.comparators) {
		return "", false
	}
	return t.comparators[i], true
}

// ComparatorIndex is the inverse of Comparator.
func (t *Tables) ComparatorIndex(symbol string) (int, bool) {
	i := slices.Index(t.comparators, symbol)
	return i, i >= 0
}

// Name resolves id in the list of the given kind.
func (t *Tables) Name(kind Kind, id int) (string, bool) {
	l, ok := t.lists[kind]
	if !ok {
		return "", false
	}
	name, ok := l.byID[id]
	return name, ok
}

// ID resolves name in the list of the given kind. When a name appears more
// than once, the first entry wins.
func (t *Tables) ID(kind Kind, name string) (int, bool) {
	l, ok := t.lists[kind]
	if !ok {
		return 0, false
	}
	id, ok := l.byName[name]
	return id, ok
}

// Entries returns a copy of the list of the given kind.
func (t *Tables) Entries(kind Kind) []Entry {
	l, ok := t.lists[kind]
	if !ok {
		return nil
	}
	return slices.Clone(l.entries)
}

func (t *Tables) VariableName(id uint8) (string, bool) {
	return t.Name(KindVariable, int(id))
}

func (t *Tables) VariableID(name string) (uint8, bool) {
	id, ok := t.ID(KindVariable, name)
	if !ok || id < 0 || id > 0xFF {
		return 0, false
	}
	return uint8(id), true
}

func (t *Tables) TargetName(id uint8) (string, bool) {
	return t.Name(KindTarget, int(id))
}

// Elements returns the elemental resistance labels in file order.
func (t *Tables) Elements() []string { return slices.Clone(t.elements) }

// Statuses returns the status resistance labels in file order.
func (t *Tables) Statuses() []string { return slices.Clone(t.statuses) }

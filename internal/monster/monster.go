// Package monster ties the container, stat, text and AI codecs together into
// one editable record per monster file.
package monster

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"

	"github.com/LudovicGuerra/ifrit-enhanced/internal/ai"
	"github.com/LudovicGuerra/ifrit-enhanced/internal/combattext"
	"github.com/LudovicGuerra/ifrit-enhanced/internal/reftable"
	"github.com/LudovicGuerra/ifrit-enhanced/internal/stat"
	"github.com/LudovicGuerra/ifrit-enhanced/pkg/dat"
)

var (
	ErrBadLabel  = errors.New("monster: label is not c0m###.dat")
	ErrNoProgram = errors.New("monster: AI was not decoded")
)

var labelPattern = regexp.MustCompile(`(?i)^c0m(\d{3})\.dat$`)

// FileIndex returns the monster index embedded in a file name such as
// c0m042.dat.
func FileIndex(label string) (int, error) {
	m := labelPattern.FindStringSubmatch(filepath.Base(label))
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrBadLabel, label)
	}
	return strconv.Atoi(m[1])
}

// DecodeOptions controls the optional parts of Decode.
type DecodeOptions struct {
	// AI disassembles the AI sub-section.
	AI bool
}

// EncodeOptions controls the optional parts of Encode.
type EncodeOptions struct {
	// ReencodeAI assembles Record.AI and relocates the file around it.
	ReencodeAI bool
}

// Record is one decoded monster file. It owns a private copy of the file
// bytes and never aliases the buffer given to Decode. A Record is not safe
// for concurrent use.
type Record struct {
	Label string `json:"label"`
	// Index is -1 when the label carries none.
	Index int `json:"index"`

	Header    dat.Header       `json:"header"`
	Info      *stat.Info       `json:"info"`
	Script    dat.ScriptHeader `json:"battle_script"`
	AIOffsets ai.Offsets       `json:"ai_offsets"`
	AI        *ai.Program      `json:"ai,omitempty"`
	Texts     []string         `json:"battle_text"`

	Sound   []byte `json:"-"`
	Unknown []byte `json:"-"`
	Texture []byte `json:"-"`

	raw    []byte
	texts  []string
	tables *reftable.Tables
}

// Decode parses a monster file. data is copied.
func Decode(label string, data []byte, tables *reftable.Tables, opts DecodeOptions) (*Record, error) {
	raw := bytes.Clone(data)
	h, err := dat.DecodeHeader(raw)
	if err != nil {
		return nil, err
	}
	if err := h.Validate(len(raw)); err != nil {
		return nil, err
	}
	if h.SectionCount < dat.SectionCount {
		return nil, dat.Errorf(dat.ErrSectionIndexOutOfRange, "%d sections, want %d", h.SectionCount, dat.SectionCount)
	}

	info, err := stat.Decode(sectionsOf(raw, h))
	if err != nil {
		return nil, err
	}

	script, err := dat.SectionBytes(raw, h, dat.SectionBattleScript)
	if err != nil {
		return nil, err
	}
	sh, err := dat.DecodeScriptHeader(script)
	if err != nil {
		return nil, err
	}
	texts, err := combattext.Decode(script, sh)
	if err != nil {
		return nil, fmt.Errorf("battle text: %w", err)
	}

	r := &Record{
		Label:  label,
		Index:  -1,
		Header: h,
		Info:   info,
		Script: sh,
		Texts:  texts,
		raw:    raw,
		texts:  slices.Clone(texts),
		tables: tables,
	}
	if idx, err := FileIndex(label); err == nil {
		r.Index = idx
	}

	if opts.AI {
		prog, offs, err := ai.Disassemble(script, sh, tables)
		if err != nil {
			return nil, fmt.Errorf("ai: %w", err)
		}
		r.AI = prog
		r.AIOffsets = offs
	} else {
		offs, err := ai.ReadOffsets(script[sh.AISub:sh.TextOffset])
		if err != nil {
			return nil, fmt.Errorf("ai: %w", err)
		}
		r.AIOffsets = offs
	}

	if err := r.loadBlobs(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Record) loadBlobs() error {
	for _, b := range r.blobs() {
		sec, err := dat.SectionBytes(r.raw, r.Header, b.section)
		if err != nil {
			return err
		}
		*b.data = bytes.Clone(sec)
	}
	return nil
}

type blob struct {
	section dat.Section
	data    *[]byte
}

func (r *Record) blobs() []blob {
	return []blob{
		{dat.SectionSound, &r.Sound},
		{dat.SectionUnknown10, &r.Unknown},
		{dat.SectionTexture, &r.Texture},
	}
}

func sectionsOf(buf []byte, h dat.Header) stat.SectionFunc {
	return func(s dat.Section) ([]byte, error) {
		return dat.SectionBytes(buf, h, s)
	}
}

// Bytes returns a copy of the current file bytes.
func (r *Record) Bytes() []byte {
	return bytes.Clone(r.raw)
}

// Encode writes the record back to a new buffer. Stat fields are always
// written; the AI program only with ReencodeAI; the battle text only when
// it differs from what was decoded. On success the record adopts the new
// layout. On failure it is left as it was.
func (r *Record) Encode(opts EncodeOptions) ([]byte, error) {
	buf := bytes.Clone(r.raw)
	h := r.Header.Clone()
	sh := r.Script
	var err error

	if err := stat.Encode(r.Info, sectionsOf(buf, h)); err != nil {
		return nil, err
	}

	if opts.ReencodeAI {
		if r.AI == nil {
			return nil, ErrNoProgram
		}
		buf, h, sh, err = ai.Relocate(buf, h, sh, r.AI, r.tables)
		if err != nil {
			return nil, fmt.Errorf("ai: %w", err)
		}
	}

	if !slices.Equal(r.Texts, r.texts) {
		buf, h, sh, err = combattext.Rewrite(buf, h, sh, r.Texts)
		if err != nil {
			return nil, fmt.Errorf("battle text: %w", err)
		}
	}

	for _, b := range r.blobs() {
		start, end, err := h.Range(b.section)
		if err != nil {
			return nil, err
		}
		if bytes.Equal(buf[start:end], *b.data) {
			continue
		}
		buf, h, err = dat.Splice(buf, h, b.section, int(start), int(end), *b.data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.section, err)
		}
	}

	if int(h.FileSize) != len(buf) {
		return nil, dat.Errorf(dat.ErrRelocationInconsistent, "file size %d, buffer holds %d bytes", h.FileSize, len(buf))
	}
	script, err := dat.SectionBytes(buf, h, dat.SectionBattleScript)
	if err != nil {
		return nil, err
	}
	offs, err := ai.ReadOffsets(script[sh.AISub:sh.TextOffset])
	if err != nil {
		return nil, err
	}

	r.raw = buf
	r.Header = h
	r.Script = sh
	r.AIOffsets = offs
	r.texts = slices.Clone(r.Texts)
	return bytes.Clone(buf), nil
}

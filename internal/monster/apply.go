package monster

import (
	"fmt"
	"slices"

	"github.com/goccy/go-json"

	"github.com/LudovicGuerra/ifrit-enhanced/internal/ai"
	"github.com/LudovicGuerra/ifrit-enhanced/internal/fftext"
	"github.com/LudovicGuerra/ifrit-enhanced/internal/stat"
)

const (
	keyBattleText = "battle_text"
	keyAI         = "ai"
)

// ApplyJSON applies a JSON object of edits. Keys are stat field names,
// "battle_text" for the combat texts or "ai" for a whole program. Every
// edit is checked before any is applied.
func (r *Record) ApplyJSON(patch []byte) error {
	var edits map[string]json.RawMessage
	if err := json.Unmarshal(patch, &edits); err != nil {
		return fmt.Errorf("monster: patch: %w", err)
	}

	info := *r.Info
	texts := r.Texts
	prog := r.AI

	keys := make([]string, 0, len(edits))
	for k := range edits {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		raw := edits[k]
		switch k {
		case keyBattleText:
			var next []string
			if err := json.Unmarshal(raw, &next); err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
			for i, s := range next {
				if _, err := fftext.Encode(s); err != nil {
					return fmt.Errorf("%s[%d]: %w", k, i, err)
				}
			}
			texts = next

		case keyAI:
			var next ai.Program
			if err := json.Unmarshal(raw, &next); err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
			if _, _, err := ai.Assemble(&next, r.tables); err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
			prog = &next

		default:
			if err := info.SetJSON(k, raw); err != nil {
				return err
			}
		}
	}

	r.Info = &info
	r.Texts = texts
	r.AI = prog
	return nil
}

// Field returns a stat field by name.
func (r *Record) Field(name string) (any, error) {
	if r.Info == nil {
		return nil, fmt.Errorf("%w: %q", stat.ErrUnknownField, name)
	}
	return r.Info.Field(name)
}

package monster

import (
	"github.com/LudovicGuerra/ifrit-enhanced/internal/reftable"
	"github.com/LudovicGuerra/ifrit-enhanced/internal/stat"
)

// NamedPair is an item pair with its resolved name.
type NamedPair struct {
	ID     uint8  `json:"id"`
	Name   string `json:"name"`
	Amount uint8  `json:"amount"`
}

// NamedAbility is an ability slot with its type and ability resolved.
type NamedAbility struct {
	Type      string `json:"type"`
	ID        uint16 `json:"id"`
	Name      string `json:"name"`
	Animation uint8  `json:"animation"`
}

// NamedResist is one elemental or status resistance with its label.
type NamedResist struct {
	Name    string `json:"name"`
	Percent int    `json:"percent"`
}

// Names is a read-only view of the stat block with every id looked up in
// the reference tables. An id missing from its table keeps an empty name.
type Names struct {
	LowMag   []NamedPair `json:"low_lvl_mag"`
	MedMag   []NamedPair `json:"med_lvl_mag"`
	HighMag  []NamedPair `json:"high_lvl_mag"`
	LowMug   []NamedPair `json:"low_lvl_mug"`
	MedMug   []NamedPair `json:"med_lvl_mug"`
	HighMug  []NamedPair `json:"high_lvl_mug"`
	LowDrop  []NamedPair `json:"low_lvl_drop"`
	MedDrop  []NamedPair `json:"med_lvl_drop"`
	HighDrop []NamedPair `json:"high_lvl_drop"`

	AbilitiesLow  []NamedAbility `json:"abilities_low"`
	AbilitiesMed  []NamedAbility `json:"abilities_med"`
	AbilitiesHigh []NamedAbility `json:"abilities_high"`

	// Card holds the drop, mod and rare mod cards.
	Card []reftable.Entry `json:"card"`
	// Devour holds the low, medium and high level effects.
	Devour     []reftable.Entry `json:"devour"`
	Renzokuken []reftable.Entry `json:"renzokuken"`

	ElemDef   []NamedResist `json:"elem_def"`
	StatusDef []NamedResist `json:"status_def"`
}

// Resolved marshals a Record with its Names view alongside.
type Resolved struct {
	*Record
	Names *Names `json:"names"`
}

// Names resolves the record's stat block against its tables.
func (r *Record) Names() *Names {
	return ResolveNames(r.Info, r.tables)
}

// ResolveNames builds the Names view of info. A nil tables uses the
// built-in ones.
func ResolveNames(info *stat.Info, tables *reftable.Tables) *Names {
	if tables == nil {
		tables = reftable.Default()
	}
	lookup := func(kind reftable.Kind, id int) string {
		name, _ := tables.Name(kind, id)
		return name
	}
	pairs := func(kind reftable.Kind, in []stat.ItemPair) []NamedPair {
		out := make([]NamedPair, len(in))
		for i, p := range in {
			out[i] = NamedPair{ID: p.ID, Name: lookup(kind, int(p.ID)), Amount: p.Amount}
		}
		return out
	}
	abilities := func(in []stat.Ability) []NamedAbility {
		out := make([]NamedAbility, len(in))
		for i, a := range in {
			typ := lookup(reftable.KindAbilityType, int(a.Type))
			out[i] = NamedAbility{
				Type:      typ,
				ID:        a.ID,
				Name:      lookup(abilityKind(typ), int(a.ID)),
				Animation: a.Animation,
			}
		}
		return out
	}
	entries := func(kind reftable.Kind, ids []int) []reftable.Entry {
		out := make([]reftable.Entry, len(ids))
		for i, id := range ids {
			out[i] = reftable.Entry{ID: id, Name: lookup(kind, id)}
		}
		return out
	}
	resists := func(labels []string, values []int) []NamedResist {
		out := make([]NamedResist, len(values))
		for i, v := range values {
			out[i].Percent = v
			if i < len(labels) {
				out[i].Name = labels[i]
			}
		}
		return out
	}

	n := &Names{
		LowMag:        pairs(reftable.KindMagic, info.LowMag),
		MedMag:        pairs(reftable.KindMagic, info.MedMag),
		HighMag:       pairs(reftable.KindMagic, info.HighMag),
		LowMug:        pairs(reftable.KindItem, info.LowMug),
		MedMug:        pairs(reftable.KindItem, info.MedMug),
		HighMug:       pairs(reftable.KindItem, info.HighMug),
		LowDrop:       pairs(reftable.KindItem, info.LowDrop),
		MedDrop:       pairs(reftable.KindItem, info.MedDrop),
		HighDrop:      pairs(reftable.KindItem, info.HighDrop),
		AbilitiesLow:  abilities(info.AbilitiesLow),
		AbilitiesMed:  abilities(info.AbilitiesMed),
		AbilitiesHigh: abilities(info.AbilitiesHigh),
		Card:          entries(reftable.KindCard, bytesToInts(info.Card)),
		Devour:        entries(reftable.KindDevour, bytesToInts(info.Devour)),
		ElemDef:       resists(tables.Elements(), info.ElemDef),
		StatusDef:     resists(tables.Statuses(), info.StatusDef),
	}
	renzo := make([]int, len(info.Renzokuken))
	for i, v := range info.Renzokuken {
		renzo[i] = int(v)
	}
	n.Renzokuken = entries(reftable.KindSpecialAction, renzo)
	return n
}

// abilityKind picks the table an ability id indexes: magic and item slots
// point into those lists, everything else is a monster ability.
func abilityKind(typ string) reftable.Kind {
	switch typ {
	case "Magic":
		return reftable.KindMagic
	case "Item":
		return reftable.KindItem
	default:
		return reftable.KindAbility
	}
}

func bytesToInts(b []byte) []int {
	out := make([]int, len(b))
	for i, v := range b {
		out[i] = int(v)
	}
	return out
}

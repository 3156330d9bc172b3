// Package stat decodes and encodes the fixed-layout monster stat block.
//
// Every field is described once in Fields. The descriptor names the section
// holding the field, its offset and width, and a Kind selecting the numeric
// contract used in both directions. Decode and Encode walk the table; the
// single-field entry points DecodeField and EncodeField are pure.
package stat

import (
	"encoding/binary"
	"errors"

	"github.com/LudovicGuerra/ifrit-enhanced/pkg/dat"
)

var (
	ErrFieldOverflow = errors.New("stat: value does not fit field")
	ErrUnknownField  = errors.New("stat: unknown field")
)

// Kind selects how a field's bytes map to a value.
type Kind int

const (
	KindRawBytes     Kind = iota // ByteList
	KindUnsigned                 // uint32
	KindItemPairs                // []ItemPair
	KindRate                     // float64 percentage
	KindElemResist               // []int percentage
	KindStatusResist             // []int percentage
	KindAbilities                // []Ability
	KindFlags                    // Flags
	KindName                     // string
	KindU16List                  // []uint16
)

var kindNames = [...]string{
	KindRawBytes:     "raw_bytes",
	KindUnsigned:     "unsigned",
	KindItemPairs:    "item_pairs",
	KindRate:         "rate",
	KindElemResist:   "elem_resist",
	KindStatusResist: "status_resist",
	KindAbilities:    "abilities",
	KindFlags:        "flags",
	KindName:         "name",
	KindU16List:      "u16_list",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Descriptor locates one field and selects its codec.
type Descriptor struct {
	Name    string
	Section dat.Section
	Offset  int
	Size    int
	Order   binary.ByteOrder
	Kind    Kind
	// Bits names each bit of a KindFlags byte, least significant first.
	Bits []string

	bind func(*Info) any
}

func (d Descriptor) order() binary.ByteOrder {
	if d.Order == nil {
		return binary.LittleEndian
	}
	return d.Order
}

// ByteList marshals as a JSON array of numbers rather than base64.
type ByteList []byte

// ItemPair is one (item id, amount) slot of a draw, mug or drop tier.
type ItemPair struct {
	ID     uint8 `json:"id"`
	Amount uint8 `json:"amount"`
}

// Ability is one 4-byte ability slot.
type Ability struct {
	Type      uint8  `json:"type"`
	Animation uint8  `json:"animation"`
	ID        uint16 `json:"id"`
}

// Flags maps bit names to their state.
type Flags map[string]bool

// Info is the decoded stat block of one monster.
type Info struct {
	NbAnimation uint32 `json:"nb_animation"`

	Name string   `json:"monster_name"`
	HP   ByteList `json:"hp"`
	Str  ByteList `json:"str"`
	Vit  ByteList `json:"vit"`
	Mag  ByteList `json:"mag"`
	Spr  ByteList `json:"spr"`
	Spd  ByteList `json:"spd"`
	Eva  ByteList `json:"eva"`

	AbilitiesLow  []Ability `json:"abilities_low"`
	AbilitiesMed  []Ability `json:"abilities_med"`
	AbilitiesHigh []Ability `json:"abilities_high"`

	MedLvl    uint32 `json:"med_lvl"`
	HighLvl   uint32 `json:"high_lvl"`
	ByteFlag0 Flags  `json:"byte_flag_0"`
	ByteFlag1 Flags  `json:"byte_flag_1"`
	ByteFlag2 Flags  `json:"byte_flag_2"`
	ByteFlag3 Flags  `json:"byte_flag_3"`

	Card    ByteList `json:"card"`
	Devour  ByteList `json:"devour"`
	ExtraXP uint32   `json:"extra_xp"`
	XP      uint32   `json:"xp"`

	LowMag   []ItemPair `json:"low_lvl_mag"`
	MedMag   []ItemPair `json:"med_lvl_mag"`
	HighMag  []ItemPair `json:"high_lvl_mag"`
	LowMug   []ItemPair `json:"low_lvl_mug"`
	MedMug   []ItemPair `json:"med_lvl_mug"`
	HighMug  []ItemPair `json:"high_lvl_mug"`
	LowDrop  []ItemPair `json:"low_lvl_drop"`
	MedDrop  []ItemPair `json:"med_lvl_drop"`
	HighDrop []ItemPair `json:"high_lvl_drop"`

	MugRate  float64 `json:"mug_rate"`
	DropRate float64 `json:"drop_rate"`
	AP       uint32  `json:"ap"`

	Renzokuken []uint16 `json:"renzokuken"`
	ElemDef    []int    `json:"elem_def"`
	StatusDef  []int    `json:"status_def"`
}

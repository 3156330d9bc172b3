package stat

import "github.com/LudovicGuerra/ifrit-enhanced/pkg/dat"

// Bit names of the four flag bytes, least significant bit first.
var (
	ByteFlag0Bits = []string{"zombie", "fly", "zz1", "zz2", "zz3", "auto_reflect", "auto_shell", "auto_protect"}
	ByteFlag1Bits = []string{"zz1", "zz2", "zz3", "unused4", "unused5", "unused6", "unused7", "unused8"}
	ByteFlag2Bits = []string{"diablos_missed", "always_obtain_card", "unused3", "unused4", "unused5", "unused6", "unused7", "unused8"}
	ByteFlag3Bits = []string{"unused1", "unused2", "unused3", "unused4", "unused5", "unused6", "unused7", "unused8"}
)

const (
	statSize    = 4
	abilitySize = 64
	pairsSize   = 8
)

func info(name string, off, size int, kind Kind, bind func(*Info) any) Descriptor {
	return Descriptor{Name: name, Section: dat.SectionInfoStat, Offset: off, Size: size, Kind: kind, bind: bind}
}

func flags(name string, off int, bits []string, bind func(*Info) any) Descriptor {
	d := info(name, off, 1, KindFlags, bind)
	d.Bits = bits
	return d
}

// Fields lists every decoded field in file order.
var Fields = []Descriptor{
	{Name: "nb_animation", Section: dat.SectionModelAnimation, Offset: 0x00, Size: 4, Kind: KindUnsigned,
		bind: func(i *Info) any { return &i.NbAnimation }},

	info("monster_name", 0x00, 24, KindName, func(i *Info) any { return &i.Name }),
	info("hp", 0x18, statSize, KindRawBytes, func(i *Info) any { return &i.HP }),
	info("str", 0x1C, statSize, KindRawBytes, func(i *Info) any { return &i.Str }),
	info("vit", 0x20, statSize, KindRawBytes, func(i *Info) any { return &i.Vit }),
	info("mag", 0x24, statSize, KindRawBytes, func(i *Info) any { return &i.Mag }),
	info("spr", 0x28, statSize, KindRawBytes, func(i *Info) any { return &i.Spr }),
	info("spd", 0x2C, statSize, KindRawBytes, func(i *Info) any { return &i.Spd }),
	info("eva", 0x30, statSize, KindRawBytes, func(i *Info) any { return &i.Eva }),

	info("abilities_low", 0x34, abilitySize, KindAbilities, func(i *Info) any { return &i.AbilitiesLow }),
	info("abilities_med", 0x74, abilitySize, KindAbilities, func(i *Info) any { return &i.AbilitiesMed }),
	info("abilities_high", 0xB4, abilitySize, KindAbilities, func(i *Info) any { return &i.AbilitiesHigh }),

	info("med_lvl", 0xF4, 1, KindUnsigned, func(i *Info) any { return &i.MedLvl }),
	info("high_lvl", 0xF5, 1, KindUnsigned, func(i *Info) any { return &i.HighLvl }),
	flags("byte_flag_0", 0xF6, ByteFlag0Bits, func(i *Info) any { return &i.ByteFlag0 }),
	flags("byte_flag_1", 0xF7, ByteFlag1Bits, func(i *Info) any { return &i.ByteFlag1 }),
	info("card", 0xF8, 3, KindRawBytes, func(i *Info) any { return &i.Card }),
	info("devour", 0xFB, 3, KindRawBytes, func(i *Info) any { return &i.Devour }),
	flags("byte_flag_2", 0xFE, ByteFlag2Bits, func(i *Info) any { return &i.ByteFlag2 }),
	flags("byte_flag_3", 0xFF, ByteFlag3Bits, func(i *Info) any { return &i.ByteFlag3 }),
	info("extra_xp", 0x100, 2, KindUnsigned, func(i *Info) any { return &i.ExtraXP }),
	info("xp", 0x102, 2, KindUnsigned, func(i *Info) any { return &i.XP }),

	info("low_lvl_mag", 0x104, pairsSize, KindItemPairs, func(i *Info) any { return &i.LowMag }),
	info("med_lvl_mag", 0x10C, pairsSize, KindItemPairs, func(i *Info) any { return &i.MedMag }),
	info("high_lvl_mag", 0x114, pairsSize, KindItemPairs, func(i *Info) any { return &i.HighMag }),
	info("low_lvl_mug", 0x11C, pairsSize, KindItemPairs, func(i *Info) any { return &i.LowMug }),
	info("med_lvl_mug", 0x124, pairsSize, KindItemPairs, func(i *Info) any { return &i.MedMug }),
	info("high_lvl_mug", 0x12C, pairsSize, KindItemPairs, func(i *Info) any { return &i.HighMug }),
	info("low_lvl_drop", 0x134, pairsSize, KindItemPairs, func(i *Info) any { return &i.LowDrop }),
	info("med_lvl_drop", 0x13C, pairsSize, KindItemPairs, func(i *Info) any { return &i.MedDrop }),
	info("high_lvl_drop", 0x144, pairsSize, KindItemPairs, func(i *Info) any { return &i.HighDrop }),

	info("mug_rate", 0x14C, 1, KindRate, func(i *Info) any { return &i.MugRate }),
	info("drop_rate", 0x14D, 1, KindRate, func(i *Info) any { return &i.DropRate }),
	info("ap", 0x14F, 1, KindUnsigned, func(i *Info) any { return &i.AP }),
	info("renzokuken", 0x150, 16, KindU16List, func(i *Info) any { return &i.Renzokuken }),
	info("elem_def", 0x160, 8, KindElemResist, func(i *Info) any { return &i.ElemDef }),
	info("status_def", 0x168, 20, KindStatusResist, func(i *Info) any { return &i.StatusDef }),
}

// InfoSize is the smallest stat section holding every field.
const InfoSize = 0x168 + 20

var fieldIndex = func() map[string]int {
	m := make(map[string]int, len(Fields))
	for i, d := range Fields {
		m[d.Name] = i
	}
	return m
}()

// Lookup returns the descriptor of the named field.
func Lookup(name string) (Descriptor, bool) {
	i, ok := fieldIndex[name]
	if !ok {
		return Descriptor{}, false
	}
	return Fields[i], true
}

// Names returns the field names in table order.
func Names() []string {
	out := make([]string, len(Fields))
	for i, d := range Fields {
		out[i] = d.Name
	}
	return out
}

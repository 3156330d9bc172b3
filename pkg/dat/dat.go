// Package dat implements the FF8 battle monster container (c0m###.dat).
//
// A monster file is a flat byte buffer. It starts with a header holding the
// section count, the absolute offset of every section and the total file
// size, followed by the sections laid out back to back. The last section
// ends at the file size recorded in the header.
//
// Every field of the container is little-endian. Widths and byte orders are
// format constants and are never configurable.
package dat

import "strconv"

// SectionCount is the number of sections of a monster file, header excluded.
const SectionCount = 11

// Section indexes the header offset table. Index 0 is the header itself.
type Section int

const (
	SectionHeader Section = iota
	SectionSkeleton
	SectionModelGeometry
	SectionModelAnimation
	SectionUnknown4
	SectionUnknown5
	SectionUnknown6
	SectionInfoStat
	SectionBattleScript
	SectionSound
	SectionUnknown10
	SectionTexture
)

var sectionNames = [...]string{
	SectionHeader:         "header",
	SectionSkeleton:       "skeleton",
	SectionModelGeometry:  "model_geometry",
	SectionModelAnimation: "model_animation",
	SectionUnknown4:       "unknown_section4",
	SectionUnknown5:       "unknown_section5",
	SectionUnknown6:       "unknown_section6",
	SectionInfoStat:       "info_stat",
	SectionBattleScript:   "battle_script",
	SectionSound:          "sound",
	SectionUnknown10:      "unknown_section10",
	SectionTexture:        "texture",
}

func (s Section) String() string {
	if s >= 0 && int(s) < len(sectionNames) {
		return sectionNames[s]
	}
	return "section" + strconv.Itoa(int(s))
}

package stat

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"slices"
	"sort"
	"testing"

	"github.com/LudovicGuerra/ifrit-enhanced/pkg/dat"
)

func TestRateClosureOverRawSpace(t *testing.T) {
	t.Parallel()

	for r := 0; r <= 255; r++ {
		got, err := EncodeRate(DecodeRate(uint8(r)))
		if err != nil {
			t.Fatalf("raw %d: %v", r, err)
		}
		if int(got) != r {
			t.Fatalf("raw %d: got %d after round trip", r, got)
		}
	}
}

func TestRateIsLossyInPercentSpace(t *testing.T) {
	t.Parallel()

	raw, err := EncodeRate(50)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if raw != 128 {
		t.Fatalf("50%%: got %d want 128", raw)
	}
	if back := DecodeRate(raw); back == 50 {
		t.Fatalf("50%% unexpectedly survived quantization")
	}
	if _, err := EncodeRate(101); !errors.Is(err, ErrFieldOverflow) {
		t.Fatalf("expected ErrFieldOverflow for 101%%, got %v", err)
	}
	if _, err := EncodeRate(math.NaN()); !errors.Is(err, ErrFieldOverflow) {
		t.Fatalf("expected ErrFieldOverflow for NaN, got %v", err)
	}
}

func TestElemClosure(t *testing.T) {
	t.Parallel()

	for r := 0; r <= 255; r++ {
		got, err := EncodeElem(DecodeElem(uint8(r)))
		if err != nil {
			t.Fatalf("raw %d: %v", r, err)
		}
		if int(got) != r {
			t.Fatalf("raw %d: got %d", r, got)
		}
	}
	// 895 is not a multiple of 10 away from 900 and floors to 0.
	if got, _ := EncodeElem(895); got != 0 {
		t.Fatalf("895%%: got %d want 0", got)
	}
	if _, err := EncodeElem(901); !errors.Is(err, ErrFieldOverflow) {
		t.Fatalf("expected ErrFieldOverflow, got %v", err)
	}
}

func TestStatusExactInverse(t *testing.T) {
	t.Parallel()

	for r := 0; r <= 255; r++ {
		got, err := EncodeStatus(DecodeStatus(uint8(r)))
		if err != nil || int(got) != r {
			t.Fatalf("raw %d: got %d err %v", r, got, err)
		}
	}
	if _, err := EncodeStatus(-101); !errors.Is(err, ErrFieldOverflow) {
		t.Fatalf("expected ErrFieldOverflow, got %v", err)
	}
}

func TestSingleSectionStatRoundTrip(t *testing.T) {
	t.Parallel()

	h := dat.Header{SectionCount: 1, Offsets: []uint32{0, 12}, FileSize: 16}
	buf := append(dat.EncodeHeader(h), 10, 20, 30, 40)

	decoded, err := dat.DecodeHeader(buf)
	if err != nil {
		t.Fatalf("decode header: %v", err)
	}
	sec, err := dat.SectionBytes(buf, decoded, 1)
	if err != nil {
		t.Fatalf("section: %v", err)
	}

	hp := Descriptor{Name: "hp", Section: 1, Offset: 0, Size: 4, Kind: KindRawBytes}
	v, err := DecodeField(sec[hp.Offset:hp.Offset+hp.Size], hp)
	if err != nil {
		t.Fatalf("decode field: %v", err)
	}
	if got := v.(ByteList); !bytes.Equal(got, []byte{10, 20, 30, 40}) {
		t.Fatalf("hp: got %v want [10 20 30 40]", got)
	}

	raw, err := EncodeField(v, hp)
	if err != nil {
		t.Fatalf("encode field: %v", err)
	}
	if !bytes.Equal(raw, buf[12:16]) {
		t.Fatalf("re-encoded hp: got %v want %v", raw, buf[12:16])
	}
}

// sampleSections builds a stat section and an animation section with
// recognizable content in every field.
func sampleSections() map[dat.Section][]byte {
	info := make([]byte, InfoSize)
	copy(info[0x00:], []byte{0x46, 0x6D, 0x6B, 0x60}) // "Bomb"
	copy(info[0x18:], []byte{10, 20, 30, 40})
	for i := 0x1C; i < 0x34; i++ {
		info[i] = byte(i)
	}
	for i := 0x34; i < 0xF4; i++ {
		info[i] = byte(i * 7)
	}
	info[0xF4] = 20
	info[0xF5] = 40
	info[0xF6] = 0x03
	info[0xF7] = 0x80
	copy(info[0xF8:], []byte{1, 2, 3, 4, 5, 6})
	info[0xFE] = 0x02
	info[0xFF] = 0x00
	binary.LittleEndian.PutUint16(info[0x100:], 300)
	binary.LittleEndian.PutUint16(info[0x102:], 1234)
	for i := 0x104; i < 0x14C; i++ {
		info[i] = byte(i)
	}
	info[0x14C] = 128
	info[0x14D] = 255
	info[0x14F] = 9
	for i := 0; i < 8; i++ {
		binary.LittleEndian.PutUint16(info[0x150+2*i:], uint16(0x100+i))
	}
	for i := 0; i < 8; i++ {
		info[0x160+i] = byte(90 + i*10)
	}
	for i := 0; i < 20; i++ {
		info[0x168+i] = byte(100 + i*5)
	}

	anim := make([]byte, 16)
	binary.LittleEndian.PutUint32(anim, 7)

	return map[dat.Section][]byte{
		dat.SectionInfoStat:       info,
		dat.SectionModelAnimation: anim,
	}
}

func sectionsOf(m map[dat.Section][]byte) SectionFunc {
	return func(s dat.Section) ([]byte, error) {
		b, ok := m[s]
		if !ok {
			return nil, dat.Errorf(dat.ErrSectionIndexOutOfRange, "section %d", s)
		}
		return b, nil
	}
}

func TestDecodeTable(t *testing.T) {
	t.Parallel()

	info, err := Decode(sectionsOf(sampleSections()))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.Name != "Bomb" {
		t.Fatalf("name: got %q want Bomb", info.Name)
	}
	if !bytes.Equal(info.HP, []byte{10, 20, 30, 40}) {
		t.Fatalf("hp: got %v", info.HP)
	}
	if info.NbAnimation != 7 {
		t.Fatalf("nb_animation: got %d want 7", info.NbAnimation)
	}
	if info.MedLvl != 20 || info.HighLvl != 40 || info.AP != 9 {
		t.Fatalf("levels/ap: got %d %d %d", info.MedLvl, info.HighLvl, info.AP)
	}
	if info.ExtraXP != 300 || info.XP != 1234 {
		t.Fatalf("xp: got %d %d", info.ExtraXP, info.XP)
	}
	if !info.ByteFlag0["zombie"] || !info.ByteFlag0["fly"] || info.ByteFlag0["auto_protect"] {
		t.Fatalf("byte_flag_0: got %v", info.ByteFlag0)
	}
	if !info.ByteFlag1["unused8"] {
		t.Fatalf("byte_flag_1: got %v", info.ByteFlag1)
	}
	if !info.ByteFlag2["always_obtain_card"] {
		t.Fatalf("byte_flag_2: got %v", info.ByteFlag2)
	}
	if len(info.AbilitiesLow) != 16 || len(info.LowMag) != 4 {
		t.Fatalf("slot counts: abilities=%d pairs=%d", len(info.AbilitiesLow), len(info.LowMag))
	}
	if info.LowMag[0] != (ItemPair{ID: 0x04, Amount: 0x05}) {
		t.Fatalf("low_lvl_mag[0]: got %+v", info.LowMag[0])
	}
	if info.Renzokuken[7] != 0x107 {
		t.Fatalf("renzokuken[7]: got %#x", info.Renzokuken[7])
	}
	if info.ElemDef[0] != 0 || info.ElemDef[7] != -700 {
		t.Fatalf("elem_def: got %v", info.ElemDef)
	}
	if info.StatusDef[0] != 0 || info.StatusDef[19] != 95 {
		t.Fatalf("status_def: got %v", info.StatusDef)
	}
	if info.DropRate != 100 {
		t.Fatalf("drop_rate: got %v want 100", info.DropRate)
	}
}

func TestEncodeReproducesSections(t *testing.T) {
	t.Parallel()

	orig := sampleSections()
	info, err := Decode(sectionsOf(orig))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	out := map[dat.Section][]byte{
		dat.SectionInfoStat:       make([]byte, InfoSize),
		dat.SectionModelAnimation: make([]byte, 16),
	}
	if err := Encode(info, sectionsOf(out)); err != nil {
		t.Fatalf("encode: %v", err)
	}
	for s, want := range orig {
		if !bytes.Equal(out[s], want) {
			t.Fatalf("section %s differs after encode", s)
		}
	}
}

func TestEncodeIsAtomic(t *testing.T) {
	t.Parallel()

	info, err := Decode(sectionsOf(sampleSections()))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	info.XP = 70000

	out := map[dat.Section][]byte{
		dat.SectionInfoStat:       make([]byte, InfoSize),
		dat.SectionModelAnimation: make([]byte, 16),
	}
	if err := Encode(info, sectionsOf(out)); !errors.Is(err, ErrFieldOverflow) {
		t.Fatalf("expected ErrFieldOverflow, got %v", err)
	}
	if !bytes.Equal(out[dat.SectionInfoStat], make([]byte, InfoSize)) {
		t.Fatalf("failed encode wrote to the section")
	}
}

func TestDecodeTruncatedSection(t *testing.T) {
	t.Parallel()

	m := sampleSections()
	m[dat.SectionInfoStat] = m[dat.SectionInfoStat][:0x100]
	if _, err := Decode(sectionsOf(m)); !errors.Is(err, dat.ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestFlagsBitOrder(t *testing.T) {
	t.Parallel()

	d, _ := Lookup("byte_flag_0")
	raw, err := EncodeField(Flags{"auto_protect": true}, d)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if raw[0] != 0x80 {
		t.Fatalf("auto_protect: got %#02x want 0x80", raw[0])
	}
	raw, _ = EncodeField(Flags{"zombie": true, "fly": false}, d)
	if raw[0] != 0x01 {
		t.Fatalf("zombie: got %#02x want 0x01", raw[0])
	}
	if _, err := EncodeField(Flags{"bogus": true}, d); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestEncodeFieldOverflow(t *testing.T) {
	t.Parallel()

	cases := []struct {
		field string
		value any
	}{
		{"med_lvl", uint32(256)},
		{"xp", uint32(70000)},
		{"hp", ByteList{1, 2, 3}},
		{"low_lvl_mag", []ItemPair{{1, 1}}},
		{"monster_name", "ABCDEFGHIJKLMNOPQRSTUVWXYZ"},
		{"renzokuken", []uint16{1}},
		{"status_def", make([]int, 19)},
	}
	for _, tc := range cases {
		d, ok := Lookup(tc.field)
		if !ok {
			t.Fatalf("field %s missing", tc.field)
		}
		if _, err := EncodeField(tc.value, d); !errors.Is(err, ErrFieldOverflow) {
			t.Fatalf("%s: expected ErrFieldOverflow, got %v", tc.field, err)
		}
	}
}

func TestFieldAccess(t *testing.T) {
	t.Parallel()

	info, err := Decode(sectionsOf(sampleSections()))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if err := info.SetJSON("hp", []byte("[1,2,3,4]")); err != nil {
		t.Fatalf("set hp: %v", err)
	}
	v, err := info.Field("hp")
	if err != nil {
		t.Fatalf("field hp: %v", err)
	}
	if got := v.(ByteList); !bytes.Equal(got, []byte{1, 2, 3, 4}) {
		t.Fatalf("hp: got %v", got)
	}

	if err := info.SetJSON("med_lvl", []byte("300")); !errors.Is(err, ErrFieldOverflow) {
		t.Fatalf("expected ErrFieldOverflow, got %v", err)
	}
	if info.MedLvl != 20 {
		t.Fatalf("med_lvl changed on failed set: %d", info.MedLvl)
	}

	if err := info.SetJSON("byte_flag_3", []byte(`{"unused1":true}`)); err != nil {
		t.Fatalf("set flags: %v", err)
	}
	if !info.ByteFlag3["unused1"] {
		t.Fatalf("byte_flag_3 not applied: %v", info.ByteFlag3)
	}

	if _, err := info.Field("nope"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if err := info.SetJSON("nope", []byte("1")); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestFieldTableLayout(t *testing.T) {
	t.Parallel()

	bySection := map[dat.Section][]Descriptor{}
	for _, d := range Fields {
		bySection[d.Section] = append(bySection[d.Section], d)
		if d.Kind == KindFlags && len(d.Bits) != 8 {
			t.Fatalf("%s: %d bit names", d.Name, len(d.Bits))
		}
	}
	for s, ds := range bySection {
		sort.Slice(ds, func(i, j int) bool { return ds[i].Offset < ds[j].Offset })
		for i := 1; i < len(ds); i++ {
			if ds[i-1].Offset+ds[i-1].Size > ds[i].Offset {
				t.Fatalf("section %s: %s overlaps %s", s, ds[i-1].Name, ds[i].Name)
			}
		}
	}
	last := bySection[dat.SectionInfoStat]
	if end := last[len(last)-1].Offset + last[len(last)-1].Size; end != InfoSize {
		t.Fatalf("InfoSize: got %d want %d", InfoSize, end)
	}
	if names := Names(); !slices.Contains(names, "renzokuken") || len(names) != len(Fields) {
		t.Fatalf("names: %v", names)
	}
}

package stat

import (
	"fmt"
	"math"

	"github.com/LudovicGuerra/ifrit-enhanced/internal/fftext"
	"github.com/LudovicGuerra/ifrit-enhanced/pkg/dat"
)

// DecodeRate converts a raw drop or mug byte to a percentage.
func DecodeRate(raw uint8) float64 {
	return float64(raw) * 100 / 255
}

// EncodeRate quantizes a percentage back to a byte, rounding half to even.
// The conversion is lossy: most percentages do not survive a round trip,
// but every raw byte does.
func EncodeRate(percent float64) (uint8, error) {
	v := math.RoundToEven(percent * 255 / 100)
	if math.IsNaN(v) || v < 0 || v > math.MaxUint8 {
		return 0, fmt.Errorf("%w: rate %v%%", ErrFieldOverflow, percent)
	}
	return uint8(v), nil
}

// DecodeElem converts a raw elemental resistance byte to a percentage.
func DecodeElem(raw uint8) int {
	return 900 - int(raw)*10
}

// EncodeElem is floor((900-percent)/10).
func EncodeElem(percent int) (uint8, error) {
	v := floorDiv(900-percent, 10)
	if v < 0 || v > math.MaxUint8 {
		return 0, fmt.Errorf("%w: elemental resistance %d%%", ErrFieldOverflow, percent)
	}
	return uint8(v), nil
}

// DecodeStatus converts a raw status resistance byte to a percentage.
// 155 means immune.
func DecodeStatus(raw uint8) int {
	return int(raw) - 100
}

func EncodeStatus(percent int) (uint8, error) {
	v := percent + 100
	if v < 0 || v > math.MaxUint8 {
		return 0, fmt.Errorf("%w: status resistance %d%%", ErrFieldOverflow, percent)
	}
	return uint8(v), nil
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// DecodeField converts the raw bytes of one field to its value. raw must hold
// exactly d.Size bytes. The dynamic type of the result depends on d.Kind.
func DecodeField(raw []byte, d Descriptor) (any, error) {
	if len(raw) != d.Size {
		return nil, dat.Errorf(dat.ErrTruncated, "field %s needs %d bytes, have %d", d.Name, d.Size, len(raw))
	}

	switch d.Kind {
	case KindRawBytes:
		return ByteList(append([]byte(nil), raw...)), nil

	case KindUnsigned:
		switch d.Size {
		case 1:
			return uint32(raw[0]), nil
		case 2:
			return uint32(d.order().Uint16(raw)), nil
		case 4:
			return d.order().Uint32(raw), nil
		}
		return nil, fmt.Errorf("stat: field %s: unsupported unsigned width %d", d.Name, d.Size)

	case KindItemPairs:
		out := make([]ItemPair, 0, d.Size/2)
		for i := 0; i+1 < len(raw); i += 2 {
			out = append(out, ItemPair{ID: raw[i], Amount: raw[i+1]})
		}
		return out, nil

	case KindRate:
		return DecodeRate(raw[0]), nil

	case KindElemResist:
		out := make([]int, len(raw))
		for i, b := range raw {
			out[i] = DecodeElem(b)
		}
		return out, nil

	case KindStatusResist:
		out := make([]int, len(raw))
		for i, b := range raw {
			out[i] = DecodeStatus(b)
		}
		return out, nil

	case KindAbilities:
		out := make([]Ability, 0, d.Size/4)
		for i := 0; i+3 < len(raw); i += 4 {
			out = append(out, Ability{
				Type:      raw[i],
				Animation: raw[i+1],
				ID:        d.order().Uint16(raw[i+2 : i+4]),
			})
		}
		return out, nil

	case KindFlags:
		out := make(Flags, len(d.Bits))
		for i, name := range d.Bits {
			out[name] = raw[0]&(1<<i) != 0
		}
		return out, nil

	case KindName:
		return fftext.Decode(raw), nil

	case KindU16List:
		out := make([]uint16, 0, d.Size/2)
		for i := 0; i+1 < len(raw); i += 2 {
			out = append(out, d.order().Uint16(raw[i:i+2]))
		}
		return out, nil
	}
	return nil, fmt.Errorf("stat: field %s: unknown kind %d", d.Name, d.Kind)
}

// EncodeField is the inverse of DecodeField and returns exactly d.Size bytes.
func EncodeField(v any, d Descriptor) ([]byte, error) {
	out := make([]byte, d.Size)

	switch d.Kind {
	case KindRawBytes:
		b, err := as[ByteList](v, d)
		if err != nil {
			return nil, err
		}
		if len(b) != d.Size {
			return nil, overflow(d, "%d bytes", len(b))
		}
		copy(out, b)

	case KindUnsigned:
		n, err := as[uint32](v, d)
		if err != nil {
			return nil, err
		}
		switch d.Size {
		case 1:
			if n > math.MaxUint8 {
				return nil, overflow(d, "%d", n)
			}
			out[0] = uint8(n)
		case 2:
			if n > math.MaxUint16 {
				return nil, overflow(d, "%d", n)
			}
			d.order().PutUint16(out, uint16(n))
		case 4:
			d.order().PutUint32(out, n)
		default:
			return nil, fmt.Errorf("stat: field %s: unsupported unsigned width %d", d.Name, d.Size)
		}

	case KindItemPairs:
		pairs, err := as[[]ItemPair](v, d)
		if err != nil {
			return nil, err
		}
		if len(pairs)*2 != d.Size {
			return nil, overflow(d, "%d pairs", len(pairs))
		}
		for i, p := range pairs {
			out[2*i] = p.ID
			out[2*i+1] = p.Amount
		}

	case KindRate:
		p, err := as[float64](v, d)
		if err != nil {
			return nil, err
		}
		b, err := EncodeRate(p)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", d.Name, err)
		}
		out[0] = b

	case KindElemResist, KindStatusResist:
		vals, err := as[[]int](v, d)
		if err != nil {
			return nil, err
		}
		if len(vals) != d.Size {
			return nil, overflow(d, "%d entries", len(vals))
		}
		enc := EncodeElem
		if d.Kind == KindStatusResist {
			enc = EncodeStatus
		}
		for i, p := range vals {
			b, err := enc(p)
			if err != nil {
				return nil, fmt.Errorf("field %s[%d]: %w", d.Name, i, err)
			}
			out[i] = b
		}

	case KindAbilities:
		slots, err := as[[]Ability](v, d)
		if err != nil {
			return nil, err
		}
		if len(slots)*4 != d.Size {
			return nil, overflow(d, "%d slots", len(slots))
		}
		for i, a := range slots {
			out[4*i] = a.Type
			out[4*i+1] = a.Animation
			d.order().PutUint16(out[4*i+2:4*i+4], a.ID)
		}

	case KindFlags:
		f, err := as[Flags](v, d)
		if err != nil {
			return nil, err
		}
		for name := range f {
			if !containsBit(d.Bits, name) {
				return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, d.Name, name)
			}
		}
		for i, name := range d.Bits {
			if f[name] {
				out[0] |= 1 << i
			}
		}

	case KindName:
		s, err := as[string](v, d)
		if err != nil {
			return nil, err
		}
		raw, err := fftext.Encode(s)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", d.Name, err)
		}
		if len(raw) > d.Size {
			return nil, overflow(d, "%q is %d bytes", s, len(raw))
		}
		copy(out, raw)

	case KindU16List:
		vals, err := as[[]uint16](v, d)
		if err != nil {
			return nil, err
		}
		if len(vals)*2 != d.Size {
			return nil, overflow(d, "%d entries", len(vals))
		}
		for i, n := range vals {
			d.order().PutUint16(out[2*i:2*i+2], n)
		}

	default:
		return nil, fmt.Errorf("stat: field %s: unknown kind %d", d.Name, d.Kind)
	}
	return out, nil
}

func as[T any](v any, d Descriptor) (T, error) {
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("stat: field %s (%s) cannot hold %T", d.Name, d.Kind, v)
	}
	return t, nil
}

func overflow(d Descriptor, format string, args ...any) error {
	return fmt.Errorf("%w: %s holds %d bytes, got %s", ErrFieldOverflow, d.Name, d.Size, fmt.Sprintf(format, args...))
}

func containsBit(bits []string, name string) bool {
	for _, b := range bits {
		if b == name {
			return true
		}
	}
	return false
}

// SectionFunc returns the bytes of one section of a monster file.
type SectionFunc func(dat.Section) ([]byte, error)

// Decode reads every field of Fields.
func Decode(section SectionFunc) (*Info, error) {
	out := &Info{}
	for _, d := range Fields {
		raw, err := fieldBytes(section, d)
		if err != nil {
			return nil, err
		}
		v, err := DecodeField(raw, d)
		if err != nil {
			return nil, err
		}
		store(d.bind(out), v)
	}
	return out, nil
}

// Encode writes every field of info into the sections returned by section.
// The returned slices are written in place. Fields are all encoded before the
// first write, so a failing field leaves the sections untouched.
func Encode(info *Info, section SectionFunc) error {
	encoded := make([][]byte, len(Fields))
	for i, d := range Fields {
		b, err := EncodeField(load(d.bind(info)), d)
		if err != nil {
			return err
		}
		encoded[i] = b
	}
	for i, d := range Fields {
		dst, err := fieldBytes(section, d)
		if err != nil {
			return err
		}
		copy(dst, encoded[i])
	}
	return nil
}

func fieldBytes(section SectionFunc, d Descriptor) ([]byte, error) {
	sec, err := section(d.Section)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", d.Name, err)
	}
	end := d.Offset + d.Size
	if end > len(sec) {
		return nil, dat.Errorf(dat.ErrTruncated, "field %s ends at %d, section %s holds %d bytes", d.Name, end, d.Section, len(sec))
	}
	return sec[d.Offset:end], nil
}

// store assigns v through a binder pointer. A mismatch between the binder and
// the descriptor kind is a table bug and panics.
func store(dst, v any) {
	switch p := dst.(type) {
	case *ByteList:
		*p = v.(ByteList)
	case *uint32:
		*p = v.(uint32)
	case *[]ItemPair:
		*p = v.([]ItemPair)
	case *float64:
		*p = v.(float64)
	case *[]int:
		*p = v.([]int)
	case *[]Ability:
		*p = v.([]Ability)
	case *Flags:
		*p = v.(Flags)
	case *string:
		*p = v.(string)
	case *[]uint16:
		*p = v.([]uint16)
	default:
		panic(fmt.Sprintf("stat: unsupported binder %T", dst))
	}
}

func load(src any) any {
	switch p := src.(type) {
	case *ByteList:
		return *p
	case *uint32:
		return *p
	case *[]ItemPair:
		return *p
	case *float64:
		return *p
	case *[]int:
		return *p
	case *[]Ability:
		return *p
	case *Flags:
		return *p
	case *string:
		return *p
	case *[]uint16:
		return *p
	}
	panic(fmt.Sprintf("stat: unsupported binder %T", src))
}

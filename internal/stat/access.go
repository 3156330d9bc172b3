package stat

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Field returns the current value of the named field.
func (i *Info) Field(name string) (any, error) {
	d, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return load(d.bind(i)), nil
}

// Set replaces the named field after checking that v encodes.
func (i *Info) Set(name string, v any) error {
	d, ok := Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	if _, err := EncodeField(v, d); err != nil {
		return err
	}
	store(d.bind(i), v)
	return nil
}

// SetJSON decodes raw into the named field. The field is left unchanged when
// raw does not parse or does not fit.
func (i *Info) SetJSON(name string, raw []byte) error {
	d, ok := Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	tmp := zero(d.Kind)
	if err := json.Unmarshal(raw, tmp); err != nil {
		return fmt.Errorf("field %s: %w", d.Name, err)
	}
	return i.Set(name, load(tmp))
}

func zero(k Kind) any {
	switch k {
	case KindRawBytes:
		return new(ByteList)
	case KindUnsigned:
		return new(uint32)
	case KindItemPairs:
		return new([]ItemPair)
	case KindRate:
		return new(float64)
	case KindElemResist, KindStatusResist:
		return new([]int)
	case KindAbilities:
		return new([]Ability)
	case KindFlags:
		return new(Flags)
	case KindName:
		return new(string)
	case KindU16List:
		return new([]uint16)
	}
	panic(fmt.Sprintf("stat: unknown kind %d", k))
}

func (b ByteList) MarshalJSON() ([]byte, error) {
	ints := make([]int, len(b))
	for i, v := range b {
		ints[i] = int(v)
	}
	return json.Marshal(ints)
}

func (b *ByteList) UnmarshalJSON(data []byte) error {
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return err
	}
	out := make(ByteList, len(ints))
	for i, v := range ints {
		if v < 0 || v > 0xFF {
			return fmt.Errorf("%w: byte %d out of range", ErrFieldOverflow, v)
		}
		out[i] = byte(v)
	}
	*b = out
	return nil
}

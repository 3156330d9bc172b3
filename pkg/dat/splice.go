package dat

import "math"

// Splice returns a new buffer where buf[start:end] is replaced by repl.
//
// The replaced range must lie inside section s. Every section after s moves by
// the length difference, the file size follows, and the header prefix of the
// new buffer is rewritten. buf and h are never modified, so a failed splice
// leaves the caller's data intact.
func Splice(buf []byte, h Header, s Section, start, end int, repl []byte) ([]byte, Header, error) {
	if s <= SectionHeader {
		return nil, Header{}, Errorf(ErrRelocationInconsistent, "cannot splice inside the header")
	}
	if uint64(h.FileSize) != uint64(len(buf)) {
		return nil, Header{}, Errorf(ErrRelocationInconsistent, "file size %d does not match buffer length %d", h.FileSize, len(buf))
	}
	lo, hi, err := h.Range(s)
	if err != nil {
		return nil, Header{}, err
	}
	if start < int(lo) || end > int(hi) || start > end {
		return nil, Header{}, Errorf(ErrRelocationInconsistent, "range [%d,%d) outside section %s [%d,%d)", start, end, s, lo, hi)
	}

	delta := int64(len(repl)) - int64(end-start)
	newSize := int64(h.FileSize) + delta
	if newSize < int64(h.Size()) || newSize > math.MaxUint32 {
		return nil, Header{}, Errorf(ErrRelocationInconsistent, "file size would become %d", newSize)
	}

	nh := h.Clone()
	for i := int(s) + 1; i < len(nh.Offsets); i++ {
		off := int64(nh.Offsets[i]) + delta
		if off < 0 || off > newSize {
			return nil, Header{}, Errorf(ErrRelocationInconsistent, "section %d would start at %d in a %d byte file", i, off, newSize)
		}
		nh.Offsets[i] = uint32(off)
	}
	nh.FileSize = uint32(newSize)

	out := make([]byte, 0, newSize)
	out = append(out, buf[:start]...)
	out = append(out, repl...)
	out = append(out, buf[end:]...)
	nh.put(out)

	return out, nh, nil
}

package dat

// Range returns the absolute [start, end) span of section s.
// The last section ends at the file size.
func (h Header) Range(s Section) (start, end uint32, err error) {
	i := int(s)
	if i < 0 || i >= len(h.Offsets) {
		return 0, 0, Errorf(ErrSectionIndexOutOfRange, "section %d of %d", i, len(h.Offsets)-1)
	}
	start = h.Offsets[i]
	if i+1 < len(h.Offsets) {
		end = h.Offsets[i+1]
	} else {
		end = h.FileSize
	}
	if end < start {
		return 0, 0, Errorf(ErrOffsetOutOfBounds, "section %s ends at %d before its start %d", s, end, start)
	}
	return start, end, nil
}

// SectionBytes returns a view of section s inside buf. The view's capacity
// is clipped to the section so appends never clobber the next one.
func SectionBytes(buf []byte, h Header, s Section) ([]byte, error) {
	start, end, err := h.Range(s)
	if err != nil {
		return nil, err
	}
	if uint64(end) > uint64(len(buf)) {
		return nil, Errorf(ErrOffsetOutOfBounds, "section %s ends at %d, buffer holds %d bytes", s, end, len(buf))
	}
	return buf[start:end:end], nil
}

package dat

import (
	"encoding/binary"
	"slices"
)

const (
	countFieldSize    = 4
	offsetFieldSize   = 4
	fileSizeFieldSize = 4
)

// Header is the offset table at the start of a monster file.
type Header struct {
	SectionCount uint32 `json:"nb_section"`
	// Offsets holds SectionCount+1 absolute positions. Offsets[0] is the
	// header itself and is never stored in the file.
	Offsets  []uint32 `json:"section_pos"`
	FileSize uint32   `json:"file_size"`
}

// HeaderSize returns the encoded size of a header describing count sections.
func HeaderSize(count uint32) uint64 {
	return countFieldSize + uint64(count)*offsetFieldSize + fileSizeFieldSize
}

// Size returns the encoded size of h.
func (h Header) Size() int {
	return int(HeaderSize(h.SectionCount))
}

func (h Header) Clone() Header {
	h.Offsets = slices.Clone(h.Offsets)
	return h
}

// DecodeHeader reads the section count, the offset table and the file size.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < countFieldSize {
		return Header{}, Errorf(ErrTruncated, "need %d bytes for the section count, have %d", countFieldSize, len(buf))
	}
	count := binary.LittleEndian.Uint32(buf[0:countFieldSize])
	extent := HeaderSize(count)
	if extent > uint64(len(buf)) {
		return Header{}, Errorf(ErrTruncated, "header of %d sections needs %d bytes, have %d", count, extent, len(buf))
	}

	offsets := make([]uint32, count+1)
	for i := 1; i <= int(count); i++ {
		pos := countFieldSize + (i-1)*offsetFieldSize
		offsets[i] = binary.LittleEndian.Uint32(buf[pos : pos+offsetFieldSize])
	}
	fileSize := binary.LittleEndian.Uint32(buf[extent-fileSizeFieldSize : extent])

	return Header{
		SectionCount: count,
		Offsets:      offsets,
		FileSize:     fileSize,
	}, nil
}

// EncodeHeader returns the binary prefix describing h.
func EncodeHeader(h Header) []byte {
	out := make([]byte, h.Size())
	h.put(out)
	return out
}

// put writes h into dst, which must hold at least h.Size() bytes.
func (h Header) put(dst []byte) {
	binary.LittleEndian.PutUint32(dst[0:countFieldSize], h.SectionCount)
	for i := 1; i <= int(h.SectionCount); i++ {
		var off uint32
		if i < len(h.Offsets) {
			off = h.Offsets[i]
		}
		pos := countFieldSize + (i-1)*offsetFieldSize
		binary.LittleEndian.PutUint32(dst[pos:pos+offsetFieldSize], off)
	}
	end := h.Size()
	binary.LittleEndian.PutUint32(dst[end-fileSizeFieldSize:end], h.FileSize)
}

// Validate checks the offset table against a buffer of size bytes.
func (h Header) Validate(size int) error {
	if len(h.Offsets) != int(h.SectionCount)+1 {
		return Errorf(ErrSectionIndexOutOfRange, "%d offsets for %d sections", len(h.Offsets), h.SectionCount)
	}
	if uint64(h.FileSize) > uint64(size) {
		return Errorf(ErrTruncated, "file size %d exceeds buffer length %d", h.FileSize, size)
	}
	prev := uint32(h.Size())
	for i := 1; i < len(h.Offsets); i++ {
		off := h.Offsets[i]
		if off < prev {
			return Errorf(ErrOffsetOutOfBounds, "section %d starts at %d, before %d", i, off, prev)
		}
		if off > h.FileSize {
			return Errorf(ErrOffsetOutOfBounds, "section %d starts at %d, past file size %d", i, off, h.FileSize)
		}
		prev = off
	}
	return nil
}

package dat

import (
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// File is a monster file loaded into memory with its decoded header.
type File struct {
	Data    []byte
	Header  Header
	mmapped bool
}

// Open maps a monster file read-only and validates its header.
// If mmap is unavailable, it falls back to ReadAt-based loading.
// The returned file must be closed to release any mapping, and Data must not
// be written to.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	size64 := stat.Size()
	if size64 < 0 || size64 > int64(int(^uint(0)>>1)) {
		return nil, Errorf(ErrTruncated, "unusable file size %d", size64)
	}
	size := int(size64)
	if size < countFieldSize {
		return nil, Errorf(ErrTruncated, "file holds %d bytes", size)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err == nil {
		df, parseErr := parseFileData(data, true)
		if parseErr != nil {
			_ = unix.Munmap(data)
			return nil, parseErr
		}
		return df, nil
	}

	data, err = readAllAt(f, size)
	if err != nil {
		return nil, err
	}
	return parseFileData(data, false)
}

// OpenReaderAt loads and validates a monster file from a random-access reader.
func OpenReaderAt(r io.ReaderAt, size int64) (*File, error) {
	if size < 0 || size > int64(int(^uint(0)>>1)) {
		return nil, Errorf(ErrTruncated, "unusable file size %d", size)
	}
	data, err := readAllAt(r, int(size))
	if err != nil {
		return nil, err
	}
	return parseFileData(data, false)
}

// Parse validates an in-memory monster file. The File aliases data.
func Parse(data []byte) (*File, error) {
	return parseFileData(data, false)
}

func readAllAt(r io.ReaderAt, size int) ([]byte, error) {
	if size == 0 {
		return []byte{}, nil
	}
	out := make([]byte, size)
	var off int64
	for off < int64(size) {
		n, err := r.ReadAt(out[off:], off)
		off += int64(n)
		if err == nil {
			continue
		}
		if err == io.EOF && off == int64(size) {
			break
		}
		return nil, err
	}
	return out, nil
}

func parseFileData(data []byte, mmapped bool) (*File, error) {
	hdr, err := DecodeHeader(data)
	if err != nil {
		return nil, err
	}
	if err := hdr.Validate(len(data)); err != nil {
		return nil, err
	}
	return &File{
		Data:    data,
		Header:  hdr,
		mmapped: mmapped,
	}, nil
}

// Section returns a zero-copy view of section s.
// The caller must not retain this slice after Close.
func (f *File) Section(s Section) ([]byte, error) {
	return SectionBytes(f.Data, f.Header, s)
}

// Close releases the mapping, if any.
func (f *File) Close() error {
	if f == nil || f.Data == nil {
		return nil
	}
	var err error
	if f.mmapped {
		err = unix.Munmap(f.Data)
	}
	f.Data = nil
	f.Header = Header{}
	f.mmapped = false
	return err
}

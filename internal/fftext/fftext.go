// Package fftext converts between FF8 menu-font bytes and Go strings.
//
// Printable glyphs map one byte to one rune. Control codes keep their raw
// value in a brace escape so that any byte string decodes to text that
// encodes back to the same bytes:
//
//	0x01         {NewPage}
//	0x02         \n
//	0x03..0x1F   {xCCPP}  control code CC with parameter byte PP
//	other        {xHH}    byte without a glyph
//
// A 0x00 byte ends the string, so no escape may produce it.
package fftext

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

var ErrUnencodable = errors.New("fftext: unencodable text")

const (
	byteEnd     = 0x00
	byteNewPage = 0x01
	byteNewLine = 0x02
	lastControl = 0x1F
	firstGlyph  = 0x20

	tagNewPage = "{NewPage}"
)

// glyphs lists the printable characters starting at byte 0x20.
const glyphs = " 0123456789%/:!?…+-=*&「」()·.,~“”'#$\"_" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"abcdefghijklmnopqrstuvwxyz" +
	"ÀÁÂÄÇÈÉÊËÌÍÎÏÑÒÓÔÖÙÚÛÜŒßàáâäçèéêëìíîïñòóôöùúûüœ"

var (
	byteToRune [256]rune
	runeToByte = map[rune]byte{}
)

func init() {
	b := firstGlyph
	for _, r := range glyphs {
		byteToRune[b] = r
		runeToByte[r] = byte(b)
		b++
	}
}

// Decode renders raw as text. Decoding stops at the first 0x00.
func Decode(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c == byteEnd:
			return sb.String()
		case c == byteNewPage:
			sb.WriteString(tagNewPage)
		case c == byteNewLine:
			sb.WriteByte('\n')
		case c <= lastControl:
			if i+1 < len(raw) && raw[i+1] != byteEnd {
				fmt.Fprintf(&sb, "{x%02x%02x}", c, raw[i+1])
				i++
			} else {
				fmt.Fprintf(&sb, "{x%02x}", c)
			}
		case byteToRune[c] != 0:
			sb.WriteRune(byteToRune[c])
		default:
			fmt.Fprintf(&sb, "{x%02x}", c)
		}
	}
	return sb.String()
}

// Encode converts text back to menu-font bytes. No terminator is appended.
func Encode(s string) ([]byte, error) {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); {
		if s[i] == '{' {
			raw, n, err := decodeEscape(s[i:])
			if err != nil {
				return nil, err
			}
			if bytes.IndexByte(raw, byteEnd) >= 0 {
				return nil, fmt.Errorf("%w: escape %q holds the terminator byte", ErrUnencodable, s[i:i+n])
			}
			out = append(out, raw...)
			i += n
			continue
		}
		if s[i] == '\n' {
			out = append(out, byteNewLine)
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		b, ok := runeToByte[r]
		if !ok {
			return nil, fmt.Errorf("%w: %q at byte %d", ErrUnencodable, r, i)
		}
		out = append(out, b)
		i += size
	}
	return out, nil
}

// EncodeFixed encodes s and zero-pads the result to width bytes.
func EncodeFixed(s string, width int) ([]byte, error) {
	raw, err := Encode(s)
	if err != nil {
		return nil, err
	}
	if len(raw) > width {
		return nil, fmt.Errorf("%w: %q needs %d bytes, field holds %d", ErrUnencodable, s, len(raw), width)
	}
	out := make([]byte, width)
	copy(out, raw)
	return out, nil
}

func decodeEscape(s string) ([]byte, int, error) {
	end := strings.IndexByte(s, '}')
	if end < 0 {
		return nil, 0, fmt.Errorf("%w: unterminated escape %q", ErrUnencodable, s)
	}
	tag := s[:end+1]
	if tag == tagNewPage {
		return []byte{byteNewPage}, len(tag), nil
	}
	body := tag[1:end]
	if len(body) < 3 || body[0] != 'x' || (len(body)-1)%2 != 0 || len(body) > 5 {
		return nil, 0, fmt.Errorf("%w: bad escape %q", ErrUnencodable, tag)
	}
	hex := body[1:]
	out := make([]byte, 0, 2)
	for j := 0; j < len(hex); j += 2 {
		v, err := strconv.ParseUint(hex[j:j+2], 16, 8)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: bad escape %q", ErrUnencodable, tag)
		}
		out = append(out, byte(v))
	}
	return out, len(tag), nil
}

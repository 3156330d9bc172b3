package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

const hexRow = 32

var markColor = color.New(color.FgRed)

// hexdump renders data as rows of 32 bytes, starting at offset. Bytes whose
// mark is set are highlighted.
func hexdump(offset int, data []byte, mark []bool) string {
	var sb strings.Builder

	for len(data) > 0 {
		l := min(len(data), hexRow)
		work := data[:l]
		data = data[l:]
		var workMark []bool
		if mark != nil {
			workMark = mark[:l]
			mark = mark[l:]
		}

		var hex, ascii strings.Builder
		for i := range hexRow {
			if i >= len(work) {
				hex.WriteString("   ")
				ascii.WriteByte(' ')
			} else {
				b := work[i]
				delta := workMark != nil && workMark[i]
				ch := b
				if ch < 32 || ch > 126 {
					ch = '.'
				}
				if delta {
					hex.WriteString(markColor.Sprintf("%02x ", b))
					ascii.WriteString(markColor.Sprintf("%c", ch))
				} else {
					fmt.Fprintf(&hex, "%02x ", b)
					ascii.WriteByte(ch)
				}
			}
			if i%8 == 7 {
				hex.WriteByte(' ')
			}
		}

		fmt.Fprintf(&sb, "%08x  %s|%s|\n", offset, hex.String(), ascii.String())
		offset += l
	}

	return sb.String()
}

// diffMarks marks every byte of a that differs from b at the same position,
// including bytes past the end of b.
func diffMarks(a, b []byte) ([]bool, bool) {
	marks := make([]bool, len(a))
	changed := false
	for i := range a {
		if i >= len(b) || a[i] != b[i] {
			marks[i] = true
			changed = true
		}
	}
	return marks, changed
}

// changedRows keeps only the rows of data that hold a marked byte.
func changedRows(base int, data []byte, marks []bool) string {
	var sb strings.Builder
	for start := 0; start < len(data); start += hexRow {
		end := min(start+hexRow, len(data))
		for _, m := range marks[start:end] {
			if m {
				sb.WriteString(hexdump(base+start, data[start:end], marks[start:end]))
				break
			}
		}
	}
	return sb.String()
}

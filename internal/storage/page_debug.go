package storage

import (
	"bytes"
	"fmt"
	"unicode"
)

// ascii preview: printable -> itself, else '.'
func asciiPreview(b []byte) string {
	var buf bytes.Buffer
	for _, c := range b {
		r := rune(c)
		if unicode.IsPrint(r) && r != '\n' && r != '\r' && r != '\t' {
			buf.WriteRune(r)
		} else {
			buf.WriteByte('.')
		}
	}
	return buf.String()
}

func ovflowName(id uint32) string {
	if id == NoPage {
		return "none"
	}
	return fmt.Sprintf("%d", id)
}

// DebugString renders the header and a printable preview of the used
// data region.
func (p *Page) DebugString() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "free=%d ovflow=%s ntuples=%d freeSpace=%d\n",
		p.Free(), ovflowName(p.Ovflow()), p.NTuples(), p.FreeSpace())
	fmt.Fprintf(&buf, "data: %s\n", asciiPreview(p.Buf[PageHeaderSize:PageHeaderSize+p.Free()]))
	return buf.String()
}

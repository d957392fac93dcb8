package storage

import "github.com/tuannm99/mahfile/internal/alias/bx"

// +------------------+ 0
// | free   (u32 LE)  |
// | ovflow (u32 LE)  |
// | ntuples(u32 LE)  |
// +------------------+ PageHeaderSize
// | tuple,NUL        |
// | tuple,NUL        |
// | ...              | <-- PageHeaderSize + free
// |   free space     |
// +------------------+ PageSize
//
// Tuples sit in the data region in insertion order, each followed by
// its NUL terminator.
type Page struct {
	Buf []byte
}

// NewPage returns an empty page: zero data, no tuples, no overflow
// link.
func NewPage() *Page {
	p := &Page{Buf: make([]byte, PageSize)}
	p.SetOvflow(NoPage)
	return p
}

// Free is the offset of the first free byte in the data region.
func (p *Page) Free() int {
	return int(bx.U32At(p.Buf, pageOffFree))
}

// Ovflow is the id of the next overflow page in this bucket's chain,
// or NoPage.
func (p *Page) Ovflow() uint32 {
	return bx.U32At(p.Buf, pageOffOvflow)
}

// SetOvflow links the next overflow page into the chain.
func (p *Page) SetOvflow(id uint32) {
	bx.PutU32At(p.Buf, pageOffOvflow, id)
}

// NTuples is the number of tuples stored in this page.
func (p *Page) NTuples() int {
	return int(bx.U32At(p.Buf, pageOffNTuples))
}

// FreeSpace is the number of unused data bytes.
func (p *Page) FreeSpace() int {
	return PageSize - PageHeaderSize - p.Free()
}

func (p *Page) setFree(v int) {
	bx.PutU32At(p.Buf, pageOffFree, uint32(v))
}

func (p *Page) setNTuples(v int) {
	bx.PutU32At(p.Buf, pageOffNTuples, uint32(v))
}

// AddTuple appends the serialized tuple and its NUL terminator. On
// ErrPageFull the page is unchanged; a tuple whose encoded form fills
// the free space exactly still fits.
func (p *Page) AddTuple(t string) error {
	need := len(t) + 1
	if need > p.FreeSpace() {
		return ErrPageFull
	}
	off := PageHeaderSize + p.Free()
	copy(p.Buf[off:], t)
	p.Buf[off+len(t)] = 0
	p.setFree(p.Free() + need)
	p.setNTuples(p.NTuples() + 1)
	return nil
}

// Tuples returns the stored tuples in insertion order, without their
// terminators.
func (p *Page) Tuples() []string {
	out := make([]string, 0, p.NTuples())
	data := p.Buf[PageHeaderSize : PageHeaderSize+p.Free()]
	start := 0
	for i, c := range data {
		if c == 0 {
			out = append(out, string(data[start:i]))
			start = i + 1
		}
	}
	return out
}

// TupleAt reads the tuple starting at data-region offset off and
// returns the offset just past its terminator. ok is false once off
// reaches the free boundary; scans resume across calls by carrying the
// returned offset.
func (p *Page) TupleAt(off int) (t string, next int, ok bool) {
	if off < 0 || off >= p.Free() {
		return "", off, false
	}
	data := p.Buf[PageHeaderSize+off : PageHeaderSize+p.Free()]
	for i, c := range data {
		if c == 0 {
			return string(data[:i]), off + i + 1, true
		}
	}
	return "", off, false
}

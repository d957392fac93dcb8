package storage

import (
	"fmt"
	"os"
	"sync"
)

// Pager provides direct page access to one relation file (.data or
// .ovflow). A page loaded via GetPage is a fresh copy; mutations reach
// disk only through PutPage.
type Pager struct {
	file      *os.File
	pageCount int
	readOnly  bool
	mu        sync.Mutex
}

// OpenPager opens the file, creating it when writable, and derives the
// page count from its size.
func OpenPager(filename string, readOnly bool) (*Pager, error) {
	flags := os.O_RDWR | os.O_CREATE
	if readOnly {
		flags = os.O_RDONLY
	}
	file, err := os.OpenFile(filename, flags, FileMode0644)
	if err != nil {
		return nil, fmt.Errorf("open page file: %w", err)
	}

	fileInfo, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("get file info: %w", err)
	}

	return &Pager{
		file:      file,
		pageCount: int(fileInfo.Size()) / PageSize,
		readOnly:  readOnly,
	}, nil
}

// GetPage reads page id from disk into a fresh copy.
func (p *Pager) GetPage(id uint32) (*Page, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if int64(id) >= int64(p.pageCount) {
		return nil, fmt.Errorf("%w: page %d of %d", ErrPageRange, id, p.pageCount)
	}

	page := &Page{Buf: make([]byte, PageSize)}
	if _, err := p.file.ReadAt(page.Buf, int64(id)*PageSize); err != nil {
		return nil, fmt.Errorf("read page %d: %w", id, err)
	}
	return page, nil
}

// PutPage writes the page back to its slot on disk.
func (p *Pager) PutPage(id uint32, page *Page) error {
	if p.readOnly {
		return ErrReadOnlyFile
	}
	if len(page.Buf) != PageSize {
		return ErrBadPageSize
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := p.file.WriteAt(page.Buf, int64(id)*PageSize); err != nil {
		return fmt.Errorf("write page %d: %w", id, err)
	}
	if int(id) >= p.pageCount {
		p.pageCount = int(id) + 1
	}
	return nil
}

// AddPage appends one empty page to the file and returns its id.
func (p *Pager) AddPage() (uint32, error) {
	if p.readOnly {
		return NoPage, ErrReadOnlyFile
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	id := uint32(p.pageCount)
	page := NewPage()
	if _, err := p.file.WriteAt(page.Buf, int64(id)*PageSize); err != nil {
		return NoPage, fmt.Errorf("append page %d: %w", id, err)
	}
	p.pageCount++
	return id, nil
}

// PageCount returns the number of pages in the file.
func (p *Pager) PageCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pageCount
}

// Close closes the underlying file.
func (p *Pager) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.file.Close()
}

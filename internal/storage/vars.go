package storage

import "errors"

const (
	OneB  = 1
	OneKB = 1024

	// PageSize is the fixed on-disk footprint of every page, primary
	// and overflow alike.
	PageSize = OneKB

	// Page header layout, all little-endian uint32:
	//
	// offset Size Field
	// 0      4    free    -- offset of first free byte in the data region
	// 4      4    ovflow  -- next overflow page id, NoPage at chain end
	// 8      4    ntuples -- number of tuples stored in this page
	pageOffFree    = 0
	pageOffOvflow  = 4
	pageOffNTuples = 8
	PageHeaderSize = 12

	// MaxTupleLen is the largest serialized tuple a page can hold:
	// the data region minus the NUL terminator.
	MaxTupleLen = PageSize - PageHeaderSize - 1
)

// NoPage is the reserved page id marking the end of an overflow chain.
// It never aliases a legal id; files of 2^32-1 pages are out of reach.
const NoPage uint32 = 0xFFFFFFFF

const (
	FileMode0644 = 0o644
	FileMode0755 = 0o755
)

var (
	ErrPageFull     = errors.New("storage: write would exceed page data length")
	ErrTupleTooBig  = errors.New("storage: tuple exceeds maximum page payload")
	ErrBadPageSize  = errors.New("storage: page buffer is not PageSize bytes")
	ErrPageRange    = errors.New("storage: page id beyond end of file")
	ErrReadOnlyFile = errors.New("storage: pager is opened read-only")
)

// Package linhash implements multi-attribute linear-hashed files:
// bucket-oriented relations that grow one bucket at a time and answer
// partial-match queries from any subset of attributes.
package linhash

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/tuannm99/mahfile/internal/alias/bx"
	"github.com/tuannm99/mahfile/internal/bits"
	"github.com/tuannm99/mahfile/internal/chvec"
	"github.com/tuannm99/mahfile/internal/storage"
)

// Relation metadata (.info file) layout, all little-endian uint32:
// five counts (nattrs, depth, sp, npages, ntuples) followed by the
// choice vector as MaxChVec (att, bit) pairs.
const (
	metaOffNAttrs  = 0
	metaOffDepth   = 4
	metaOffSp      = 8
	metaOffNPages  = 12
	metaOffNTuples = 16
	metaOffChVec   = 20
	metaSize       = metaOffChVec + chvec.MaxChVec*8
)

var (
	ErrRelationExists  = errors.New("linhash: relation already exists")
	ErrRelationMissing = errors.New("linhash: relation does not exist")
	ErrReadOnly        = errors.New("linhash: relation opened read-only")
	ErrBadNAttrs       = errors.New("linhash: attribute count must be at least 1")
	ErrBadDepth        = errors.New("linhash: initial depth out of range")
	ErrBadGeometry     = errors.New("linhash: initial page count must be 2^depth")
	ErrBadMeta         = errors.New("linhash: corrupt relation metadata")
)

// Mode selects what an open relation handle may do.
type Mode int

const (
	ReadOnly Mode = iota
	ReadWrite
)

// Relation is an open multi-attribute linear-hashed file: in-memory
// metadata plus pagers over the .data and .ovflow files. The handle
// owns its three files exclusively; access is single-threaded.
type Relation struct {
	nattrs  uint32
	depth   uint32
	sp      uint32
	npages  uint32
	ntuples uint32
	cv      chvec.ChVec

	mode   Mode
	info   *os.File
	data   *storage.Pager
	ovflow *storage.Pager
	log    *zap.SugaredLogger
}

func infoName(dir, name string) string   { return filepath.Join(dir, name+".info") }
func dataName(dir, name string) string   { return filepath.Join(dir, name+".data") }
func ovflowName(dir, name string) string { return filepath.Join(dir, name+".ovflow") }

// Exists reports whether a relation with this name already has an
// .info file in dir.
func Exists(dir, name string) bool {
	_, err := os.Stat(infoName(dir, name))
	return err == nil
}

// Create makes a new relation: an .info file holding the metadata and
// choice vector, a .data file pre-populated with npages0 empty primary
// pages, and an empty .ovflow file. npages0 must equal 2^depth0 since
// the split pointer starts at zero.
func Create(dir, name string, nattrs, npages0, depth0 int, cvText string) error {
	if nattrs < 1 {
		return ErrBadNAttrs
	}
	if depth0 < 0 || depth0 >= chvec.MaxChVec {
		return ErrBadDepth
	}
	if npages0 != 1<<depth0 {
		return fmt.Errorf("%w: got %d pages at depth %d", ErrBadGeometry, npages0, depth0)
	}
	if Exists(dir, name) {
		return fmt.Errorf("%w: %s", ErrRelationExists, name)
	}

	cv, err := chvec.Parse(nattrs, cvText)
	if err != nil {
		return err
	}

	r := &Relation{
		nattrs: uint32(nattrs),
		depth:  uint32(depth0),
		npages: uint32(npages0),
		cv:     cv,
		mode:   ReadWrite,
		log:    zap.NewNop().Sugar(),
	}

	r.info, err = os.OpenFile(infoName(dir, name), os.O_RDWR|os.O_CREATE|os.O_TRUNC, storage.FileMode0644)
	if err != nil {
		return fmt.Errorf("create info file: %w", err)
	}
	r.data, err = storage.OpenPager(dataName(dir, name), false)
	if err != nil {
		_ = r.info.Close()
		return fmt.Errorf("create data file: %w", err)
	}
	r.ovflow, err = storage.OpenPager(ovflowName(dir, name), false)
	if err != nil {
		_ = r.info.Close()
		_ = r.data.Close()
		return fmt.Errorf("create ovflow file: %w", err)
	}

	for i := 0; i < npages0; i++ {
		if _, err := r.data.AddPage(); err != nil {
			_ = r.closeFiles()
			return err
		}
	}
	return r.Close()
}

// Open sets up a relation handle from its three files and reads the
// metadata. A nil logger is replaced with a no-op one.
func Open(dir, name string, mode Mode, log *zap.SugaredLogger) (*Relation, error) {
	if !Exists(dir, name) {
		return nil, fmt.Errorf("%w: %s", ErrRelationMissing, name)
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	readOnly := mode == ReadOnly
	infoFlags := os.O_RDWR
	if readOnly {
		infoFlags = os.O_RDONLY
	}

	r := &Relation{mode: mode, log: log}
	var err error

	r.info, err = os.OpenFile(infoName(dir, name), infoFlags, storage.FileMode0644)
	if err != nil {
		return nil, fmt.Errorf("open info file: %w", err)
	}
	r.data, err = storage.OpenPager(dataName(dir, name), readOnly)
	if err != nil {
		_ = r.info.Close()
		return nil, fmt.Errorf("open data file: %w", err)
	}
	r.ovflow, err = storage.OpenPager(ovflowName(dir, name), readOnly)
	if err != nil {
		_ = r.info.Close()
		_ = r.data.Close()
		return nil, fmt.Errorf("open ovflow file: %w", err)
	}

	if err := r.readMeta(); err != nil {
		_ = r.closeFiles()
		return nil, err
	}

	log.Debugw("opened relation",
		"name", name, "nattrs", r.nattrs, "depth", r.depth,
		"sp", r.sp, "npages", r.npages, "ntuples", r.ntuples)
	return r, nil
}

// Close releases the handle. In write mode the metadata is rewritten
// first, so counters survive the round trip byte-identical.
func (r *Relation) Close() error {
	if r.mode == ReadWrite {
		if err := r.writeMeta(); err != nil {
			_ = r.closeFiles()
			return err
		}
	}
	return r.closeFiles()
}

func (r *Relation) closeFiles() error {
	errInfo := r.info.Close()
	errData := r.data.Close()
	errOvflow := r.ovflow.Close()
	if errInfo != nil {
		return errInfo
	}
	if errData != nil {
		return errData
	}
	return errOvflow
}

func (r *Relation) readMeta() error {
	buf := make([]byte, metaSize)
	if _, err := r.info.ReadAt(buf, 0); err != nil {
		return fmt.Errorf("read relation metadata: %w", err)
	}
	r.nattrs = bx.U32At(buf, metaOffNAttrs)
	r.depth = bx.U32At(buf, metaOffDepth)
	r.sp = bx.U32At(buf, metaOffSp)
	r.npages = bx.U32At(buf, metaOffNPages)
	r.ntuples = bx.U32At(buf, metaOffNTuples)
	for k := 0; k < chvec.MaxChVec; k++ {
		off := metaOffChVec + k*8
		r.cv[k] = chvec.Item{Att: bx.U32At(buf, off), Bit: bx.U32At(buf, off+4)}
	}
	if r.nattrs == 0 || r.npages != 1<<r.depth+r.sp {
		return ErrBadMeta
	}
	for _, item := range r.cv {
		if item.Att >= r.nattrs || item.Bit >= bits.Width {
			return ErrBadMeta
		}
	}
	return nil
}

func (r *Relation) writeMeta() error {
	buf := make([]byte, metaSize)
	bx.PutU32At(buf, metaOffNAttrs, r.nattrs)
	bx.PutU32At(buf, metaOffDepth, r.depth)
	bx.PutU32At(buf, metaOffSp, r.sp)
	bx.PutU32At(buf, metaOffNPages, r.npages)
	bx.PutU32At(buf, metaOffNTuples, r.ntuples)
	for k, item := range r.cv {
		off := metaOffChVec + k*8
		bx.PutU32At(buf, off, item.Att)
		bx.PutU32At(buf, off+4, item.Bit)
	}
	if _, err := r.info.WriteAt(buf, 0); err != nil {
		return fmt.Errorf("write relation metadata: %w", err)
	}
	return nil
}

// NAttrs is the number of attributes fixed at creation.
func (r *Relation) NAttrs() int { return int(r.nattrs) }

// Depth is the number of address bits used for un-split buckets.
func (r *Relation) Depth() int { return int(r.depth) }

// SplitPointer is the id of the next bucket to be split.
func (r *Relation) SplitPointer() int { return int(r.sp) }

// NPages is the number of primary pages; always 2^depth + sp.
func (r *Relation) NPages() int { return int(r.npages) }

// NTuples is the total number of stored tuples.
func (r *Relation) NTuples() int { return int(r.ntuples) }

// ChoiceVector returns the relation's choice vector.
func (r *Relation) ChoiceVector() chvec.ChVec { return r.cv }

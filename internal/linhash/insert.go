package linhash

import (
	"fmt"

	"github.com/tuannm99/mahfile/internal/bits"
	"github.com/tuannm99/mahfile/internal/chvec"
	"github.com/tuannm99/mahfile/internal/storage"
	"github.com/tuannm99/mahfile/internal/tuple"
)

// splitThreshold is the number of inserts between splits. Zero (very
// wide schemas) disables splitting.
func (r *Relation) splitThreshold() uint32 {
	return 1024 / (10 * r.nattrs)
}

// bucket applies the linear-hash addressing rule: buckets below the
// split pointer have already been re-hashed with one extra bit.
func (r *Relation) bucket(h bits.Bits) uint32 {
	if r.depth == 0 {
		return 0
	}
	p := uint32(bits.Lower(h, int(r.depth)))
	if p < r.sp {
		p = uint32(bits.Lower(h, int(r.depth)+1))
	}
	return p
}

// Insert adds one tuple and returns the id of the primary page of the
// bucket it landed in (the tuple itself may sit in an overflow page of
// that bucket). When the insert is the k*splitThreshold-th since
// creation, bucket sp is split first.
//
// Only Insert evaluates the split trigger; the reinsertion pass inside
// a split goes through addTuple directly, so splits never cascade.
func (r *Relation) Insert(t tuple.Tuple) (uint32, error) {
	if r.mode != ReadWrite {
		return storage.NoPage, ErrReadOnly
	}
	if _, err := tuple.Parse(int(r.nattrs), string(t)); err != nil {
		return storage.NoPage, err
	}
	if t.EncodedLen() > storage.PageSize-storage.PageHeaderSize {
		return storage.NoPage, fmt.Errorf("%w: %d bytes", storage.ErrTupleTooBig, len(t))
	}

	if ts := r.splitThreshold(); ts > 0 && (r.ntuples+1)%ts == 0 {
		if err := r.split(); err != nil {
			return storage.NoPage, err
		}
	}
	return r.addTuple(t)
}

// addTuple routes the tuple to its bucket and appends it to the first
// page with room: the primary page, then the overflow chain, then a
// fresh overflow page linked to the chain tail.
func (r *Relation) addTuple(t tuple.Tuple) (uint32, error) {
	h := chvec.TupleHash(r.cv, t.Vals())
	b := r.bucket(h)

	pg, err := r.data.GetPage(b)
	if err != nil {
		return storage.NoPage, err
	}
	if err := pg.AddTuple(string(t)); err == nil {
		if err := r.data.PutPage(b, pg); err != nil {
			return storage.NoPage, err
		}
		r.ntuples++
		return b, nil
	}

	// primary data page full
	if pg.Ovflow() == storage.NoPage {
		// add first overflow page in chain
		newp, err := r.ovflow.AddPage()
		if err != nil {
			return storage.NoPage, err
		}
		pg.SetOvflow(newp)
		if err := r.data.PutPage(b, pg); err != nil {
			return storage.NoPage, err
		}
		r.log.Debugw("allocated overflow page", "bucket", b, "page", newp)

		newpg, err := r.ovflow.GetPage(newp)
		if err != nil {
			return storage.NoPage, err
		}
		if err := newpg.AddTuple(string(t)); err != nil {
			return storage.NoPage, fmt.Errorf("tuple does not fit an empty overflow page: %w", err)
		}
		if err := r.ovflow.PutPage(newp, newpg); err != nil {
			return storage.NoPage, err
		}
		r.ntuples++
		return b, nil
	}

	// scan the overflow chain until we find space;
	// worst case: add a new ovflow page at the end of the chain
	var (
		prevp  = storage.NoPage
		prevpg *storage.Page
	)
	for ovp := pg.Ovflow(); ovp != storage.NoPage; {
		ovpg, err := r.ovflow.GetPage(ovp)
		if err != nil {
			return storage.NoPage, err
		}
		if err := ovpg.AddTuple(string(t)); err != nil {
			prevp, prevpg = ovp, ovpg
			ovp = ovpg.Ovflow()
			continue
		}
		if err := r.ovflow.PutPage(ovp, ovpg); err != nil {
			return storage.NoPage, err
		}
		r.ntuples++
		return b, nil
	}

	// all overflow pages are full; at this point there must be a tail
	newp, err := r.ovflow.AddPage()
	if err != nil {
		return storage.NoPage, err
	}
	newpg, err := r.ovflow.GetPage(newp)
	if err != nil {
		return storage.NoPage, err
	}
	if err := newpg.AddTuple(string(t)); err != nil {
		return storage.NoPage, fmt.Errorf("tuple does not fit an empty overflow page: %w", err)
	}
	if err := r.ovflow.PutPage(newp, newpg); err != nil {
		return storage.NoPage, err
	}
	prevpg.SetOvflow(newp)
	if err := r.ovflow.PutPage(prevp, prevpg); err != nil {
		return storage.NoPage, err
	}
	r.log.Debugw("extended overflow chain", "bucket", b, "page", newp)
	r.ntuples++
	return b, nil
}

// split redistributes bucket sp. All its tuples are pulled into
// memory, its primary page is reset with no overflow link, its
// overflow pages are cleared in place, the new bucket 2^depth+sp is
// appended, the split pointer advances, and the tuples are reinserted
// under the new geometry.
func (r *Relation) split() error {
	old := r.sp

	newb, err := r.data.AddPage()
	if err != nil {
		return err
	}
	r.npages++

	pg, err := r.data.GetPage(old)
	if err != nil {
		return err
	}
	tuples := pg.Tuples()
	chainHead := pg.Ovflow()

	for ovp := chainHead; ovp != storage.NoPage; {
		ovpg, err := r.ovflow.GetPage(ovp)
		if err != nil {
			return err
		}
		tuples = append(tuples, ovpg.Tuples()...)
		next := ovpg.Ovflow()

		// clear the overflow page in place, keeping its link to the
		// next one; the emptied pages stay linked among themselves
		cleared := storage.NewPage()
		cleared.SetOvflow(next)
		if err := r.ovflow.PutPage(ovp, cleared); err != nil {
			return err
		}
		ovp = next
	}

	// the primary page restarts with no overflow link; the old chain
	// is not freed back to the file
	if err := r.data.PutPage(old, storage.NewPage()); err != nil {
		return err
	}

	r.ntuples -= uint32(len(tuples))
	r.sp++
	if r.sp == 1<<r.depth {
		r.depth++
		r.sp = 0
	}

	r.log.Debugw("split bucket",
		"bucket", old, "newBucket", newb, "moved", len(tuples),
		"depth", r.depth, "sp", r.sp)

	for _, t := range tuples {
		if _, err := r.addTuple(tuple.Tuple(t)); err != nil {
			return fmt.Errorf("redistribute tuple: %w", err)
		}
	}
	return nil
}

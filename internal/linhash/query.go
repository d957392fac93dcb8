package linhash

import (
	"github.com/tuannm99/mahfile/internal/bits"
	"github.com/tuannm99/mahfile/internal/chvec"
	"github.com/tuannm99/mahfile/internal/storage"
	"github.com/tuannm99/mahfile/internal/tuple"
)

// Query is a resumable partial-match scan. Usage follows the scanner
// idiom:
//
//	q, err := r.NewQuery("?,a,?,?")
//	for q.Next() {
//	    use(q.Tuple())
//	}
//	err = q.Err()
//
// The cursor holds only bucket/page ids and a byte offset; pages are
// re-read on demand, so a scan sees pages as they are on disk.
type Query struct {
	rel     *Relation
	pattern []string
	known   bits.Bits
	unknown bits.Bits

	curBucket uint32
	inOvflow  bool
	curOvflow uint32
	curOff    int

	cur tuple.Tuple
	err error
}

// NewQuery plans a partial-match scan from a pattern of nattrs fields,
// each a literal value or the wildcard.
func (r *Relation) NewQuery(pattern string) (*Query, error) {
	vals, err := tuple.ParsePattern(int(r.nattrs), pattern)
	if err != nil {
		return nil, err
	}
	known, unknown := chvec.QueryBits(r.cv, vals)
	r.log.Debugw("start query",
		"pattern", pattern, "known", known.String(), "unknown", unknown.String())
	return &Query{
		rel:       r,
		pattern:   vals,
		known:     known,
		unknown:   unknown,
		curOvflow: storage.NoPage,
	}, nil
}

// candidate reports whether bucket b can hold tuples matching the
// pattern: every composite bit within the current depth must be
// unknown or agree with the bucket address. Buckets below the split
// pointer carry depth+1 address bits but are filtered on depth bits
// only; the extra buckets this admits yield no matches on the
// per-tuple equality test.
func (q *Query) candidate(b uint32) bool {
	for i := 0; i < int(q.rel.depth); i++ {
		if bits.IsSet(q.unknown, i) {
			continue
		}
		if bits.IsSet(q.known, i) != bits.IsSet(bits.Bits(b), i) {
			return false
		}
	}
	return true
}

// Next advances to the next matching tuple. It returns false when the
// scan has passed the last bucket or an I/O error occurred; Err
// distinguishes the two.
func (q *Query) Next() bool {
	for q.curBucket < q.rel.npages {
		if !q.candidate(q.curBucket) {
			q.advanceBucket()
			continue
		}

		if !q.inOvflow {
			pg, err := q.rel.data.GetPage(q.curBucket)
			if err != nil {
				q.err = err
				return false
			}
			if q.scanPage(pg) {
				return true
			}
			// primary page exhausted; move to its overflow chain
			q.inOvflow = true
			q.curOvflow = pg.Ovflow()
			q.curOff = 0
		}

		for q.curOvflow != storage.NoPage {
			pg, err := q.rel.ovflow.GetPage(q.curOvflow)
			if err != nil {
				q.err = err
				return false
			}
			if q.scanPage(pg) {
				return true
			}
			q.curOvflow = pg.Ovflow()
			q.curOff = 0
		}

		q.advanceBucket()
	}
	return false
}

// scanPage resumes at the saved byte offset and stops at the first
// match, leaving the offset just past it.
func (q *Query) scanPage(pg *storage.Page) bool {
	for {
		t, next, ok := pg.TupleAt(q.curOff)
		if !ok {
			return false
		}
		q.curOff = next
		if tup := tuple.Tuple(t); tup.Match(q.pattern) {
			q.cur = tup
			return true
		}
	}
}

func (q *Query) advanceBucket() {
	q.curBucket++
	q.inOvflow = false
	q.curOvflow = storage.NoPage
	q.curOff = 0
}

// Tuple returns the match found by the last successful Next.
func (q *Query) Tuple() tuple.Tuple {
	return q.cur
}

// Err returns the first I/O error encountered by the scan, if any.
func (q *Query) Err() error {
	return q.err
}

// Close ends the scan early; subsequent Next calls return false. The
// cursor never owns file handles (those belong to the Relation) so
// there is nothing else to release.
func (q *Query) Close() error {
	q.curBucket = q.rel.npages
	q.inOvflow = false
	q.curOvflow = storage.NoPage
	return q.err
}

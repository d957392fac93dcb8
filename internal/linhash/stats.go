package linhash

import (
	"fmt"
	"io"

	"github.com/tuannm99/mahfile/internal/storage"
)

// Stats writes the relation's global counters, its choice vector, and
// the occupancy of every bucket including overflow chains. NoPage
// renders as -1.
func (r *Relation) Stats(w io.Writer) error {
	fmt.Fprintf(w, "Global Info:\n")
	fmt.Fprintf(w, "#attrs:%d  #pages:%d  #tuples:%d  d:%d  sp:%d\n",
		r.nattrs, r.npages, r.ntuples, r.depth, r.sp)
	fmt.Fprintf(w, "Choice vector\n%s\n", r.cv)
	fmt.Fprintf(w, "Bucket Info:\n")
	fmt.Fprintf(w, "%-4s %s\n", "#", "Info on pages in bucket")
	fmt.Fprintf(w, "%-4s %s\n", "", "(pageID,#tuples,freebytes,ovflow)")

	for b := uint32(0); b < r.npages; b++ {
		pg, err := r.data.GetPage(b)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "[%2d]  (d%d,%d,%d,%d)",
			b, b, pg.NTuples(), pg.FreeSpace(), int32(pg.Ovflow()))

		for ovp := pg.Ovflow(); ovp != storage.NoPage; {
			ovpg, err := r.ovflow.GetPage(ovp)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, " -> (ov%d,%d,%d,%d)",
				ovp, ovpg.NTuples(), ovpg.FreeSpace(), int32(ovpg.Ovflow()))
			ovp = ovpg.Ovflow()
		}
		fmt.Fprintln(w)
	}
	return nil
}

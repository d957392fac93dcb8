package linhash

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuannm99/mahfile/internal/storage"
	"github.com/tuannm99/mahfile/internal/tuple"
)

func openForWrite(t *testing.T, dir, name string, nattrs, npages0, depth0 int, cv string) *Relation {
	t.Helper()
	require.NoError(t, Create(dir, name, nattrs, npages0, depth0, cv))
	r, err := Open(dir, name, ReadWrite, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func counts(tuples []tuple.Tuple) map[string]int {
	m := map[string]int{}
	for _, tup := range tuples {
		m[string(tup)]++
	}
	return m
}

func TestPartialMatchOnBoundAttributes(t *testing.T) {
	t.Parallel()
	r := openForWrite(t, t.TempDir(), "r", 4, 1, 0, "0,0:1,0:2,0:3,0")

	for _, s := range []tuple.Tuple{"1,a,x,10", "2,a,y,20", "1,b,x,30"} {
		_, err := r.Insert(s)
		require.NoError(t, err)
	}

	got := counts(scanAll(t, r, "?,a,?,?"))
	want := map[string]int{"1,a,x,10": 1, "2,a,y,20": 1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("scan mismatch (-want +got):\n%s", diff)
	}

	got = counts(scanAll(t, r, "1,?,x,?"))
	want = map[string]int{"1,a,x,10": 1, "1,b,x,30": 1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("scan mismatch (-want +got):\n%s", diff)
	}

	// two bound attributes
	assert.Equal(t, []tuple.Tuple{"1,a,x,10"}, scanAll(t, r, "1,a,?,?"))
}

func TestFullySpecifiedAndMismatchedPatterns(t *testing.T) {
	t.Parallel()
	r := openForWrite(t, t.TempDir(), "r", 2, 1, 0, "")

	_, err := r.Insert("hello,world")
	require.NoError(t, err)

	assert.Len(t, scanAll(t, r, "hello,world"), 1)
	assert.Len(t, scanAll(t, r, "hello,?"), 1)
	assert.Empty(t, scanAll(t, r, "?,wrong"))
	assert.Empty(t, scanAll(t, r, "world,hello"))
}

func TestScanEmptyRelation(t *testing.T) {
	t.Parallel()
	r := openForWrite(t, t.TempDir(), "r", 3, 4, 2, "")

	assert.Empty(t, scanAll(t, r, "?,?,?"))
}

func TestScanNeverContradictsPattern(t *testing.T) {
	t.Parallel()
	r := openForWrite(t, t.TempDir(), "r", 4, 2, 1, "")

	for i := 0; i < 60; i++ {
		_, err := r.Insert(tuple.Tuple(fmt.Sprintf("%d,g%d,x,%d", i, i%3, i*7)))
		require.NoError(t, err)
	}

	results := scanAll(t, r, "?,g1,?,?")
	require.NotEmpty(t, results)
	for _, tup := range results {
		assert.Equal(t, "g1", tup.Vals()[1])
	}
}

func TestSplitAtThreshold(t *testing.T) {
	t.Parallel()
	r := openForWrite(t, t.TempDir(), "r", 4, 1, 0, "0,0:1,0:2,0:3,0")

	// T_split = 1024/(10*4) = 25
	require.Equal(t, uint32(25), r.splitThreshold())

	want := map[string]int{}
	for i := 1; i <= 24; i++ {
		tup := fmt.Sprintf("%d,a,x,%d", i, i*10)
		_, err := r.Insert(tuple.Tuple(tup))
		require.NoError(t, err)
		want[tup]++
	}

	// no split yet
	assert.Equal(t, 0, r.Depth())
	assert.Equal(t, 1, r.NPages())

	// the 25th insert splits bucket 0 before the tuple is placed:
	// sp advances 0 -> 1 = 2^0, so depth becomes 1 and sp wraps to 0
	tup := "25,a,x,250"
	_, err := r.Insert(tuple.Tuple(tup))
	require.NoError(t, err)
	want[tup]++

	assert.Equal(t, 1, r.Depth())
	assert.Equal(t, 0, r.SplitPointer())
	assert.Equal(t, 2, r.NPages())
	assert.Equal(t, 25, r.NTuples())

	// every tuple stays reachable, each exactly once
	if diff := cmp.Diff(want, counts(scanAll(t, r, "?,?,?,?"))); diff != "" {
		t.Errorf("scan after split (-want +got):\n%s", diff)
	}
}

func TestManySplitsKeepAllTuplesReachable(t *testing.T) {
	t.Parallel()
	r := openForWrite(t, t.TempDir(), "r", 4, 1, 0, "")

	want := map[string]int{}
	for i := 0; i < 300; i++ {
		tup := fmt.Sprintf("k%d,f%d,s%d,%d", i, i%7, i%11, i)
		_, err := r.Insert(tuple.Tuple(tup))
		require.NoError(t, err)
		want[tup]++
	}

	// 300 inserts at T_split=25 drive repeated splits and depth growth
	assert.Equal(t, r.NPages(), (1<<r.Depth())+r.SplitPointer())
	assert.Greater(t, r.Depth(), 1)
	assert.Equal(t, 300, r.NTuples())

	if diff := cmp.Diff(want, counts(scanAll(t, r, "?,?,?,?"))); diff != "" {
		t.Errorf("scan after splits (-want +got):\n%s", diff)
	}

	// partial-match results agree with a filtered full scan
	partial := counts(scanAll(t, r, "?,f3,?,?"))
	filtered := map[string]int{}
	for tup := range want {
		if tuple.Tuple(tup).Match([]string{"?", "f3", "?", "?"}) {
			filtered[tup]++
		}
	}
	if diff := cmp.Diff(filtered, partial); diff != "" {
		t.Errorf("partial scan (-want +got):\n%s", diff)
	}
}

func TestExactFitThenOverflow(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	r := openForWrite(t, dir, "r", 1, 1, 0, "")

	// one tuple of maximum payload fills the primary page exactly
	max := tuple.Tuple(strings.Repeat("v", storage.MaxTupleLen))
	_, err := r.Insert(max)
	require.NoError(t, err)
	require.NoError(t, r.Close())

	data, err := storage.OpenPager(dir+"/r.data", true)
	require.NoError(t, err)
	pg, err := data.GetPage(0)
	require.NoError(t, err)
	assert.Equal(t, 0, pg.FreeSpace())
	assert.Equal(t, storage.NoPage, pg.Ovflow())
	require.NoError(t, data.Close())

	ovflow, err := storage.OpenPager(dir+"/r.ovflow", true)
	require.NoError(t, err)
	assert.Equal(t, 0, ovflow.PageCount())
	require.NoError(t, ovflow.Close())

	// the next insert has no room and forces an overflow page
	r2, err := Open(dir, "r", ReadWrite, nil)
	require.NoError(t, err)
	_, err = r2.Insert("z")
	require.NoError(t, err)
	require.NoError(t, r2.Close())

	data, err = storage.OpenPager(dir+"/r.data", true)
	require.NoError(t, err)
	pg, err = data.GetPage(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), pg.Ovflow())
	require.NoError(t, data.Close())

	ovflow, err = storage.OpenPager(dir+"/r.ovflow", true)
	require.NoError(t, err)
	assert.Equal(t, 1, ovflow.PageCount())
	require.NoError(t, ovflow.Close())

	// both tuples remain reachable
	r3, err := Open(dir, "r", ReadOnly, nil)
	require.NoError(t, err)
	defer func() { _ = r3.Close() }()
	assert.ElementsMatch(t, []tuple.Tuple{max, "z"}, scanAll(t, r3, "?"))
}

func TestOverflowChainScan(t *testing.T) {
	t.Parallel()
	// wide tuples on a single bucket force a multi-page overflow chain:
	// the split threshold for nattrs=2 is 51, and 40 tuples of ~107
	// bytes need about five pages
	r := openForWrite(t, t.TempDir(), "r", 2, 1, 0, "0,0:1,0")

	want := map[string]int{}
	for i := 0; i < 40; i++ {
		tup := fmt.Sprintf("row%03d,%s", i, strings.Repeat("p", 100))
		_, err := r.Insert(tuple.Tuple(tup))
		require.NoError(t, err)
		want[tup]++
	}

	if diff := cmp.Diff(want, counts(scanAll(t, r, "?,?"))); diff != "" {
		t.Errorf("chain scan (-want +got):\n%s", diff)
	}

	// resumable cursor: pulling one match at a time mid-chain
	q, err := r.NewQuery("row007,?")
	require.NoError(t, err)
	require.True(t, q.Next())
	assert.Equal(t, "row007", q.Tuple().Vals()[0])
	assert.False(t, q.Next())
	require.NoError(t, q.Err())

	// a closed cursor stays exhausted
	q2, err := r.NewQuery("?,?")
	require.NoError(t, err)
	require.True(t, q2.Next())
	require.NoError(t, q2.Close())
	assert.False(t, q2.Next())
}

func TestCandidateFilterSkipsBuckets(t *testing.T) {
	t.Parallel()
	r := openForWrite(t, t.TempDir(), "r", 2, 8, 3, "")

	want := map[string]int{}
	for i := 0; i < 64; i++ {
		tup := fmt.Sprintf("key%d,val%d", i, i)
		_, err := r.Insert(tuple.Tuple(tup))
		require.NoError(t, err)
		want[tup]++
	}

	// with every attribute bound, exactly one bucket prefix survives
	// the filter and the scan still returns the right tuple
	for i := 0; i < 64; i++ {
		pattern := fmt.Sprintf("key%d,val%d", i, i)
		assert.Equal(t, []tuple.Tuple{tuple.Tuple(pattern)}, scanAll(t, r, pattern))
	}

	if diff := cmp.Diff(want, counts(scanAll(t, r, "?,?"))); diff != "" {
		t.Errorf("full scan (-want +got):\n%s", diff)
	}
}

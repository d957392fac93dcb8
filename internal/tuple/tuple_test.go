package tuple

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tup, err := Parse(4, "1,a,x,10")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "a", "x", "10"}, tup.Vals())
	assert.Equal(t, 9, tup.EncodedLen())

	_, err = Parse(3, "1,a,x,10")
	require.ErrorIs(t, err, ErrFieldCount)

	_, err = Parse(2, "hello")
	require.ErrorIs(t, err, ErrFieldCount)

	_, err = Parse(3, "1,,x")
	require.ErrorIs(t, err, ErrBadField)

	_, err = Parse(2, "a,b\x00c")
	require.ErrorIs(t, err, ErrBadField)
}

func TestParsePattern(t *testing.T) {
	vals, err := ParsePattern(4, "?,a,?,?")
	require.NoError(t, err)
	assert.Equal(t, []string{"?", "a", "?", "?"}, vals)

	// fully wildcarded and fully specified are both fine
	_, err = ParsePattern(2, "?,?")
	require.NoError(t, err)
	_, err = ParsePattern(2, "hello,world")
	require.NoError(t, err)

	_, err = ParsePattern(2, "?,?,?")
	require.ErrorIs(t, err, ErrFieldCount)
	_, err = ParsePattern(2, "?,")
	require.ErrorIs(t, err, ErrBadField)
}

func TestMatch(t *testing.T) {
	tup := Join([]string{"1", "a", "x", "10"})

	assert.True(t, tup.Match([]string{"?", "?", "?", "?"}))
	assert.True(t, tup.Match([]string{"1", "a", "x", "10"}))
	assert.True(t, tup.Match([]string{"?", "a", "?", "?"}))
	assert.True(t, tup.Match([]string{"1", "?", "x", "?"}))

	assert.False(t, tup.Match([]string{"2", "?", "?", "?"}))
	assert.False(t, tup.Match([]string{"?", "a", "?", "20"}))
	// a pattern for another schema never matches
	assert.False(t, tup.Match([]string{"?", "?"}))
}

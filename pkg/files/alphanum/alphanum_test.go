package alphanum_test

import (
	"slices"
	"strings"
	"testing"

	"github.com/jamesainslie/tfiles/pkg/files/alphanum"
	"github.com/stretchr/testify/assert"
)

func TestCompare(t *testing.T) {
	t.Run("numeric runs compare by value", func(t *testing.T) {
		assert.Negative(t, alphanum.Compare("file2", "file10"))
		assert.Positive(t, alphanum.Compare("file10", "file2"))
	})

	t.Run("equal strings compare equal", func(t *testing.T) {
		assert.Zero(t, alphanum.Compare("Movie.mkv", "Movie.mkv"))
	})

	t.Run("empty string sorts first", func(t *testing.T) {
		assert.Negative(t, alphanum.Compare("", "a"))
		assert.Positive(t, alphanum.Compare("a", ""))
		assert.Zero(t, alphanum.Compare("", ""))
	})

	t.Run("digits sort before letters", func(t *testing.T) {
		assert.Negative(t, alphanum.Compare("1abc", "abc"))
		assert.Positive(t, alphanum.Compare("abc", "1abc"))
	})

	t.Run("leading zeros fall back to length", func(t *testing.T) {
		assert.Negative(t, alphanum.Compare("7", "007"))
	})

	t.Run("huge numbers sort after small ones", func(t *testing.T) {
		assert.Positive(t, alphanum.Compare("x99999999999999999999", "x5"))
		assert.Negative(t, alphanum.Compare("x5", "x99999999999999999999"))
	})

	t.Run("digit runs longer than int64", func(t *testing.T) {
		nines := "ep" + strings.Repeat("9", 25) + ".mkv"
		eights := "ep" + strings.Repeat("8", 25) + ".mkv"
		padded := "ep000" + strings.Repeat("8", 25) + ".mkv"
		longer := "ep1" + strings.Repeat("0", 25) + ".mkv"

		tests := []struct {
			a, b string
			want int
		}{
			{nines, nines, 0},
			{eights, nines, -1},
			{nines, longer, -1},
			{eights, padded, -1},
			{"ep5.mkv", eights, -1},
		}
		for _, tt := range tests {
			got := alphanum.Compare(tt.a, tt.b)
			assert.Equal(t, tt.want, sign(got), "Compare(%q, %q)", tt.a, tt.b)
			assert.Equal(t, -tt.want, sign(alphanum.Compare(tt.b, tt.a)), "Compare(%q, %q)", tt.b, tt.a)
		}
	})

	t.Run("text runs use collation", func(t *testing.T) {
		assert.Negative(t, alphanum.Compare("AAA", "ZZZ"))
		assert.Negative(t, alphanum.Compare("apple", "Banana"))
	})
}

func TestLessSortsListing(t *testing.T) {
	names := []string{"Episode 10.mkv", "Episode 2.mkv", "Episode 1.mkv", "Extras"}
	slices.SortFunc(names, alphanum.Compare)

	assert.Equal(t, []string{"Episode 1.mkv", "Episode 2.mkv", "Episode 10.mkv", "Extras"}, names)
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

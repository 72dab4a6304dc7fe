package combinator

import (
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("c%02d", i)
	}
	return out
}

func TestCombinations_CountMatchesBinomialSum(t *testing.T) {
	for _, n := range []int{0, 1, 2, 3, 4, 5, 6, 7, 10, 12} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			got := slices.Collect(Combinations(names(n), DefaultMinSize, DefaultMaxSize))
			assert.Len(t, got, Count(n, DefaultMinSize, DefaultMaxSize))
		})
	}

	assert.Equal(t, 10+10+5+1, Count(5, 2, 5))
	assert.Equal(t, 45+120+210+252, Count(10, 2, 5))
}

func TestCombinations_NoDuplicates(t *testing.T) {
	ids := names(9)
	seen := map[string]bool{}

	for combo := range Combinations(ids, DefaultMinSize, DefaultMaxSize) {
		require.GreaterOrEqual(t, len(combo), 2)
		require.LessOrEqual(t, len(combo), 5)

		members := map[string]bool{}
		for _, id := range combo {
			require.False(t, members[id], "duplicate id %s in %v", id, combo)
			members[id] = true
		}

		sorted := slices.Clone(combo)
		slices.Sort(sorted)
		key := strings.Join(sorted, ",")
		require.False(t, seen[key], "combination %v repeated", combo)
		seen[key] = true
	}
}

func TestCombinations_PreservesSourceOrder(t *testing.T) {
	ids := []string{"Uniqueness", "Format", "Range", "Completeness"}

	got := slices.Collect(Combinations(ids, 2, 2))

	require.Len(t, got, 6)
	assert.Equal(t, Combination{"Uniqueness", "Format"}, got[0])
	assert.Equal(t, Combination{"Uniqueness", "Range"}, got[1])
	assert.Equal(t, Combination{"Range", "Completeness"}, got[5])
	for _, combo := range got {
		assert.Less(t, slices.Index(ids, combo[0]), slices.Index(ids, combo[1]))
	}
}

func TestCombinations_ThreeCategories(t *testing.T) {
	got := slices.Collect(Combinations([]string{"X", "Y", "Z"}, 3, 5))

	assert.Equal(t, []Combination{{"X", "Y", "Z"}}, got)
}

func TestCombinations_SizesAscend(t *testing.T) {
	prev := 0
	for combo := range Combinations(names(6), 2, 5) {
		assert.GreaterOrEqual(t, len(combo), prev)
		prev = len(combo)
	}
	assert.Equal(t, 5, prev)
}

func TestCombinations_StopsEarly(t *testing.T) {
	taken := 0
	for range Combinations(names(10), 2, 5) {
		taken++
		if taken == 3 {
			break
		}
	}
	assert.Equal(t, 3, taken)
}

func TestCombination_String(t *testing.T) {
	assert.Equal(t, "(X, Y)", Combination{"X", "Y"}.String())
}

func TestSampleDomains_SizeAndDistinct(t *testing.T) {
	rng := NewRand(7)
	domains := names(30)

	for i := 0; i < 200; i++ {
		sample := SampleDomains(rng, domains, 2, 5)
		require.GreaterOrEqual(t, len(sample), 2)
		require.LessOrEqual(t, len(sample), 5)

		seen := map[string]bool{}
		for _, d := range sample {
			require.Contains(t, domains, d)
			require.False(t, seen[d])
			seen[d] = true
		}
	}
}

func TestSampleDomains_Reproducible(t *testing.T) {
	domains := names(30)

	a := SampleDomains(NewRand(42), domains, 2, 5)
	b := SampleDomains(NewRand(42), domains, 2, 5)

	assert.Equal(t, a, b)
}

func TestSampleDomains_ClampsToAvailable(t *testing.T) {
	domains := []string{"Retail", "Banking", "Healthcare"}

	sample := SampleDomains(NewRand(1), domains, 2, 5)

	assert.GreaterOrEqual(t, len(sample), 2)
	assert.LessOrEqual(t, len(sample), 3)
	assert.Nil(t, SampleDomains(NewRand(1), nil, 2, 5))
}

func TestSampleDomains_DoesNotMutateInput(t *testing.T) {
	domains := names(10)
	original := slices.Clone(domains)

	SampleDomains(NewRand(3), domains, 5, 5)

	assert.Equal(t, original, domains)
}

// Package combinator enumerates bounded-size subsets of constraint categories
// and samples business domains for each generation request.
package combinator

import (
	"iter"
	"math/rand/v2"
	"strings"
)

// Default subset bounds.
const (
	DefaultMinSize = 2
	DefaultMaxSize = 5
)

// Combination is an ordered selection of distinct category names, kept in
// the source order of the catalog.
type Combination []string

func (c Combination) String() string {
	return "(" + strings.Join(c, ", ") + ")"
}

// Combinations yields every subset of ids with size in [minSize, maxSize].
// Sizes ascend; within a size, subsets follow the lexicographic order of
// their source indices. Sizes larger than len(ids) yield nothing.
// Each yielded Combination is a fresh slice the caller may keep.
func Combinations(ids []string, minSize, maxSize int) iter.Seq[Combination] {
	return func(yield func(Combination) bool) {
		n := len(ids)
		for k := max(minSize, 1); k <= maxSize && k <= n; k++ {
			idx := make([]int, k)
			for i := range idx {
				idx[i] = i
			}
			for {
				combo := make(Combination, k)
				for i, j := range idx {
					combo[i] = ids[j]
				}
				if !yield(combo) {
					return
				}

				// Advance the rightmost index that still has room.
				i := k - 1
				for i >= 0 && idx[i] == n-k+i {
					i--
				}
				if i < 0 {
					break
				}
				idx[i]++
				for j := i + 1; j < k; j++ {
					idx[j] = idx[j-1] + 1
				}
			}
		}
	}
}

// Count returns the number of combinations Combinations yields for n ids,
// i.e. the sum of C(n, k) for k in [minSize, maxSize].
func Count(n, minSize, maxSize int) int {
	total := 0
	for k := max(minSize, 1); k <= maxSize && k <= n; k++ {
		total += binomial(n, k)
	}
	return total
}

func binomial(n, k int) int {
	if k < 0 || k > n {
		return 0
	}
	k = min(k, n-k)
	result := 1
	for i := 1; i <= k; i++ {
		result = result * (n - k + i) / i
	}
	return result
}

// SampleDomains draws a uniformly sized sample of distinct domains, without
// replacement. The size is picked from [minSize, maxSize] and clamped to
// len(domains).
func SampleDomains(rng *rand.Rand, domains []string, minSize, maxSize int) []string {
	if len(domains) == 0 {
		return nil
	}
	minSize = max(1, min(minSize, len(domains)))
	maxSize = max(minSize, min(maxSize, len(domains)))

	size := minSize + rng.IntN(maxSize-minSize+1)

	// Partial Fisher-Yates over a copy.
	pool := make([]string, len(domains))
	copy(pool, domains)
	for i := 0; i < size; i++ {
		j := i + rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:size]
}

// NewRand returns a deterministic source for a non-zero seed and a
// randomly seeded one otherwise.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed, seed))
}

package rare

import (
	"text2phenotype.com/hmm/counts"
)

type Set map[string]struct{}

func (set Set) Contains(token string) bool {
	_, ok := set[token]
	return ok
}

func (set Set) Add(token string) {
	set[token] = struct{}{}
}

// Counter promotes a token to abundant the moment its threshold-th occurrence is observed.
type Counter struct {
	threshold int
	seen      map[string]int
	abundant  Set
}

func NewCounter(threshold int) *Counter {
	return &Counter{
		threshold: threshold,
		seen:      make(map[string]int),
		abundant:  make(Set),
	}
}

// Observe records one occurrence and reports whether the token is abundant afterwards.
func (c *Counter) Observe(token string) bool {
	if c.abundant.Contains(token) {
		return true
	}
	c.seen[token]++
	if c.seen[token] >= c.threshold {
		c.abundant.Add(token)
		delete(c.seen, token)
		return true
	}
	return false
}

func (c *Counter) Abundant() Set {
	return c.abundant
}

// FromCounts treats every word of a WORDTAG record as abundant: rare words were
// replaced before counting, so whatever survived was frequent. The rare symbols
// themselves are left out.
func FromCounts(store *counts.Store) Set {
	set := make(Set, len(store.Words()))
	for _, w := range store.Words() {
		if IsSymbol(w) {
			continue
		}
		set.Add(w)
	}
	return set
}

// Package searcher provides the bounded candidate lists branch-and-bound
// traversals fill: one sorted k-slot row per query, with an O(1) worst
// bound the pruning rules compare against.
package searcher

import "math"

// SortPolicy determines result ordering.
type SortPolicy int

const (
	// SortAscending keeps the smallest values: nearest-neighbor search.
	SortAscending SortPolicy = iota

	// SortDescending keeps the largest values: max-kernel search.
	SortDescending
)

// WorstValue returns the sentinel a slot holds before any candidate fills
// it. Pruning rules must treat it as "no bound yet" and never prune
// against it, which falls out of the comparisons naturally: nothing beats
// it, everything replaces it.
func (p SortPolicy) WorstValue() float64 {
	if p == SortAscending {
		return math.Inf(1)
	}

	return math.Inf(-1)
}

// Better reports whether a strictly outranks b under the policy.
func (p SortPolicy) Better(a, b float64) bool {
	if p == SortAscending {
		return a < b
	}

	return a > b
}

// String returns a human readable policy name.
func (p SortPolicy) String() string {
	if p == SortAscending {
		return "ascending"
	}

	return "descending"
}

// CandidateList holds the k best candidates per query, sorted best-first.
// Ties on value rank the lower reference index first, so every traversal
// strategy produces identical output. Rows of distinct queries are
// independent; concurrent inserts are safe as long as no two goroutines
// share a query.
type CandidateList struct {
	k          int
	numQueries int
	policy     SortPolicy
	indices    []int
	values     []float64
}

// NewCandidateList creates a list for numQueries queries with k slots
// each. Slots start out as index -1 holding the policy's worst value.
func NewCandidateList(numQueries, k int, policy SortPolicy) *CandidateList {
	l := &CandidateList{
		k:          k,
		numQueries: numQueries,
		policy:     policy,
		indices:    make([]int, numQueries*k),
		values:     make([]float64, numQueries*k),
	}

	for i := range l.indices {
		l.indices[i] = -1
		l.values[i] = policy.WorstValue()
	}

	return l
}

// K returns the slot count per query.
func (l *CandidateList) K() int { return l.k }

// NumQueries returns the number of query rows.
func (l *CandidateList) NumQueries() int { return l.numQueries }

// Policy returns the sort policy.
func (l *CandidateList) Policy() SortPolicy { return l.policy }

// WorstBound returns the value of the query's k-th slot. While the row is
// not yet full this is the policy's worst value, which no candidate or
// bound can lose against.
func (l *CandidateList) WorstBound(query int) float64 {
	return l.values[query*l.k+l.k-1]
}

// Full reports whether every slot of the query holds a real candidate.
func (l *CandidateList) Full(query int) bool {
	return l.indices[query*l.k+l.k-1] >= 0
}

// Insert offers a candidate for the query's row and reports whether it was
// kept. The row stays sorted best-first.
func (l *CandidateList) Insert(query, refIndex int, value float64) bool {
	if l.k == 0 {
		return false
	}

	base := query * l.k

	if !l.outranks(value, refIndex, base+l.k-1) {
		return false
	}

	// The same reference can be offered more than once per traversal (a
	// cover tree surfaces a node's point again through its self-child);
	// a row never holds an index twice.
	for i := base; i < base+l.k; i++ {
		if l.indices[i] == refIndex {
			return false
		}
	}

	pos := l.k - 1
	for pos > 0 && l.outranks(value, refIndex, base+pos-1) {
		l.indices[base+pos] = l.indices[base+pos-1]
		l.values[base+pos] = l.values[base+pos-1]
		pos--
	}

	l.indices[base+pos] = refIndex
	l.values[base+pos] = value

	return true
}

// outranks reports whether the candidate (value, refIndex) ranks before
// the slot's current occupant.
func (l *CandidateList) outranks(value float64, refIndex, slot int) bool {
	occupant := l.indices[slot]
	if occupant == -1 {
		return true
	}

	held := l.values[slot]
	if value != held {
		return l.policy.Better(value, held)
	}

	return refIndex < occupant
}

// Row returns the query's slots as zero-copy views: indices and values,
// best first. Unfilled slots hold -1 and the policy's worst value.
func (l *CandidateList) Row(query int) ([]int, []float64) {
	base := query * l.k

	return l.indices[base : base+l.k : base+l.k], l.values[base : base+l.k : base+l.k]
}

// Finalize copies the rows out as one indices row and one values row per
// query. Callers decide how to treat unfilled (-1) slots.
func (l *CandidateList) Finalize() ([][]int, [][]float64) {
	indices := make([][]int, l.numQueries)
	values := make([][]float64, l.numQueries)

	for q := 0; q < l.numQueries; q++ {
		ri, rv := l.Row(q)

		indices[q] = append([]int(nil), ri...)
		values[q] = append([]float64(nil), rv...)
	}

	return indices, values
}

package traverse

// Naive evaluates every (query, reference) pair without any pruning. It is
// the correctness baseline the tree drivers are measured against and the
// fallback when no tree exists.
func Naive(rule Rule, numQueries, numRefs int) Stats {
	var stats Stats
	for q := 0; q < numQueries; q++ {
		stats.Add(NaiveQuery(rule, q, numRefs))
	}
	return stats
}

// NaiveQuery evaluates a single query point against every reference point.
// It exists so callers can spread the quadratic scan across workers one
// query row at a time.
func NaiveQuery(rule Rule, queryIdx, numRefs int) Stats {
	for r := 0; r < numRefs; r++ {
		rule.BaseCase(queryIdx, r)
	}
	return Stats{BaseCases: int64(numRefs)}
}

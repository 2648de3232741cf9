package traverse

import (
	"sort"

	"github.com/hupe1980/treesearch/tree"
)

type nodePair struct {
	query tree.Node
	ref   tree.Node
	score float64
}

// DualTree searches the query and reference trees simultaneously. It runs an
// explicit work stack of (query node, reference node) pairs instead of
// recursing: every pair is scored once when it is produced, and rescored when
// it is popped because bounds may have tightened while it waited on the
// stack. Leaf-leaf pairs run base cases over their point cross product;
// internal pairs expand into the cross product of their children, with a
// leaf side standing for itself. Child pairs are pushed worst-first so the
// most promising pair is popped first.
func DualTree(rule Rule, query, ref tree.Node) Stats {
	var stats Stats

	score := rule.ScoreNodes(query, ref)
	stats.Scores++
	if score == PruneScore {
		return stats
	}

	stack := make([]nodePair, 0, 64)
	stack = append(stack, nodePair{query: query, ref: ref, score: score})

	var children []nodePair
	for len(stack) > 0 {
		pair := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		score := rule.RescoreNodes(pair.query, pair.ref, pair.score)
		stats.Scores++
		if score == PruneScore {
			continue
		}

		if pair.query.IsLeaf() && pair.ref.IsLeaf() {
			nq, nr := pair.query.NumPoints(), pair.ref.NumPoints()
			for i := 0; i < nq; i++ {
				qi := pair.query.Point(i)
				for j := 0; j < nr; j++ {
					rule.BaseCase(qi, pair.ref.Point(j))
				}
			}
			stats.BaseCases += int64(nq) * int64(nr)
			continue
		}

		children = children[:0]
		appendPair := func(q, r tree.Node) {
			s := rule.ScoreNodes(q, r)
			stats.Scores++
			if s == PruneScore {
				return
			}
			children = append(children, nodePair{query: q, ref: r, score: s})
		}

		switch {
		case pair.query.IsLeaf():
			for j := 0; j < pair.ref.NumChildren(); j++ {
				appendPair(pair.query, pair.ref.Child(j))
			}
		case pair.ref.IsLeaf():
			for i := 0; i < pair.query.NumChildren(); i++ {
				appendPair(pair.query.Child(i), pair.ref)
			}
		default:
			for i := 0; i < pair.query.NumChildren(); i++ {
				qc := pair.query.Child(i)
				for j := 0; j < pair.ref.NumChildren(); j++ {
					appendPair(qc, pair.ref.Child(j))
				}
			}
		}

		// Descending by score: the best pair ends up on top of the stack.
		sort.SliceStable(children, func(i, j int) bool {
			return children[i].score > children[j].score
		})
		stack = append(stack, children...)
	}

	return stats
}

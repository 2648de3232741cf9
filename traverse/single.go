package traverse

import (
	"sort"

	"github.com/hupe1980/treesearch/tree"
)

// SingleTree searches the reference tree depth-first for one query point.
// Children are visited in ascending score order so the most promising
// subtree tightens the query's bounds before its siblings are re-checked;
// siblings whose stale score no longer beats the tightened bound are pruned
// without descending.
func SingleTree(rule Rule, queryIdx int, ref tree.Node) Stats {
	var stats Stats
	singleTree(rule, queryIdx, ref, &stats)
	return stats
}

type scoredChild struct {
	node  tree.Node
	score float64
}

func singleTree(rule Rule, queryIdx int, node tree.Node, stats *Stats) {
	if node.IsLeaf() {
		n := node.NumPoints()
		for i := 0; i < n; i++ {
			rule.BaseCase(queryIdx, node.Point(i))
		}
		stats.BaseCases += int64(n)
		return
	}

	children := make([]scoredChild, 0, node.NumChildren())
	for i := 0; i < node.NumChildren(); i++ {
		child := node.Child(i)
		score := rule.Score(queryIdx, child)
		stats.Scores++
		if score == PruneScore {
			continue
		}
		children = append(children, scoredChild{node: child, score: score})
	}

	// Stable sort keeps sibling order deterministic on score ties.
	sort.SliceStable(children, func(i, j int) bool {
		return children[i].score < children[j].score
	})

	for i, c := range children {
		score := c.score
		if i > 0 {
			// Earlier siblings may have tightened the bounds.
			score = rule.Rescore(queryIdx, c.node, score)
			stats.Scores++
			if score == PruneScore {
				continue
			}
		}
		singleTree(rule, queryIdx, c.node, stats)
	}
}

package treesearch

// UnmapResults maps tree-internal search output back to input order. Both
// maps follow oldFromNew semantics, map[newIdx] = oldIdx: refMap translates
// candidate indices, queryMap relocates rows. A nil map is the identity.
// The sentinel index -1 (unfilled slot) passes through untranslated.
//
// Three shapes occur in practice: dual-tree search over distinct sets uses
// (refMap, queryMap); single-tree and naive search never permute the query
// set and use (refMap, nil); same-set search uses the reference map on both
// sides.
func UnmapResults(indices [][]int, values [][]float64, refMap, queryMap []int) ([][]int, [][]float64, error) {
	if len(indices) != len(values) {
		return nil, nil, &ParameterError{Name: "indices", Reason: "rows do not match values rows"}
	}
	if queryMap != nil && len(queryMap) != len(indices) {
		return nil, nil, &ParameterError{Name: "queryMap", Reason: "length does not match number of rows"}
	}

	outIndices := make([][]int, len(indices))
	outValues := make([][]float64, len(values))

	for j := range indices {
		row := j
		if queryMap != nil {
			row = queryMap[j]
			if row < 0 || row >= len(indices) {
				return nil, nil, &ParameterError{Name: "queryMap", Reason: "entry out of range"}
			}
		}

		mapped := make([]int, len(indices[j]))
		for i, idx := range indices[j] {
			switch {
			case idx < 0:
				mapped[i] = -1
			case refMap == nil:
				mapped[i] = idx
			case idx >= len(refMap):
				return nil, nil, &ParameterError{Name: "refMap", Reason: "candidate index out of range"}
			default:
				mapped[i] = refMap[idx]
			}
		}

		outIndices[row] = mapped
		outValues[row] = append([]float64(nil), values[j]...)
	}

	return outIndices, outValues, nil
}

// Package gaps detects discontinuities in reconstructed trade-ID sequences.
// A correct fetch of a window yields a contiguous run of IDs; anything
// missing from that run is reported to the caller, never repaired.
package gaps

// ListMissingIDs returns every integer absent from the otherwise-contiguous
// run between the minimum and maximum of ids, in ascending order. ids must be
// sorted ascending and free of duplicates; an empty or single-element input
// has no gaps.
func ListMissingIDs(ids []int64) []int64 {
	if len(ids) < 2 {
		return nil
	}

	// Fast path: run length matches the span, nothing can be missing.
	if int64(len(ids)) == ids[len(ids)-1]-ids[0]+1 {
		return nil
	}

	var missing []int64
	expected := ids[0]
	for _, id := range ids {
		for expected < id {
			missing = append(missing, expected)
			expected++
		}
		expected = id + 1
	}
	return missing
}

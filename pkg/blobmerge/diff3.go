// diff3.go implements the three-way hunk reconciliation step: given the
// replacement hunks base->left and base->right, produce a sequence of
// chunks that are either agreed content or a conflict needing both sides
// shown.
//
// Grounded on modules/diferenco/merge.go's diff3MergeIndices/Diff3Merge
// (itself a Go port of bhousel/node-diff3, from Tony Garnock-Jones'
// original Synchrotron project): same two-pass idea — diff each side
// against base, then walk both hunk lists in lockstep over base line
// numbers, a hunk standing alone if its base range doesn't overlap the
// other side's, in conflict when both sides touch overlapping base ranges
// with different results — rewritten here directly over hunk ranges rather
// than the ported index-tuple representation.
package blobmerge

// chunk is one piece of the merged output: either lines both sides agree on
// (Conflict == false) or a three-way conflict needing both sides rendered.
type chunk struct {
	Conflict bool
	Lines    []string // agreed content, when !Conflict
	Left     []string // conflicting left-side content, when Conflict
	Right    []string // conflicting right-side content, when Conflict
}

func linesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// diff3Merge reconciles base/left/right line arrays into a chunk sequence.
func diff3Merge(base, left, right []string) []chunk {
	leftHunks := diffHunks(base, left)
	rightHunks := diffHunks(base, right)

	var chunks []chunk
	pos := 0 // next base line not yet emitted
	li, ri := 0, 0

	flushUnchanged := func(upTo int) {
		if upTo > pos {
			chunks = append(chunks, chunk{Lines: append([]string(nil), base[pos:upTo]...)})
			pos = upTo
		}
	}

	for li < len(leftHunks) || ri < len(rightHunks) {
		var lh, rh *hunk
		if li < len(leftHunks) {
			lh = &leftHunks[li]
		}
		if ri < len(rightHunks) {
			rh = &rightHunks[ri]
		}
		// Two insertions at the same base position overlap: they must agree
		// or conflict, never be emitted one after the other.
		sameInsertPoint := lh != nil && rh != nil && lh.BaseLen == 0 && rh.BaseLen == 0 && lh.BaseStart == rh.BaseStart

		switch {
		case lh != nil && !sameInsertPoint && (rh == nil || lh.baseEnd() <= rh.BaseStart):
			flushUnchanged(lh.BaseStart)
			chunks = append(chunks, chunk{Lines: lh.New})
			pos = lh.baseEnd()
			li++
		case rh != nil && !sameInsertPoint && (lh == nil || rh.baseEnd() <= lh.BaseStart):
			flushUnchanged(rh.BaseStart)
			chunks = append(chunks, chunk{Lines: rh.New})
			pos = rh.baseEnd()
			ri++
		default:
			// Overlapping base ranges: agreement iff both hunks cover
			// exactly the same range and produce the same replacement.
			start := min(lh.BaseStart, rh.BaseStart)
			end := max(lh.baseEnd(), rh.baseEnd())
			flushUnchanged(start)
			if lh.BaseStart == rh.BaseStart && lh.BaseLen == rh.BaseLen && linesEqual(lh.New, rh.New) {
				chunks = append(chunks, chunk{Lines: lh.New})
			} else {
				chunks = append(chunks, chunk{Conflict: true, Left: lh.New, Right: rh.New})
			}
			pos = end
			li++
			ri++
		}
	}
	flushUnchanged(len(base))
	return chunks
}

package blobmerge

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/oakmere/mergekit/modules/objstore"
	"github.com/oakmere/mergekit/modules/oid"
)

// Conflict marker tokens, matching the teacher's diferenco.Sep1/Sep2/Sep3
// (modules/diferenco/merge.go) so output is recognizable to anyone who has
// used the teacher's own merge driver.
const (
	markerStart = "<<<<<<<"
	markerMid   = "======="
	markerEnd   = ">>>>>>>"
)

// ErrNotText is returned when base, left or right is not valid UTF-8. The
// standard library's utf8.Valid is the right tool here: no third-party
// charset-detection library in the retrieval pack does "is this exactly
// UTF-8" any better, and pulling one in (e.g. a chardet port) would trade a
// one-line stdlib check for heuristic encoding guessing this merge engine
// doesn't need — text is either valid UTF-8 or it's treated as binary.
var ErrNotText = fmt.Errorf("blobmerge: content is not valid UTF-8 text")

// Result is the outcome of merging one blob.
type Result struct {
	// Merged is the resulting content. When Conflicted, it contains
	// standard conflict markers around the disagreeing regions.
	Merged     []byte
	Conflicted bool
}

// MergeBlobs performs a three-way line merge of the blobs named by base,
// left and right, per spec.md §4.4. It returns ErrNotText, without
// attempting a merge, if any of the three isn't valid UTF-8.
func MergeBlobs(ctx context.Context, store objstore.Store, base, left, right oid.OID) (Result, error) {
	baseBytes, err := readBlob(ctx, store, base)
	if err != nil {
		return Result{}, err
	}
	leftBytes, err := readBlob(ctx, store, left)
	if err != nil {
		return Result{}, err
	}
	rightBytes, err := readBlob(ctx, store, right)
	if err != nil {
		return Result{}, err
	}
	if !utf8.Valid(baseBytes) || !utf8.Valid(leftBytes) || !utf8.Valid(rightBytes) {
		return Result{}, ErrNotText
	}

	baseLines := splitLines(baseBytes)
	leftLines := splitLines(leftBytes)
	rightLines := splitLines(rightBytes)

	chunks := diff3Merge(baseLines, leftLines, rightLines)

	var out bytes.Buffer
	conflicted := false
	for _, c := range chunks {
		if !c.Conflict {
			for _, l := range c.Lines {
				out.WriteString(l)
			}
			continue
		}
		conflicted = true
		out.WriteString(markerStart + " left\n")
		for _, l := range c.Left {
			out.WriteString(l)
		}
		out.WriteString(markerMid + "\n")
		for _, l := range c.Right {
			out.WriteString(l)
		}
		out.WriteString(markerEnd + " right\n")
	}
	return Result{Merged: out.Bytes(), Conflicted: conflicted}, nil
}

func readBlob(ctx context.Context, store objstore.Store, id oid.OID) ([]byte, error) {
	if id.IsZero() {
		// A zero OID stands for "no content", used when a path has no
		// counterpart in the merge base (e.g. two sides independently
		// created the same file, or a nested tree merge has no base
		// record for this path): treat it as an empty file rather than a
		// lookup failure.
		return nil, nil
	}
	r, _, err := store.OpenBlob(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("blobmerge: opening %s: %w", id, err)
	}
	defer r.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("blobmerge: reading %s: %w", id, err)
	}
	return buf.Bytes(), nil
}

// splitLines splits content into lines, each retaining its trailing "\n" so
// joining them back reproduces the input exactly, including a (non-)final
// newline. This matches a line-oriented diff's usual convention and keeps
// diff3Merge's chunk reassembly a plain concatenation.
func splitLines(content []byte) []string {
	if len(content) == 0 {
		return nil
	}
	var lines []string
	for len(content) > 0 {
		i := bytes.IndexByte(content, '\n')
		if i < 0 {
			lines = append(lines, string(content))
			break
		}
		lines = append(lines, string(content[:i+1]))
		content = content[i+1:]
	}
	return lines
}

// SaveMerged writes a merge result's content to the store and returns its
// OID. Kept separate from MergeBlobs so callers (the Tree Merger) can
// decide whether a conflicted result should still be written, per
// spec.md §4.4's note that conflict markers are themselves valid blob
// content the caller may choose to materialize.
func SaveMerged(ctx context.Context, store objstore.Store, r Result) (oid.OID, error) {
	return store.SaveBlob(ctx, strings.NewReader(string(r.Merged)), int64(len(r.Merged)))
}

package objstore

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/oakmere/mergekit/modules/oid"
)

// kindByte/byteKind map EntryKind to/from the single-character tag used in
// the canonical tree encoding.
func kindByte(k EntryKind) byte {
	if k == KindTree {
		return 't'
	}
	return 'b'
}

func byteKind(b byte) (EntryKind, error) {
	switch b {
	case 't':
		return KindTree, nil
	case 'b':
		return KindBlob, nil
	default:
		return 0, fmt.Errorf("objstore: invalid tree entry kind byte %q", b)
	}
}

// EncodeTree produces the canonical byte serialization of a tree: one line
// per entry, sorted lexicographically by name, so that structurally equal
// trees always produce byte-identical output (spec.md §3 invariant 2 and 3).
func EncodeTree(t *Tree) []byte {
	var buf bytes.Buffer
	for _, rec := range t.Sorted() {
		if strings.Contains(rec.Name, "/") || rec.Name == "" {
			// The merge engine only reuses names of existing records, so this
			// fires only for a malformed tree; DecodeTree does not check names.
			panic(fmt.Sprintf("objstore: invalid tree entry name %q", rec.Name))
		}
		fmt.Fprintf(&buf, "%c %s %s\n", kindByte(rec.Kind), rec.Target, rec.Name)
	}
	return buf.Bytes()
}

// DecodeTree parses the canonical tree serialization produced by EncodeTree.
func DecodeTree(b []byte) (*Tree, error) {
	t := NewTree()
	sc := bufio.NewScanner(bytes.NewReader(b))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, " ", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("objstore: malformed tree line %q", line)
		}
		kind, err := byteKind(parts[0][0])
		if err != nil {
			return nil, err
		}
		target, err := oid.Parse(parts[1])
		if err != nil {
			return nil, fmt.Errorf("objstore: malformed tree entry target: %w", err)
		}
		name := parts[2]
		t.Entries[name] = &TreeRecord{Kind: kind, Target: target, Name: name}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

// HashTree is the pure hash(object) operation for trees: hashing the
// canonical serialization.
func HashTree(t *Tree) oid.OID {
	return oid.Of(EncodeTree(t))
}

// EncodeCommit produces the canonical byte serialization of a commit.
func EncodeCommit(c *Commit) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", c.Tree)
	if c.HasParent() {
		fmt.Fprintf(&buf, "parent %s\n", c.Parent)
	}
	if c.IsMerge() {
		fmt.Fprintf(&buf, "parent %s\n", c.SecondParent)
	}
	fmt.Fprintf(&buf, "author %s\n", c.Author)
	fmt.Fprintf(&buf, "timestamp %d\n", c.Timestamp.Unix())
	buf.WriteString("\n")
	buf.WriteString(c.Message)
	return buf.Bytes()
}

// DecodeCommit parses the canonical commit serialization produced by
// EncodeCommit.
func DecodeCommit(b []byte) (*Commit, error) {
	r := bufio.NewReader(bytes.NewReader(b))
	c := &Commit{}
	var parents []oid.OID
	for {
		line, err := r.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}
		trimmed := strings.TrimSuffix(line, "\n")
		if trimmed == "" {
			break
		}
		key, value, ok := strings.Cut(trimmed, " ")
		if !ok {
			return nil, fmt.Errorf("objstore: malformed commit header %q", trimmed)
		}
		switch key {
		case "tree":
			if c.Tree, err = oid.Parse(value); err != nil {
				return nil, err
			}
		case "parent":
			p, err := oid.Parse(value)
			if err != nil {
				return nil, err
			}
			parents = append(parents, p)
		case "author":
			c.Author = value
		case "timestamp":
			ts, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return nil, err
			}
			c.Timestamp = time.Unix(ts, 0).UTC()
		}
		if err == io.EOF {
			break
		}
	}
	if len(parents) > 0 {
		c.Parent = parents[0]
	}
	if len(parents) > 1 {
		c.SecondParent = parents[1]
	}
	msg, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	c.Message = string(msg)
	return c, nil
}

package refstore

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/oakmere/mergekit/modules/oid"
)

// LoadDisk reads a packed-refs-style file: one "<name> <oid-hex>" line per
// reference, plus an optional "HEAD heads/<branch>" symbolic line or
// "HEAD <oid-hex>" detached line. Missing path returns a fresh Store with
// HEAD symbolic to initialBranch, the same "first run" shape New provides.
func LoadDisk(path, initialBranch string) (*Store, error) {
	s := New(initialBranch)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("refstore: opening %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, value, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("refstore: malformed line %q in %s", line, path)
		}
		if name == "HEAD" {
			if strings.HasPrefix(value, HeadsPrefix) {
				s.headTarget = Name(value)
			} else {
				id, err := oid.Parse(value)
				if err != nil {
					return nil, fmt.Errorf("refstore: malformed HEAD target %q: %w", value, err)
				}
				s.Detach(id)
			}
			continue
		}
		id, err := oid.Parse(value)
		if err != nil {
			return nil, fmt.Errorf("refstore: malformed reference value %q: %w", value, err)
		}
		s.refs[Name(name)] = id
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("refstore: reading %s: %w", path, err)
	}
	return s, nil
}

// SaveDisk writes s to path via a temp file plus atomic rename, the same
// crash-safety convention modules/objstore.DiskStore uses for object
// writes: a reader never observes a half-written reference file.
func SaveDisk(path string, s *Store) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("refstore: creating %s: %w", tmp, err)
	}
	w := bufio.NewWriter(f)
	if s.headTarget != "" {
		fmt.Fprintf(w, "HEAD %s\n", s.headTarget)
	} else {
		fmt.Fprintf(w, "HEAD %s\n", s.headDetached)
	}
	for name, id := range s.refs {
		fmt.Fprintf(w, "%s %s\n", name, id)
	}
	flushErr := w.Flush()
	closeErr := f.Close()
	if flushErr != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("refstore: writing %s: %w", tmp, flushErr)
	}
	if closeErr != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("refstore: closing %s: %w", tmp, closeErr)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("refstore: renaming into %s: %w", path, err)
	}
	return nil
}

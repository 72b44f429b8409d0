// Package config implements merge-behavior configuration, loaded from a
// TOML file the way the teacher's modules/zeta/config package loads
// zeta.toml — via github.com/BurntSushi/toml, decoded into a plain struct
// and written back out with an atomic rename so a crash mid-write never
// corrupts the file on disk.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// ErrKeyNotFound mirrors the teacher's config.ErrKeyNotFound. No function in
// this package returns it.
var ErrKeyNotFound = errors.New("config: key not found")

// ConflictStyle names a rendering style for unresolved regions. It is loaded
// and saved with the configuration, but the Blob Text Merger does not read
// it: pkg/blobmerge always renders the two-sided merge style.
type ConflictStyle string

const (
	// StyleMerge renders only the two sides, the default <<<<<<< / ======
	// / >>>>>>> shape.
	StyleMerge ConflictStyle = "merge"
	// StyleDiff3 additionally renders the common ancestor's content
	// between a ||||||| separator and the left side, matching the
	// teacher's diferenco.SepO marker.
	StyleDiff3 ConflictStyle = "diff3"
)

// Merge holds every merge-time tunable.
type Merge struct {
	// ConflictStyle selects how conflicted regions are rendered.
	ConflictStyle ConflictStyle `toml:"conflict_style,omitempty"`
	// MaxBlobSize is a size limit in bytes for text merging (zero meaning
	// no limit). It is loaded and saved with the configuration; the Blob
	// Text Merger does not read it and diffs files of any size.
	MaxBlobSize int64 `toml:"max_blob_size,omitempty"`
	// AllowUnrelatedHistories permits a three-way merge to proceed when
	// the Ancestry Oracle reports Disjoint, producing a merge commit with
	// no common ancestor rather than failing outright.
	AllowUnrelatedHistories bool `toml:"allow_unrelated_histories,omitempty"`
}

// Config is the top-level decoded shape of a mergekit.toml file.
type Config struct {
	Merge Merge `toml:"merge"`
	User  User  `toml:"user"`
}

// User identifies the author recorded on merge commits.
type User struct {
	Name  string `toml:"name,omitempty"`
	Email string `toml:"email,omitempty"`
}

// Default returns the built-in configuration used when no file is present.
func Default() *Config {
	return &Config{
		Merge: Merge{
			ConflictStyle: StyleMerge,
			MaxBlobSize:   50 << 20, // 50 MiB, matching common text-diff tool defaults
		},
	}
}

// Load decodes path into a Config, falling back to Default() if the file
// doesn't exist.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: stat %s: %w", path, err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path via a temp file plus atomic rename, the same
// crash-safety shape as the teacher's config.atomicEncode.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("config: creating %s: %w", dir, err)
	}
	tmp := filepath.Join(dir, fmt.Sprintf(".mergekit-%d.toml", time.Now().UnixNano()))
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("config: creating temp file: %w", err)
	}
	enc := toml.NewEncoder(f)
	enc.Indent = ""
	encErr := enc.Encode(cfg)
	closeErr := f.Close()
	if encErr != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("config: encoding %s: %w", path, encErr)
	}
	if closeErr != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("config: closing temp file: %w", closeErr)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("config: renaming into %s: %w", path, err)
	}
	return nil
}

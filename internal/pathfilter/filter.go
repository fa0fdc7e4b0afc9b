package pathfilter

import (
	"path/filepath"
	"strings"

	"github.com/dshills/compdb-filter/internal/compdb"
)

// Filter keeps entries whose resolved file path has the resolved root as a string prefix
type Filter struct {
	root string
	cwd  string
}

// New creates a Filter for root. Relative paths, including root itself, are
// resolved against cwd, which should be absolute.
func New(root, cwd string) *Filter {
	return &Filter{
		root: Resolve(root, cwd),
		cwd:  cwd,
	}
}

// Root returns the resolved root directory
func (f *Filter) Root() string {
	return f.root
}

// Match reports whether file falls under the root
func (f *Filter) Match(file string) bool {
	return strings.HasPrefix(Resolve(file, f.cwd), f.root)
}

// Apply returns the matching entries of db in their original order.
// The returned database shares entries with db; neither is modified.
func (f *Filter) Apply(db compdb.Database) compdb.Database {
	kept := make(compdb.Database, 0, len(db))
	for _, rec := range db {
		if rec == nil {
			continue
		}
		if f.Match(rec.File()) {
			kept = append(kept, rec)
		}
	}
	return kept
}

// Apply filters db against root in one call
func Apply(db compdb.Database, root, cwd string) compdb.Database {
	return New(root, cwd).Apply(db)
}

// Resolve makes path absolute and lexically clean.
// Relative paths are joined to cwd; symlinks are left alone.
func Resolve(path, cwd string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(cwd, path)
}

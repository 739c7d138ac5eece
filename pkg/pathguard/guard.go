// Package pathguard confines filesystem paths to a single root directory.
//
// Every path that a user can influence goes through a Guard before anything
// touches the filesystem. A Guard compares resolved paths segment by segment,
// so "/data2" is never treated as being inside "/data".
package pathguard

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// ErrRejected is returned when a candidate path resolves outside the root.
var ErrRejected = errors.New("path is outside the root directory")

// Location is an absolute, symlink-resolved path that is either the root or
// nested under it. Only a Guard should produce one.
type Location string

func (l Location) String() string {
	return string(l)
}

type Guard struct {
	root string
}

// New resolves root once (absolute, symlinks evaluated) and returns a Guard for
// it. The root has to exist and be a directory.
func New(root string) (*Guard, error) {
	if root == "" {
		return nil, errors.New("root path is empty")
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	resolved, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve root directory: %s", absRoot)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if !info.IsDir() {
		return nil, errors.Errorf("root is not a directory: %s", resolved)
	}
	return &Guard{root: resolved}, nil
}

func (g *Guard) Root() Location {
	return Location(g.root)
}

// Confine normalizes candidate and returns it as a Location if it stays inside
// the root. Relative candidates are taken relative to the root. A candidate
// that does not exist yet is not rejected for that reason alone: the deepest
// existing ancestor is resolved and the missing tail is appended to it.
func (g *Guard) Confine(candidate string) (Location, error) {
	if candidate == "" || strings.ContainsRune(candidate, 0) {
		return "", errors.WithStack(ErrRejected)
	}
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(g.root, candidate)
	}
	abs, err := filepath.Abs(candidate)
	if err != nil {
		return "", errors.WithStack(err)
	}

	resolved, err := resolveExisting(abs)
	if err != nil {
		return "", err
	}
	if !contains(g.root, resolved) {
		return "", errors.Wrapf(ErrRejected, "%s", resolved)
	}
	return Location(resolved), nil
}

// Child confines the immediate child called name of parent. Names carrying a
// separator, "." or ".." are rejected outright since a listing never produces
// them.
func (g *Guard) Child(parent Location, name string) (Location, error) {
	if !ValidName(name) {
		return "", errors.Wrapf(ErrRejected, "invalid entry name %q", name)
	}
	return g.Confine(filepath.Join(string(parent), name))
}

// ValidName reports whether name can be the name of a single directory entry.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, "/\x00"+string(filepath.Separator))
}

// Rel returns the root-relative, slash-separated form of loc. The root itself
// is ".".
func (g *Guard) Rel(loc Location) string {
	rel, err := filepath.Rel(g.root, string(loc))
	if err != nil {
		return "."
	}
	return filepath.ToSlash(rel)
}

// Resolve is the inverse of Rel. A leading slash is ignored, so "/docs" and
// "docs" name the same location.
func (g *Guard) Resolve(rel string) (Location, error) {
	rel = strings.TrimLeft(rel, "/")
	if rel == "" || rel == "." {
		return g.Root(), nil
	}
	return g.Confine(filepath.Join(g.root, filepath.FromSlash(rel)))
}

// Display is the form shown to users. It never contains the real root path.
func (g *Guard) Display(loc Location) string {
	rel := g.Rel(loc)
	if rel == "." {
		return "/"
	}
	return "/" + rel
}

func (g *Guard) IsRoot(loc Location) bool {
	return string(loc) == g.root
}

// Parent returns the directory containing loc. The parent of the root is the
// root.
func (g *Guard) Parent(loc Location) Location {
	if g.IsRoot(loc) || !contains(g.root, string(loc)) {
		return g.Root()
	}
	return Location(filepath.Dir(string(loc)))
}

// Ancestors returns loc followed by each of its parents up to and including
// the root.
func (g *Guard) Ancestors(loc Location) []Location {
	if !contains(g.root, string(loc)) {
		return []Location{g.Root()}
	}
	out := []Location{loc}
	for !g.IsRoot(loc) {
		loc = g.Parent(loc)
		out = append(out, loc)
	}
	return out
}

// contains compares on path segments, never on raw string prefixes.
func contains(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	if filepath.IsAbs(rel) || rel == ".." {
		return false
	}
	return !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// resolveExisting evaluates symlinks in the longest existing prefix of p.
// An entry that exists but cannot be resolved (a dangling or looping symlink)
// is rejected, since its eventual target is unknown.
func resolveExisting(p string) (string, error) {
	resolved, err := filepath.EvalSymlinks(p)
	if err == nil {
		return resolved, nil
	}

	info, lerr := os.Lstat(p)
	if lerr == nil && info.Mode()&fs.ModeSymlink != 0 {
		return "", errors.Wrapf(ErrRejected, "unresolvable symlink %s", p)
	}

	parent := filepath.Dir(p)
	if parent == p {
		return p, nil
	}
	resolvedParent, err := resolveExisting(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedParent, filepath.Base(p)), nil
}

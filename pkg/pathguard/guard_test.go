package pathguard

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestGuard creates <tmp>/data with a docs subfolder and a readme, plus a
// sibling <tmp>/data-sibling and <tmp>/data2 that must stay out of reach.
func newTestGuard(t *testing.T) (*Guard, string) {
	t.Helper()

	// Resolve symlinks up front (macOS /var -> /private/var).
	tmp, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	root := filepath.Join(tmp, "data")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs", "inner"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "readme.txt"), []byte("hello"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(tmp, "data-sibling"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(tmp, "data2"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "secret.txt"), []byte("secret"), 0644))

	g, err := New(root)
	require.NoError(t, err)
	return g, root
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("resolves the root", func(tt *testing.T) {
		g, root := newTestGuard(tt)
		assert.Equal(tt, Location(root), g.Root())
	})

	t.Run("rejects a missing root", func(tt *testing.T) {
		_, err := New(filepath.Join(tt.TempDir(), "missing"))
		require.Error(tt, err)
	})

	t.Run("rejects a file as root", func(tt *testing.T) {
		file := filepath.Join(tt.TempDir(), "file")
		require.NoError(tt, os.WriteFile(file, nil, 0644))
		_, err := New(file)
		require.Error(tt, err)
		assert.Contains(tt, err.Error(), "not a directory")
	})

	t.Run("rejects an empty root", func(tt *testing.T) {
		_, err := New("")
		require.Error(tt, err)
	})
}

func TestConfine(t *testing.T) {
	t.Parallel()
	g, root := newTestGuard(t)
	parent := filepath.Dir(root)

	tests := []struct {
		name      string
		candidate string
		want      string
		rejected  bool
	}{
		{"root itself", root, root, false},
		{"root with trailing slash", root + "/", root, false},
		{"direct child", filepath.Join(root, "docs"), filepath.Join(root, "docs"), false},
		{"nested child", filepath.Join(root, "docs", "inner"), filepath.Join(root, "docs", "inner"), false},
		{"missing child is not rejected", filepath.Join(root, "docs", "nope.txt"), filepath.Join(root, "docs", "nope.txt"), false},
		{"dot segments collapse inside", root + "/docs/../readme.txt", filepath.Join(root, "readme.txt"), false},
		{"relative candidate is root relative", "docs", filepath.Join(root, "docs"), false},
		{"dotdot escape", root + "/../../etc", "", true},
		{"dotdot to parent", root + "/..", "", true},
		{"prefix sibling", root + "-sibling", "", true},
		{"prefix without separator", filepath.Join(parent, "data2"), "", true},
		{"absolute outside", "/etc/passwd", "", true},
		{"relative escape", "../secret.txt", "", true},
		{"empty", "", "", true},
		{"nul byte", root + "/docs\x00", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(tt *testing.T) {
			loc, err := g.Confine(tc.candidate)
			if tc.rejected {
				require.Error(tt, err)
				assert.True(tt, errors.Is(err, ErrRejected), "expected ErrRejected, got %v", err)
				assert.Empty(tt, loc)
				return
			}
			require.NoError(tt, err)
			assert.Equal(tt, Location(tc.want), loc)
		})
	}
}

func TestConfine_Symlinks(t *testing.T) {
	t.Parallel()
	g, root := newTestGuard(t)
	outside := filepath.Dir(root)

	require.NoError(t, os.Symlink(filepath.Join(outside, "secret.txt"), filepath.Join(root, "escape.txt")))
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "escape-dir")))
	require.NoError(t, os.Symlink(filepath.Join(root, "docs"), filepath.Join(root, "docs-link")))
	require.NoError(t, os.Symlink(filepath.Join(root, "gone"), filepath.Join(root, "dangling")))

	t.Run("file symlink pointing outside is rejected", func(tt *testing.T) {
		_, err := g.Confine(filepath.Join(root, "escape.txt"))
		assert.True(tt, errors.Is(err, ErrRejected))
	})

	t.Run("directory symlink pointing outside is rejected", func(tt *testing.T) {
		_, err := g.Confine(filepath.Join(root, "escape-dir"))
		assert.True(tt, errors.Is(err, ErrRejected))
	})

	t.Run("missing path under an escaping symlink is rejected", func(tt *testing.T) {
		_, err := g.Confine(filepath.Join(root, "escape-dir", "not-there"))
		assert.True(tt, errors.Is(err, ErrRejected))
	})

	t.Run("symlink inside the root resolves to its target", func(tt *testing.T) {
		loc, err := g.Confine(filepath.Join(root, "docs-link", "inner"))
		require.NoError(tt, err)
		assert.Equal(tt, Location(filepath.Join(root, "docs", "inner")), loc)
	})

	t.Run("dangling symlink is rejected", func(tt *testing.T) {
		_, err := g.Confine(filepath.Join(root, "dangling"))
		assert.True(tt, errors.Is(err, ErrRejected))
	})
}

func TestConfine_NeverEscapes(t *testing.T) {
	t.Parallel()
	g, root := newTestGuard(t)

	segments := []string{"..", ".", "docs", "inner", "readme.txt", "", "data", "data-sibling", "...", "..docs"}
	var candidates []string
	for _, a := range segments {
		for _, b := range segments {
			for _, c := range segments {
				candidates = append(candidates, strings.Join([]string{a, b, c}, "/"))
			}
		}
	}

	for _, rel := range candidates {
		for _, base := range []string{root, filepath.Join(root, "docs")} {
			loc, err := g.Confine(base + "/" + rel)
			if err != nil {
				assert.True(t, errors.Is(err, ErrRejected), "candidate %q: unexpected error %v", rel, err)
				continue
			}
			inside := string(loc) == root || strings.HasPrefix(string(loc), root+string(filepath.Separator))
			assert.True(t, inside, "candidate %q escaped to %q", rel, loc)
		}
	}
}

func TestChild(t *testing.T) {
	t.Parallel()
	g, root := newTestGuard(t)

	loc, err := g.Child(g.Root(), "docs")
	require.NoError(t, err)
	assert.Equal(t, Location(filepath.Join(root, "docs")), loc)

	for _, name := range []string{"", ".", "..", "../../etc", "docs/inner", "a\x00b"} {
		_, err := g.Child(g.Root(), name)
		assert.True(t, errors.Is(err, ErrRejected), "name %q should be rejected", name)
	}
}

func TestRelResolveDisplay(t *testing.T) {
	t.Parallel()
	g, root := newTestGuard(t)
	inner := Location(filepath.Join(root, "docs", "inner"))

	assert.Equal(t, ".", g.Rel(g.Root()))
	assert.Equal(t, "docs/inner", g.Rel(inner))
	assert.Equal(t, "/", g.Display(g.Root()))
	assert.Equal(t, "/docs/inner", g.Display(inner))

	loc, err := g.Resolve("docs/inner")
	require.NoError(t, err)
	assert.Equal(t, inner, loc)

	loc, err = g.Resolve("/docs/inner")
	require.NoError(t, err)
	assert.Equal(t, inner, loc)

	loc, err = g.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, g.Root(), loc)

	_, err = g.Resolve("../data2")
	assert.True(t, errors.Is(err, ErrRejected))
}

func TestParentAndAncestors(t *testing.T) {
	t.Parallel()
	g, root := newTestGuard(t)
	docs := Location(filepath.Join(root, "docs"))
	inner := Location(filepath.Join(root, "docs", "inner"))

	assert.Equal(t, docs, g.Parent(inner))
	assert.Equal(t, g.Root(), g.Parent(docs))
	assert.Equal(t, g.Root(), g.Parent(g.Root()))
	assert.True(t, g.IsRoot(g.Parent(g.Root())))

	assert.Equal(t, []Location{inner, docs, g.Root()}, g.Ancestors(inner))
	assert.Equal(t, []Location{g.Root()}, g.Ancestors(g.Root()))
}

package walk

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type visit struct {
	path string
	err  error
}

func collect(t *testing.T, opts Options, roots ...string) []visit {
	t.Helper()
	w, err := New(opts)
	require.NoError(t, err)

	var visits []visit
	err = w.Walk(roots, func(path string, err error) error {
		visits = append(visits, visit{path, err})
		return nil
	})
	require.NoError(t, err)
	return visits
}

func paths(t *testing.T, root string, visits []visit) []string {
	t.Helper()
	var out []string
	for _, v := range visits {
		require.NoError(t, v.err, v.path)
		rel, err := filepath.Rel(root, v.path)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

func TestWalkThreeLevels(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "lib.rs", "")
	writeFile(t, dir, "README.md", "")
	writeFile(t, dir, "a/mod.rs", "")
	writeFile(t, dir, "a/b/deep.rs", "")
	writeFile(t, dir, "a/b/notes.txt", "")
	writeFile(t, dir, "a/b/c/deeper.rs", "")
	writeFile(t, dir, "x/y/z/last.rs", "")

	got := paths(t, dir, collect(t, Options{}, dir))
	sorted := append([]string(nil), got...)
	sort.Strings(sorted)

	assert.Equal(t, []string{"a/b/c/deeper.rs", "a/b/deep.rs", "a/mod.rs", "lib.rs", "x/y/z/last.rs"}, sorted)
	assert.Len(t, got, 5, "each file exactly once")
}

func TestWalkBreadthFirstOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "z.rs", "")
	writeFile(t, dir, "a/inner.rs", "")
	writeFile(t, dir, "b.rs", "")

	got := paths(t, dir, collect(t, Options{}, dir))
	assert.Equal(t, []string{"b.rs", "z.rs", "a/inner.rs"}, got)
}

func TestWalkDeepTree(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rel := strings.Repeat("d/", 150) + "leaf.rs"
	writeFile(t, dir, rel, "")

	got := paths(t, dir, collect(t, Options{}, dir))
	assert.Equal(t, []string{rel}, got)
}

func TestWalkFileArguments(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "main.rs", "")
	writeFile(t, dir, "build.sh", "")

	visits := collect(t, Options{Exclude: []string{"*.rs"}},
		filepath.Join(dir, "main.rs"),
		filepath.Join(dir, "build.sh"),
	)
	require.Len(t, visits, 1, "non-matching file arguments are skipped; excludes do not apply")
	assert.Equal(t, filepath.Join(dir, "main.rs"), visits[0].path)
	assert.NoError(t, visits[0].err)
}

func TestWalkArgumentOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "one/a.rs", "")
	writeFile(t, dir, "two/b.rs", "")

	got := paths(t, dir, collect(t, Options{}, filepath.Join(dir, "two"), filepath.Join(dir, "one")))
	assert.Equal(t, []string{"two/b.rs", "one/a.rs"}, got)
}

func TestWalkMissingPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "ok.rs", "")
	missing := filepath.Join(dir, "missing")

	visits := collect(t, Options{}, missing, dir)
	require.Len(t, visits, 2)
	assert.Equal(t, missing, visits[0].path)
	assert.True(t, errors.Is(visits[0].err, os.ErrNotExist))
	assert.Equal(t, filepath.Join(dir, "ok.rs"), visits[1].path)
	assert.NoError(t, visits[1].err)
}

func TestWalkSymlinks(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "real.rs", "")
	writeFile(t, dir, "sub/inner.rs", "")

	if err := os.Symlink(filepath.Join(dir, "real.rs"), filepath.Join(dir, "link.rs")); err != nil {
		t.Skip("symlinks not supported")
	}
	require.NoError(t, os.Symlink(filepath.Join(dir, "sub"), filepath.Join(dir, "loop")))
	require.NoError(t, os.Symlink(filepath.Join(dir, "gone.rs"), filepath.Join(dir, "dangling.rs")))

	var logs bytes.Buffer
	logger := hclog.New(&hclog.LoggerOptions{Output: &logs, Level: hclog.Debug})

	got := paths(t, dir, collect(t, Options{Logger: logger}, dir))
	assert.Equal(t, []string{"link.rs", "real.rs", "sub/inner.rs"}, got, "file links are followed, directory links are not")
	assert.Contains(t, logs.String(), "skipping symlinked directory")
	assert.Contains(t, logs.String(), filepath.Join(dir, "loop"))
	assert.Contains(t, logs.String(), "skipping dangling symlink")
	assert.Contains(t, logs.String(), filepath.Join(dir, "dangling.rs"))
}

func TestWalkPartialReadDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a.rs", "")
	writeFile(t, dir, "b.rs", "")
	writeFile(t, dir, "c.rs", "")

	w, err := New(Options{})
	require.NoError(t, err)
	readErr := errors.New("i/o error")
	w.readDir = func(name string) ([]fs.DirEntry, error) {
		entries, err := os.ReadDir(name)
		if err != nil || name != dir {
			return entries, err
		}
		return entries[:2], readErr
	}

	var visits []visit
	require.NoError(t, w.Walk([]string{dir}, func(path string, err error) error {
		visits = append(visits, visit{path, err})
		return nil
	}))

	require.Len(t, visits, 3)
	assert.Equal(t, visit{filepath.Join(dir, "a.rs"), nil}, visits[0])
	assert.Equal(t, visit{filepath.Join(dir, "b.rs"), nil}, visits[1])
	assert.Equal(t, dir, visits[2].path, "the read error is reported after the entries")
	assert.ErrorIs(t, visits[2].err, readErr)
}

func TestWalkExclude(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "src/lib.rs", "")
	writeFile(t, dir, "src/gen/bindings.rs", "")
	writeFile(t, dir, "target/debug/build.rs", "")
	writeFile(t, dir, "tests/it_test.rs", "")

	got := paths(t, dir, collect(t, Options{Exclude: []string{"target", "src/gen/**", "*_test.rs"}}, dir))
	assert.Equal(t, []string{"src/lib.rs"}, got)
}

func TestWalkGitignore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, ".gitignore", "target/\nscratch.rs\n")
	writeFile(t, dir, "src/lib.rs", "")
	writeFile(t, dir, "scratch.rs", "")
	writeFile(t, dir, "target/out.rs", "")

	got := paths(t, dir, collect(t, Options{Gitignore: true}, dir))
	assert.Equal(t, []string{"src/lib.rs"}, got)

	all := paths(t, dir, collect(t, Options{}, dir))
	assert.Len(t, all, 3, "gitignore is opt-in")
}

func TestWalkStopsOnCallbackError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a.rs", "")
	writeFile(t, dir, "b.rs", "")

	w, err := New(Options{})
	require.NoError(t, err)

	stop := errors.New("stop")
	calls := 0
	err = w.Walk([]string{dir}, func(string, error) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestNewRejectsBadPattern(t *testing.T) {
	t.Parallel()

	_, err := New(Options{Exclude: []string{"src/[unclosed"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid exclude pattern")
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

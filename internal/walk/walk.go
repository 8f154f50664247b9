// Package walk enumerates source files under a list of file and directory
// paths. Directories are expanded with an explicit worklist, so tree depth
// never grows the call stack.
package walk

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	doublestar "github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/go-hclog"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/phobologic/unsafe-finder/internal/lang"
)

// Options controls which discovered files are reported. Only files whose
// extension belongs to a registered language are reported.
type Options struct {
	// Exclude holds doublestar patterns matched against the slash-separated
	// path relative to the directory argument, and against the base name.
	// Excludes only apply to directory expansion.
	Exclude []string
	// Gitignore honors the .gitignore file at the root of each directory
	// argument.
	Gitignore bool
	// Logger receives debug lines for entries that are skipped silently.
	// Defaults to a null logger.
	Logger hclog.Logger
}

// Func is called for every matching file in traversal order. A non-nil err
// reports a path that could not be classified or a directory that could not
// be read; the walk continues unless Func returns an error.
type Func func(path string, err error) error

// Walker enumerates files.
type Walker struct {
	opts    Options
	logger  hclog.Logger
	readDir func(string) ([]fs.DirEntry, error)
}

// New returns a Walker. It fails if an exclude pattern is malformed.
func New(opts Options) (*Walker, error) {
	for _, p := range opts.Exclude {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid exclude pattern %q", p)
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Walker{opts: opts, logger: logger, readDir: os.ReadDir}, nil
}

// Walk visits every root in order. A regular file root is reported if its
// extension matches; a directory root is expanded breadth-first.
func (w *Walker) Walk(roots []string, fn Func) error {
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			if err := fn(root, err); err != nil {
				return err
			}
			continue
		}

		switch {
		case info.Mode().IsRegular():
			if w.matchesExtension(root) {
				if err := fn(root, nil); err != nil {
					return err
				}
			}
		case info.IsDir():
			if err := w.walkDir(root, fn); err != nil {
				return err
			}
		default:
			if err := fn(root, fmt.Errorf("%s: not a regular file or directory", root)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *Walker) walkDir(root string, fn Func) error {
	var gi *ignore.GitIgnore
	if w.opts.Gitignore {
		gi = loadGitignore(root)
	}

	queue := []string{root}
	for len(queue) > 0 {
		dir := queue[0]
		queue = queue[1:]

		// A failed read may still return the entries read before the error.
		entries, readErr := w.readDir(dir)
		for _, e := range entries {
			path := filepath.Join(dir, e.Name())
			rel, err := filepath.Rel(root, path)
			if err != nil {
				rel = path
			}
			rel = filepath.ToSlash(rel)

			mode := e.Type()
			if mode&fs.ModeSymlink != 0 {
				info, err := os.Stat(path)
				if err != nil {
					w.logger.Debug("skipping dangling symlink", "path", path, "error", err)
					continue
				}
				if info.IsDir() {
					// Following it could visit a directory twice.
					w.logger.Debug("skipping symlinked directory", "path", path)
					continue
				}
				mode = info.Mode().Type()
			}

			switch {
			case mode.IsDir():
				if w.excluded(rel, gi, true) {
					continue
				}
				queue = append(queue, path)
			case mode.IsRegular():
				if !w.matchesExtension(path) || w.excluded(rel, gi, false) {
					continue
				}
				if err := fn(path, nil); err != nil {
					return err
				}
			default:
				w.logger.Debug("skipping special file", "path", path)
			}
		}
		if readErr != nil {
			if err := fn(dir, readErr); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *Walker) matchesExtension(path string) bool {
	return lang.ForExtension(filepath.Ext(path)) != ""
}

func (w *Walker) excluded(rel string, gi *ignore.GitIgnore, isDir bool) bool {
	base := filepath.Base(rel)
	for _, p := range w.opts.Exclude {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(p, base); ok {
			return true
		}
	}
	if gi != nil {
		if isDir {
			return gi.MatchesPath(rel + "/")
		}
		return gi.MatchesPath(rel)
	}
	return false
}

func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}

// Package analyze runs the per-file pass: read, parse, and classify every
// impl block and trait definition of a source file.
package analyze

import (
	"errors"
	"fmt"
	"os"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/unsafe-finder/internal/classify"
	"github.com/phobologic/unsafe-finder/internal/detect"
	"github.com/phobologic/unsafe-finder/internal/lang"
	"github.com/phobologic/unsafe-finder/internal/model"
	"github.com/phobologic/unsafe-finder/internal/syntax"
)

// ErrTooLarge is returned for files above the configured size limit.
var ErrTooLarge = errors.New("file exceeds size limit")

// Analyzer owns a tree-sitter parser and is not safe for concurrent use;
// create one per goroutine.
type Analyzer struct {
	parser      *sitter.Parser
	classifier  *classify.Classifier
	maxFileSize int64
}

// New returns an Analyzer for l. maxFileSize <= 0 disables the size check.
func New(l *lang.Language, maxFileSize int64) (*Analyzer, error) {
	d, err := detect.New(l)
	if err != nil {
		return nil, err
	}
	return &Analyzer{
		parser:      l.NewParser(),
		classifier:  classify.New(d),
		maxFileSize: maxFileSize,
	}, nil
}

// File reads and analyzes the file at path. The returned report always
// carries Path; on error it has no items.
func (a *Analyzer) File(path string) (*model.FileReport, error) {
	if a.maxFileSize > 0 {
		fi, err := os.Stat(path)
		if err != nil {
			return &model.FileReport{Path: path}, err
		}
		if fi.Size() > a.maxFileSize {
			return &model.FileReport{Path: path}, fmt.Errorf("%w (%d > %d bytes)", ErrTooLarge, fi.Size(), a.maxFileSize)
		}
	}

	// ReadFile opens and closes the handle before analysis starts.
	source, err := os.ReadFile(path)
	if err != nil {
		return &model.FileReport{Path: path}, err
	}
	return a.Source(path, source)
}

// Source analyzes source as if read from path.
func (a *Analyzer) Source(path string, source []byte) (*model.FileReport, error) {
	fr := &model.FileReport{Path: path}

	f, err := syntax.Parse(a.parser, source)
	if err != nil {
		return fr, err
	}
	defer f.Close()

	for i := range f.Items {
		if r := a.classifier.Item(&f.Items[i]); r != nil {
			fr.Items = append(fr.Items, *r)
		}
	}
	return fr, nil
}

// Package detect reports whether a function body opens an unsafe region.
package detect

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/unsafe-finder/internal/lang"
	"github.com/phobologic/unsafe-finder/internal/syntax"
)

// Detector matches unsafe blocks anywhere below a function body, including
// closures, conditionals, loops and nested blocks or items.
// A Detector is safe for concurrent use.
type Detector struct {
	query *sitter.Query
}

// New returns a Detector using the unsafe-region query of l.
func New(l *lang.Language) (*Detector, error) {
	q, err := l.GetUnsafeQuery()
	if err != nil {
		return nil, fmt.Errorf("loading %s unsafe query: %w", l.Name, err)
	}
	return &Detector{query: q}, nil
}

// ContainsUnsafe reports whether body contains at least one unsafe block.
// A nil body contains nothing. The search stops at the first match.
func (d *Detector) ContainsUnsafe(body *syntax.Block) bool {
	if body == nil {
		return false
	}
	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(d.query, body.Node())

	_, ok := qc.NextMatch()
	return ok
}

// Package classify flags the function members of impl blocks and trait
// definitions that declare or hide unsafe code.
package classify

import (
	"github.com/phobologic/unsafe-finder/internal/model"
	"github.com/phobologic/unsafe-finder/internal/syntax"
)

// UnsafeDetector reports whether a function body opens an unsafe region.
type UnsafeDetector interface {
	ContainsUnsafe(body *syntax.Block) bool
}

// Classifier turns items into item reports.
type Classifier struct {
	detector UnsafeDetector
}

// New returns a Classifier backed by d.
func New(d UnsafeDetector) *Classifier {
	return &Classifier{detector: d}
}

// Item classifies the members of item. It returns nil when the item is not
// an impl or trait, or when none of its members produce a finding.
func (c *Classifier) Item(item *syntax.Item) *model.ItemReport {
	var (
		kind     model.ItemKind
		findings []model.Finding
	)
	switch item.Kind {
	case syntax.ItemImpl:
		kind = model.Impl
		findings = c.implFindings(item.Members)
	case syntax.ItemTrait:
		kind = model.Trait
		findings = c.traitFindings(item.Members)
	case syntax.ItemOther:
		return nil
	}
	if len(findings) == 0 {
		return nil
	}
	return &model.ItemReport{
		Kind:     kind,
		Header:   item.Header,
		Line:     item.Line,
		Findings: findings,
	}
}

func (c *Classifier) implFindings(members []syntax.Member) []model.Finding {
	var findings []model.Finding
	for i := range members {
		m := &members[i]
		if m.Kind != syntax.MemberFunction {
			continue
		}
		switch {
		case m.Visibility == syntax.Public && m.Unsafe:
			findings = append(findings, finding(m, model.PublicUnsafe))
		case !m.Unsafe && c.detector.ContainsUnsafe(m.Body):
			findings = append(findings, finding(m, model.HiddenUnsafe))
		}
	}
	return findings
}

// traitFindings never reports PublicUnsafe: trait members have no
// visibility of their own.
func (c *Classifier) traitFindings(members []syntax.Member) []model.Finding {
	var findings []model.Finding
	for i := range members {
		m := &members[i]
		if m.Kind != syntax.MemberFunction || m.Unsafe || m.Body == nil {
			continue
		}
		if c.detector.ContainsUnsafe(m.Body) {
			findings = append(findings, finding(m, model.HiddenUnsafe))
		}
	}
	return findings
}

func finding(m *syntax.Member, cat model.Category) model.Finding {
	return model.Finding{Name: m.Name, Category: cat, Line: m.Line}
}

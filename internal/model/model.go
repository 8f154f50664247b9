// Package model defines core data structures for unsafe-finder.
package model

// Category is the reason a function member was flagged.
type Category string

const (
	// PublicUnsafe marks a public function of an impl block declared unsafe.
	PublicUnsafe Category = "pub unsafe fn"
	// HiddenUnsafe marks a function not declared unsafe whose body opens an
	// unsafe block.
	HiddenUnsafe Category = "unsafe-containing fn"
)

// RuleID returns a stable identifier for the category, used by machine
// readable reports.
func (c Category) RuleID() string {
	switch c {
	case PublicUnsafe:
		return "pub-unsafe-fn"
	case HiddenUnsafe:
		return "unsafe-containing-fn"
	}
	return string(c)
}

// ItemKind indicates which kind of top-level item produced a report.
type ItemKind string

const (
	Impl  ItemKind = "impl"
	Trait ItemKind = "trait"
)

// Finding is a single flagged function member.
type Finding struct {
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Line     int      `json:"line"`
}

// ItemReport holds the findings of one impl block or trait definition.
// Findings are in member declaration order.
type ItemReport struct {
	Kind     ItemKind  `json:"kind"`
	Header   string    `json:"header"`
	Line     int       `json:"line"`
	Findings []Finding `json:"findings"`
}

// FileReport is the section of the report produced for one source file.
// Skipped is set when the file could not be read or parsed.
type FileReport struct {
	Path    string       `json:"path"`
	Items   []ItemReport `json:"items"`
	Skipped string       `json:"skipped,omitempty"`
}

// FindingCount returns the number of findings across all items.
func (fr *FileReport) FindingCount() int {
	n := 0
	for i := range fr.Items {
		n += len(fr.Items[i].Findings)
	}
	return n
}

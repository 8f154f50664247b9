package lang

import (
	"github.com/smacker/go-tree-sitter/rust"
)

// Rust is the only language unsafe-finder analyzes.
const Rust = "rust"

func init() {
	Languages[Rust] = &Language{
		Name:       Rust,
		Extensions: []string{".rs"},
		lang:       rust.GetLanguage(),
	}
}

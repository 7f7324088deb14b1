// Package binder computes the set of names a Python module binds at top level.
//
// The result is an approximation: nested function and class bodies are
// opaque, conditional branches always count, comprehension variables leak,
// and `global` declarations inside functions are not tracked.
package binder

import (
	"astnames/internal/engine/parser"
	"sync"
)

// Version identifies the collection rules. Bump it when a change alters the
// names produced for some source, so persisted results are recomputed.
const Version = "1"

// Binder pairs a parser with collector options.
type Binder struct {
	parser *parser.Parser
	opts   []Option
}

func New(p *parser.Parser, opts ...Option) *Binder {
	return &Binder{parser: p, opts: opts}
}

// Names parses source and returns its top-level bound names. The only error
// is a parse failure (errors.CodeParseError).
func (b *Binder) Names(source []byte, opts ...Option) (NameSet, error) {
	tree, err := b.parser.Parse(source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	all := make([]Option, 0, len(b.opts)+len(opts))
	all = append(all, b.opts...)
	all = append(all, opts...)
	return NewCollector(all...).Collect(tree.Root(), tree.Source), nil
}

func (b *Binder) NamesString(source string, opts ...Option) (NameSet, error) {
	return b.Names([]byte(source), opts...)
}

var defaultBinder = sync.OnceValue(func() *Binder {
	return New(parser.NewPythonParser())
})

// Names runs the default Python binder over source.
func Names(source []byte) (NameSet, error) {
	return defaultBinder().Names(source)
}

func NamesString(source string) (NameSet, error) {
	return defaultBinder().NamesString(source)
}

package parser

import (
	"astnames/internal/core/errors"
	"fmt"
)

// Parser turns source text into a syntax tree for one grammar, rejecting
// input that tree-sitter could only recover from with ERROR or MISSING nodes
// and constructs the grammar keeps but Python 3 does not accept.
type Parser struct {
	spec LanguageSpec
	pool *ParserPool
}

func NewParser(loader *GrammarLoader, language string) (*Parser, error) {
	lang, spec, ok := loader.Language(language)
	if !ok {
		return nil, errors.New(errors.CodeNotSupported, fmt.Sprintf("grammar not loaded: %s", language))
	}
	return &Parser{spec: spec, pool: NewParserPool(lang)}, nil
}

// NewPythonParser builds a parser over the compiled-in Python grammar with
// the default file routing.
func NewPythonParser() *Parser {
	loader, err := NewGrammarLoader(DefaultPythonSpec())
	if err != nil {
		panic(err)
	}
	p, err := NewParser(loader, LanguagePython)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Parser) Spec() LanguageSpec {
	return p.spec
}

func (p *Parser) Leased() int {
	return p.pool.Leased()
}

// Parse returns the syntax tree for source. Callers must Close the tree.
// Invalid source yields a CodeParseError DomainError wrapping *SyntaxError.
func (p *Parser) Parse(source []byte) (*Tree, error) {
	sp := p.pool.Get()
	defer p.pool.Put(sp)

	tree := sp.Parse(source, nil)
	if tree == nil {
		return nil, errors.New(errors.CodeInternal, "parse failed")
	}

	root := tree.RootNode()
	if root.HasError() {
		synErr := locateSyntaxError(root, source)
		tree.Close()
		return nil, p.syntaxFailure(synErr)
	}
	if node, reason := firstRejectedNode(root); node != nil {
		synErr := rejectedSyntax(node, source, reason)
		tree.Close()
		return nil, p.syntaxFailure(synErr)
	}

	return &Tree{tree: tree, Source: source, Language: p.spec.Name}, nil
}

func (p *Parser) syntaxFailure(synErr *SyntaxError) error {
	de := &errors.DomainError{
		Code:    errors.CodeParseError,
		Message: fmt.Sprintf("invalid %s syntax", p.spec.Name),
		Err:     synErr,
	}
	return de.
		WithContext(errors.CtxLanguage, p.spec.Name).
		WithContext(errors.CtxLine, synErr.Line).
		WithContext(errors.CtxColumn, synErr.Column)
}

// ParseString is Parse for callers holding text rather than bytes.
func (p *Parser) ParseString(source string) (*Tree, error) {
	return p.Parse([]byte(source))
}

package parser

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

const LanguagePython = "python"

// LanguageSpec describes which files belong to a grammar.
type LanguageSpec struct {
	Name             string
	Extensions       []string
	TestFilePrefixes []string
	TestFileSuffixes []string
}

// DefaultPythonSpec is the file routing used when the config does not
// override extensions.
func DefaultPythonSpec() LanguageSpec {
	return LanguageSpec{
		Name:             LanguagePython,
		Extensions:       []string{".py", ".pyi"},
		TestFilePrefixes: []string{"test_"},
		TestFileSuffixes: []string{"_test.py"},
	}
}

// Matches reports whether path has one of the spec's extensions.
func (s LanguageSpec) Matches(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, candidate := range s.Extensions {
		if strings.ToLower(candidate) == ext {
			return true
		}
	}
	return false
}

// IsTestFile reports whether path follows the grammar's test file naming.
func (s LanguageSpec) IsTestFile(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	for _, prefix := range s.TestFilePrefixes {
		if strings.HasPrefix(base, strings.ToLower(prefix)) {
			return true
		}
	}
	for _, suffix := range s.TestFileSuffixes {
		if strings.HasSuffix(base, strings.ToLower(suffix)) {
			return true
		}
	}
	return false
}

// GrammarLoader owns the compiled-in grammars and their file routing.
type GrammarLoader struct {
	languages map[string]*sitter.Language
	registry  map[string]LanguageSpec
}

func NewGrammarLoader(specs ...LanguageSpec) (*GrammarLoader, error) {
	if len(specs) == 0 {
		specs = []LanguageSpec{DefaultPythonSpec()}
	}

	gl := &GrammarLoader{
		languages: make(map[string]*sitter.Language),
		registry:  make(map[string]LanguageSpec),
	}
	for _, spec := range specs {
		switch spec.Name {
		case LanguagePython:
			gl.languages[spec.Name] = sitter.NewLanguage(tree_sitter_python.Language())
		default:
			return nil, fmt.Errorf("language %q has no compiled-in grammar", spec.Name)
		}
		if len(spec.Extensions) == 0 {
			return nil, fmt.Errorf("language %q has no file extensions", spec.Name)
		}
		gl.registry[spec.Name] = spec
	}
	return gl, nil
}

func (gl *GrammarLoader) Language(name string) (*sitter.Language, LanguageSpec, bool) {
	lang, ok := gl.languages[name]
	if !ok {
		return nil, LanguageSpec{}, false
	}
	return lang, gl.registry[name], true
}

func (gl *GrammarLoader) SupportedExtensions() []string {
	set := make(map[string]bool)
	for _, spec := range gl.registry {
		for _, ext := range spec.Extensions {
			set[strings.ToLower(ext)] = true
		}
	}
	extensions := make([]string, 0, len(set))
	for ext := range set {
		extensions = append(extensions, ext)
	}
	sort.Strings(extensions)
	return extensions
}

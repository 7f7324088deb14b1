package parser

import (
	stderrors "errors"
	"sync"
	"testing"

	"astnames/internal/core/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValidSource(t *testing.T) {
	p := NewPythonParser()

	tree, err := p.ParseString("import os\nx = 1\n")
	require.NoError(t, err)
	defer tree.Close()

	root := tree.Root()
	assert.Equal(t, "module", root.Kind())
	assert.Equal(t, uint(2), root.NamedChildCount())
	assert.Equal(t, LanguagePython, tree.Language)
	assert.Equal(t, 0, p.Leased())
}

func TestParseEmptySource(t *testing.T) {
	tree, err := NewPythonParser().Parse(nil)
	require.NoError(t, err)
	defer tree.Close()

	assert.Equal(t, uint(0), tree.Root().NamedChildCount())
}

func TestParseInvalidSource(t *testing.T) {
	p := NewPythonParser()

	tree, err := p.ParseString("x = 1\ny = = 2\n")
	require.Error(t, err)
	assert.Nil(t, tree)
	assert.True(t, errors.IsCode(err, errors.CodeParseError))

	var synErr *SyntaxError
	require.True(t, stderrors.As(err, &synErr))
	assert.Equal(t, 2, synErr.Line)
	assert.Contains(t, err.Error(), "line 2:")
	assert.Equal(t, 0, p.Leased())
}

func TestParseUnclosedDefinition(t *testing.T) {
	_, err := NewPythonParser().ParseString("def foo(:\n    pass\n")
	require.Error(t, err)

	var synErr *SyntaxError
	require.True(t, stderrors.As(err, &synErr))
	assert.Equal(t, 1, synErr.Line)
}

func TestParseRejectsConstructsPython3Refuses(t *testing.T) {
	cases := []struct {
		name   string
		source string
		line   int
		reason string
	}{
		{"print statement", "print 'hi'\n", 1, "print statement requires parentheses"},
		{"exec statement", "x = 1\nexec 'x = 1'\n", 2, "exec statement requires parentheses"},
		{"del call", "del f()\n", 1, "cannot delete call"},
		{"del call inside tuple", "a = 1\ndel a, (b, g())\n", 2, "cannot delete call"},
		{"del literal", "del 1\n", 1, "cannot delete integer"},
	}
	p := NewPythonParser()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tree, err := p.ParseString(tc.source)
			require.Error(t, err)
			assert.Nil(t, tree)
			assert.True(t, errors.IsCode(err, errors.CodeParseError))

			var synErr *SyntaxError
			require.True(t, stderrors.As(err, &synErr))
			assert.Equal(t, SyntaxInvalid, synErr.Kind)
			assert.Equal(t, tc.line, synErr.Line)
			assert.Equal(t, tc.reason, synErr.Reason)
		})
	}
	assert.Equal(t, 0, p.Leased())
}

func TestParseAcceptsPython3Forms(t *testing.T) {
	p := NewPythonParser()
	for _, source := range []string{
		"print('hi')\n",
		"exec('x = 1')\n",
		"del a, b.c, d[0], (e), [f, g]\n",
		"def f():\n    del x\n",
	} {
		tree, err := p.ParseString(source)
		require.NoError(t, err, source)
		tree.Close()
	}
}

func TestCloseTwice(t *testing.T) {
	tree, err := NewPythonParser().ParseString("pass\n")
	require.NoError(t, err)
	tree.Close()
	tree.Close()
}

func TestParserConcurrentUse(t *testing.T) {
	p := NewPythonParser()

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tree, err := p.ParseString("for i in range(3):\n    print(i)\n")
			if err != nil {
				errs <- err
				return
			}
			tree.Close()
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatal(err)
	}
	assert.Equal(t, 0, p.Leased())
}

func TestLanguageSpecRouting(t *testing.T) {
	spec := DefaultPythonSpec()

	assert.True(t, spec.Matches("pkg/mod.py"))
	assert.True(t, spec.Matches("stubs/mod.PYI"))
	assert.False(t, spec.Matches("main.go"))

	assert.True(t, spec.IsTestFile("tests/test_names.py"))
	assert.True(t, spec.IsTestFile("names_test.py"))
	assert.False(t, spec.IsTestFile("contest.py"))
}

func TestGrammarLoaderRejectsUnknownLanguage(t *testing.T) {
	_, err := NewGrammarLoader(LanguageSpec{Name: "cobol", Extensions: []string{".cbl"}})
	require.Error(t, err)

	loader, err := NewGrammarLoader()
	require.NoError(t, err)
	assert.Equal(t, []string{".py", ".pyi"}, loader.SupportedExtensions())

	_, err = NewParser(loader, "rust")
	assert.True(t, errors.IsCode(err, errors.CodeNotSupported))
}

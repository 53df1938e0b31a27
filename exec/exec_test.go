// Copyright 2023 Sneller, Inc.
//
//  Licensed under the Apache License, Version 2.0 (the "License");
//  you may not use this file except in compliance with the License.
//  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.

package exec

import (
	"regexp/syntax"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/require"

	"github.com/relang/rex/ast"
	"github.com/relang/rex/charset"
	"github.com/relang/rex/config"
)

func parseAST(t *testing.T, pattern string) ast.Node {
	t.Helper()
	re, err := syntax.Parse(pattern, syntax.Perl)
	require.NoError(t, err)
	node, err := ast.FromSyntax(re)
	require.NoError(t, err)
	return node
}

func compileAndRun(t *testing.T, pattern string, tree ast.Node, flags ast.Flags, captureCount int, subject string, from int) (MatchResult, *MatchInfo) {
	t.Helper()
	e := NewEngine(config.Default())
	re, err := e.Compile(pattern, tree, flags, captureCount, nil)
	require.NoError(t, err)
	result, info, err := e.Exec(re, subject, from)
	require.NoError(t, err)
	return result, info
}

// TestMultilineCaret covers scenario B: ^foo$ anchored to each line under
// the multiline flag matches the first line, not a later one.
func TestMultilineCaret(t *testing.T) {
	tree := parseAST(t, "(?m)^foo$")
	flags := ast.Flags{Multiline: true}
	result, info := compileAndRun(t, "^foo$", tree, flags, 0, "foo\nbar", 0)
	require.Equal(t, Success, result)
	start, end := info.Capture(0)
	require.Equal(t, 0, start)
	require.Equal(t, 3, end)
}

// TestWordBoundaryGlobalIteration covers scenario C: \bword\b walked to
// exhaustion with GlobalCache finds every non-overlapping occurrence.
func TestWordBoundaryGlobalIteration(t *testing.T) {
	tree := parseAST(t, `\bword\b`)
	e := NewEngine(config.Default())
	re, err := e.Compile(`\bword\b`, tree, ast.Flags{Global: true}, 0, nil)
	require.NoError(t, err)

	subject := "word!word"
	g := NewGlobalCache(e, re, subject)

	var starts []int
	for {
		info, ok := g.Next()
		if !ok {
			break
		}
		start, _ := info.Capture(0)
		starts = append(starts, start)
	}
	require.Equal(t, []int{0, 5}, starts)
}

// TestPositiveLookaheadDoesNotConsume covers scenario D: (?=ab)a matches
// only the "a", leaving the lookahead's "b" unconsumed.
func TestPositiveLookaheadDoesNotConsume(t *testing.T) {
	tree := ast.Sequence{Elements: []ast.Node{
		ast.Lookaround{Positive: true, Backward: false, Body: ast.Atom{Chars: []uint16{'a', 'b'}}},
		ast.Atom{Chars: []uint16{'a'}},
	}}
	result, info := compileAndRun(t, "(?=ab)a", tree, ast.Flags{}, 0, "ab", 0)
	require.Equal(t, Success, result)
	start, end := info.Capture(0)
	require.Equal(t, 0, start)
	require.Equal(t, 1, end)
}

// TestNegativeLookaheadAllows covers scenario E: (?!xx)x matches at a
// position where the forbidden lookahead body does not hold.
func TestNegativeLookaheadAllows(t *testing.T) {
	tree := ast.Sequence{Elements: []ast.Node{
		ast.Lookaround{Positive: false, Backward: false, Body: ast.Atom{Chars: []uint16{'x', 'x'}}},
		ast.Atom{Chars: []uint16{'x'}},
	}}
	result, info := compileAndRun(t, "(?!xx)x", tree, ast.Flags{}, 0, "xy", 0)
	require.Equal(t, Success, result)
	start, end := info.Capture(0)
	require.Equal(t, 0, start)
	require.Equal(t, 1, end)
}

// TestNegativeLookaheadRejects confirms the same pattern fails at a
// position where the forbidden lookahead body does hold, and that
// unanchored search finds no later position where "x" isn't followed by
// another "x" before the subject runs out.
func TestNegativeLookaheadRejects(t *testing.T) {
	tree := ast.Sequence{Elements: []ast.Node{
		ast.Lookaround{Positive: false, Backward: false, Body: ast.Atom{Chars: []uint16{'x', 'x'}}},
		ast.Atom{Chars: []uint16{'x'}},
	}}
	result, _ := compileAndRun(t, "(?!xx)x", tree, ast.Flags{Sticky: true}, 0, "xx", 0)
	require.Equal(t, Failure, result)
}

// TestGlobalEmptyMatchAdvances covers scenario F: a* against a subject
// with no 'a's at all still advances one position per empty match rather
// than looping forever.
func TestGlobalEmptyMatchAdvances(t *testing.T) {
	tree := ast.Quantifier{Min: 0, Max: -1, Greedy: true, Body: ast.Atom{Chars: []uint16{'a'}}}
	e := NewEngine(config.Default())
	re, err := e.Compile("a*", tree, ast.Flags{Global: true}, 0, nil)
	require.NoError(t, err)

	g := NewGlobalCache(e, re, "bbb")
	var starts []int
	for {
		info, ok := g.Next()
		if !ok {
			break
		}
		start, _ := info.Capture(0)
		starts = append(starts, start)
		require.Less(t, len(starts), 10, "global iteration did not terminate")
	}
	require.Equal(t, []int{0, 1, 2, 3}, starts) // empty match at every position, including end-of-string
}

// TestUnicodeSurrogatePairNeverSplits covers scenario G: a literal
// spanning a full astral code point never leaves a GlobalCache iterator
// resuming inside the surrogate pair.
func TestUnicodeSurrogatePairNeverSplits(t *testing.T) {
	units := utf16.Encode([]rune{0x1F600})
	require.Len(t, units, 2)

	tree := ast.Atom{Chars: units}
	e := NewEngine(config.Default())
	re, err := e.Compile("\U0001F600", tree, ast.Flags{Unicode: true, Global: true}, 0, nil)
	require.NoError(t, err)

	subject := string(rune(0x1F600))
	g := NewGlobalCache(e, re, subject)

	info, ok := g.Next()
	require.True(t, ok)
	start, end := info.Capture(0)
	require.Equal(t, 0, start)
	require.Equal(t, 2, end)

	_, ok = g.Next()
	require.False(t, ok, "iteration must not resume inside the surrogate pair")
}

// TestAtomStrategySelection covers scenario H: a plain literal pattern is
// compiled to the atom strategy and still reports correct offsets.
func TestAtomStrategySelection(t *testing.T) {
	tree := ast.Atom{Chars: []uint16{'a', 'b', 'c'}}
	e := NewEngine(config.Default())
	re, err := e.Compile("abc", tree, ast.Flags{}, 0, nil)
	require.NoError(t, err)
	require.Equal(t, StrategyAtom, re.Strategy)

	result, info, err := e.Exec(re, "xxabcyy", 0)
	require.NoError(t, err)
	require.Equal(t, Success, result)
	start, end := info.Capture(0)
	require.Equal(t, 2, start)
	require.Equal(t, 5, end)
}

// TestAtomStrategyRejectsWideAlphabet confirms a literal with more
// distinct code units than maxAtomAlphabet falls back to the irregexp
// strategy instead.
func TestAtomStrategyRejectsWideAlphabet(t *testing.T) {
	tree := ast.Atom{Chars: []uint16{'a', 'b', 'c', 'd', 'e'}}
	e := NewEngine(config.Default())
	re, err := e.Compile("abcde", tree, ast.Flags{}, 0, nil)
	require.NoError(t, err)
	require.Equal(t, StrategyIrregexp, re.Strategy)
}

// TestCharClassMatch exercises the irregexp path against a character
// class built directly from charset, independent of regexp/syntax.
func TestCharClassMatch(t *testing.T) {
	tree := ast.CharClass{Ranges: charset.Canonicalize([]charset.Range{{From: 'a', To: 'c'}}, charset.MaxCodePoint)}
	result, info := compileAndRun(t, "[a-c]", tree, ast.Flags{}, 0, "xbz", 0)
	require.Equal(t, Success, result)
	start, end := info.Capture(0)
	require.Equal(t, 1, start)
	require.Equal(t, 2, end)
}

// TestExecFailureNotException confirms a plain non-match reports Failure,
// not Exception, and leaves info nil.
func TestExecFailureNotException(t *testing.T) {
	tree := ast.Atom{Chars: []uint16{'z'}}
	result, info := compileAndRun(t, "z", tree, ast.Flags{}, 0, "abc", 0)
	require.Equal(t, Failure, result)
	require.Nil(t, info)
}

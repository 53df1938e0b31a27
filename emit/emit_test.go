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

package emit

import (
	"testing"

	"github.com/relang/rex/analysis"
	"github.com/relang/rex/asm"
	"github.com/relang/rex/asm/bytecode"
	"github.com/relang/rex/charset"
	"github.com/relang/rex/graph"
	"github.com/relang/rex/interp"
)

// assemble analyzes root, emits it, and returns the runnable program.
// Graphs are built by hand here so the emitter is exercised without the
// lowering in package compiler.
func assemble(t *testing.T, root graph.Node, mode asm.Mode) *bytecode.Program {
	t.Helper()
	if err := analysis.Analyze(root); err != nil {
		t.Fatal(err)
	}
	a := bytecode.New(mode)
	backtrack := a.NewLabel()
	e := New(a, mode, false)
	if err := e.Run(root, backtrack, 10000); err != nil {
		t.Fatal(err)
	}
	a.Bind(backtrack)
	a.Backtrack()
	code, err := a.GetCode("test")
	if err != nil {
		t.Fatal(err)
	}
	return code.(*bytecode.Program)
}

func runAt(t *testing.T, p *bytecode.Program, subject string, cp int) ([]int, bool) {
	t.Helper()
	regs := make([]int, p.MaxRegister)
	for i := range regs {
		regs[i] = -1
	}
	ok, err := interp.Run(p, interp.Subject{OneByte: []byte(subject)}, cp, regs)
	if err != nil {
		t.Fatal(err)
	}
	return regs, ok
}

func text(onSuccess graph.Node, chars ...uint16) *graph.TextNode {
	return &graph.TextNode{
		Elements:  []graph.TextElement{{Atom: chars}},
		OnSuccess: onSuccess,
	}
}

func TestEmitTextMatchesAndRejects(t *testing.T) {
	root := text(&graph.EndNode{Kind: graph.Accept}, 'a', 'b')
	p := assemble(t, root, asm.OneByte)

	if _, ok := runAt(t, p, "ab", 0); !ok {
		t.Fatal("expected match")
	}
	if _, ok := runAt(t, p, "xb", 0); ok {
		t.Fatal("expected mismatch on first unit")
	}
	if _, ok := runAt(t, p, "ax", 0); ok {
		t.Fatal("expected mismatch on second unit")
	}
	if _, ok := runAt(t, p, "a", 0); ok {
		t.Fatal("expected bounds failure")
	}
}

func TestEmitChoiceTriesAlternativesInOrder(t *testing.T) {
	accept1 := &graph.EndNode{Kind: graph.Accept}
	accept2 := &graph.EndNode{Kind: graph.Accept}
	cn := &graph.ChoiceNode{Alternatives: []graph.GuardedAlternative{
		{Node: text(accept1, 'a', 'x')},
		{Node: text(accept2, 'a', 'b')},
	}}
	p := assemble(t, cn, asm.OneByte)

	if _, ok := runAt(t, p, "ab", 0); !ok {
		t.Fatal("second alternative should match after the first fails")
	}
	if _, ok := runAt(t, p, "ay", 0); ok {
		t.Fatal("neither alternative matches")
	}
}

func TestEmitGreedyLoopBacktracksToShorterRuns(t *testing.T) {
	// a*b as a raw loop graph: greedy text body, then 'b'.
	lc := &graph.LoopChoiceNode{}
	body := text(lc, 'a')
	cont := text(&graph.EndNode{Kind: graph.Accept}, 'b')
	lc.LoopNode = body
	lc.ContinueNode = cont
	lc.Alternatives = []graph.GuardedAlternative{{Node: body}, {Node: cont}}
	p := assemble(t, lc, asm.OneByte)

	if _, ok := runAt(t, p, "aaab", 0); !ok {
		t.Fatal("maximal run then 'b' should match")
	}
	if _, ok := runAt(t, p, "b", 0); !ok {
		t.Fatal("zero iterations then 'b' should match")
	}
	if _, ok := runAt(t, p, "aaa", 0); ok {
		t.Fatal("no 'b' anywhere: the loop must give back every run and fail")
	}
}

func TestEmitGreedyLoopPrefixStopsAtContinuation(t *testing.T) {
	// a*ab: requires the loop to give back exactly one 'a'.
	lc := &graph.LoopChoiceNode{}
	body := text(lc, 'a')
	cont := text(&graph.EndNode{Kind: graph.Accept}, 'a', 'b')
	lc.LoopNode = body
	lc.ContinueNode = cont
	lc.Alternatives = []graph.GuardedAlternative{{Node: body}, {Node: cont}}
	p := assemble(t, lc, asm.OneByte)

	if _, ok := runAt(t, p, "aaab", 0); !ok {
		t.Fatal("loop must retry shorter runs until the continuation fits")
	}
}

func TestEmitNegativeLookaround(t *testing.T) {
	const stackReg, posReg = 2, 3
	negEnd := &graph.EndNode{Kind: graph.NegativeSubmatchSuccess, StackRegister: stackReg, PositionRegister: posReg}
	begin := &graph.ActionNode{
		Kind:             graph.BeginSubmatch,
		StackRegister:    stackReg,
		PositionRegister: posReg,
		OnSuccess:        text(negEnd, 'a', 'b'),
	}
	cont := text(&graph.EndNode{Kind: graph.Accept}, 'a')
	nlc := &graph.NegativeLookaroundChoiceNode{Lookahead: begin, Continuation: cont}
	nlc.Alternatives = []graph.GuardedAlternative{{Node: begin}, {Node: cont}}
	p := assemble(t, nlc, asm.OneByte)

	if _, ok := runAt(t, p, "ax", 0); !ok {
		t.Fatal("(?!ab)a should match when the forbidden body fails")
	}
	if _, ok := runAt(t, p, "ab", 0); ok {
		t.Fatal("(?!ab)a must fail when the forbidden body matches")
	}
}

func TestEmitWordBoundary(t *testing.T) {
	boundary := &graph.AssertionNode{
		Kind:      graph.AtBoundary,
		OnSuccess: text(&graph.EndNode{Kind: graph.Accept}, 'a'),
	}
	p := assemble(t, boundary, asm.OneByte)

	if _, ok := runAt(t, p, "a", 0); !ok {
		t.Fatal("start-of-subject to word char is a boundary")
	}
	if _, ok := runAt(t, p, "za", 1); ok {
		t.Fatal("word to word is not a boundary")
	}
	if _, ok := runAt(t, p, " a", 1); !ok {
		t.Fatal("space to word char is a boundary")
	}
}

// TestEmitWordBoundaryUnconstrainedSuccessor pins the prev-first side of
// the boundary decision rule: with nothing constraining the next
// character (the assertion feeds straight into accept), the previous
// side tests first, and the outcomes still match \b semantics.
func TestEmitWordBoundaryUnconstrainedSuccessor(t *testing.T) {
	boundary := &graph.AssertionNode{
		Kind:      graph.AtBoundary,
		OnSuccess: &graph.EndNode{Kind: graph.Accept},
	}
	p := assemble(t, boundary, asm.OneByte)

	if _, ok := runAt(t, p, "a", 1); !ok {
		t.Fatal("word char to end-of-subject is a boundary")
	}
	if _, ok := runAt(t, p, "ab", 1); ok {
		t.Fatal("word to word is not a boundary")
	}
	if _, ok := runAt(t, p, "  ", 1); ok {
		t.Fatal("space to space is not a boundary")
	}
}

// TestEmitAnchoredLoopBodyPrunedPastStart drives the not-at-start quick
// check: a loop that only ever runs after consuming a character has a
// start-anchored body pruned outright, leaving the continuation's
// behavior intact.
func TestEmitAnchoredLoopBodyPrunedPastStart(t *testing.T) {
	lc := &graph.LoopChoiceNode{NotAtStart: true}
	anchoredBody := &graph.AssertionNode{Kind: graph.AtStart, OnSuccess: text(lc, 'b')}
	cont := text(&graph.EndNode{Kind: graph.Accept}, 'c')
	lc.LoopNode = anchoredBody
	lc.ContinueNode = cont
	lc.Alternatives = []graph.GuardedAlternative{{Node: anchoredBody}, {Node: cont}}
	entry := text(lc, 'a')
	p := assemble(t, entry, asm.OneByte)

	if _, ok := runAt(t, p, "ac", 0); !ok {
		t.Fatal("zero loop iterations then the continuation should match")
	}
	if _, ok := runAt(t, p, "abc", 0); ok {
		t.Fatal("the anchored body can never hold past the start")
	}
	// The pruning is structural, not just behavioral: the dead body's text
	// check must never have been emitted at all.
	for _, in := range p.Insns {
		if in.Op == bytecode.OpCheckNotCharacter && in.Value == 'b' {
			t.Fatal("anchored loop body survived into the program")
		}
	}
}

func TestEmitAfterNewlineCountsStartOfInput(t *testing.T) {
	after := &graph.AssertionNode{
		Kind:      graph.AfterNewline,
		OnSuccess: text(&graph.EndNode{Kind: graph.Accept}, 'a'),
	}
	p := assemble(t, after, asm.OneByte)

	if _, ok := runAt(t, p, "a", 0); !ok {
		t.Fatal("start of input counts as after-newline")
	}
	if _, ok := runAt(t, p, "\na", 1); !ok {
		t.Fatal("position after \\n is after-newline")
	}
	if _, ok := runAt(t, p, "xa", 1); ok {
		t.Fatal("mid-word position is not after-newline")
	}
}

func TestEmitDeferredStoreLandsOnlyOnSuccess(t *testing.T) {
	const reg = 4
	store := &graph.ActionNode{
		Kind:      graph.StorePosition,
		Register:  reg,
		OnSuccess: text(&graph.EndNode{Kind: graph.Accept}, 'a'),
	}
	p := assemble(t, store, asm.OneByte)

	regs, ok := runAt(t, p, "a", 0)
	if !ok {
		t.Fatal("expected match")
	}
	if regs[reg] != 0 {
		t.Fatalf("register %d = %d, want the stored position 0", reg, regs[reg])
	}

	regs, ok = runAt(t, p, "b", 0)
	if ok {
		t.Fatal("expected mismatch")
	}
	if regs[reg] != -1 {
		t.Fatalf("register %d = %d on failure, deferred store must not leak", reg, regs[reg])
	}
}

// TestEmitScanSkipSoundness drives the .*?-style scan (an everything
// class as the lazy loop body): positions the Boyer-Moore skip loop
// jumps over must be exactly those where the continuation "abc" cannot
// start, so the observable results match a plain scan's.
func TestEmitScanSkipSoundness(t *testing.T) {
	lc := &graph.LoopChoiceNode{}
	dot := &graph.TextNode{
		Elements: []graph.TextElement{{Class: &graph.ClassElement{
			Ranges: charset.List{{From: 0, To: charset.MaxCodePoint}},
		}}},
		OnSuccess: lc,
	}
	cont := text(&graph.EndNode{Kind: graph.Accept}, 'a', 'b', 'c')
	lc.LoopNode = dot
	lc.ContinueNode = cont
	// Lazy: continuation first, so the leftmost match wins.
	lc.Alternatives = []graph.GuardedAlternative{{Node: cont}, {Node: dot}}
	p := assemble(t, lc, asm.OneByte)

	cases := []struct {
		subject string
		want    bool
	}{
		{"abc", true},
		{"xxabcyy", true},
		{"xxxxxxxxxxabc", true},
		{"xxxxxxxxxxxxx", false},
		{"ababab", false},
		{"", false},
		{"ab", false},
	}
	for _, c := range cases {
		if _, ok := runAt(t, p, c.subject, 0); ok != c.want {
			t.Fatalf("scan %q = %v, want %v", c.subject, ok, c.want)
		}
	}
}

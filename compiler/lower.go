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

package compiler

import (
	"fmt"

	"github.com/relang/rex/ast"
	"github.com/relang/rex/charset"
	"github.com/relang/rex/graph"
)

// lowerer turns an AST into a node graph in continuation-passing style:
// Lower(n, onSuccess) returns the node to enter in order to match n and
// then continue at onSuccess, exactly the way each AST node's ToNode
// method works in the teacher's model.
type lowerer struct {
	flags ast.Flags
	regs  *Registers

	// notAtStart is true while lowering a position that at least one code
	// unit has always been consumed before — set per sequence element from
	// the prefix's minimum length. A LoopChoiceNode built here inherits it,
	// which is what lets the quick check prove a start anchor inside the
	// loop can never hold.
	notAtStart bool
}

func newLowerer(flags ast.Flags, regs *Registers) *lowerer {
	return &lowerer{flags: flags, regs: regs}
}

func (lw *lowerer) Lower(n ast.Node, onSuccess graph.Node) (graph.Node, error) {
	switch v := n.(type) {
	case ast.Sequence:
		return lw.lowerSequence(v.Elements, onSuccess)

	case ast.Atom:
		return lw.lowerText([]ast.Node{v}, onSuccess)

	case ast.CharClass:
		return lw.lowerText([]ast.Node{v}, onSuccess)

	case ast.Text:
		elems := make([]ast.Node, 0, len(v.Elements))
		for _, e := range v.Elements {
			if e.Atom != nil {
				elems = append(elems, *e.Atom)
			} else {
				elems = append(elems, *e.CharClass)
			}
		}
		return lw.lowerText(elems, onSuccess)

	case ast.Assertion:
		return lw.lowerAssertion(v, onSuccess)

	case ast.Capture:
		return lw.lowerCapture(v, onSuccess)

	case ast.Alternation:
		return lw.lowerAlternation(v, onSuccess)

	case ast.Quantifier:
		return lw.lowerQuantifier(v, onSuccess)

	case ast.BackReference:
		start, end := CaptureRegisters(v.Index)
		return &graph.BackReferenceNode{
			StartRegister: start,
			EndRegister:   end,
			Flags:         graph.BackReferenceFlags{IgnoreCase: lw.flags.IgnoreCase, Unicode: lw.flags.Unicode},
			OnSuccess:     onSuccess,
		}, nil

	case ast.Lookaround:
		return lw.lowerLookaround(v, onSuccess)

	default:
		return nil, fmt.Errorf("compiler: unsupported ast node %T", n)
	}
}

// lowerSequence builds the chain right-to-left so each element's
// continuation is already built. Runs of Atom/CharClass are fused into
// a single TextNode, mirroring the
// teacher's NFA builder merging adjacent literal edges (regexp2's
// refactorEdges does the analogous fusion one level down, on edges rather
// than AST nodes).
func (lw *lowerer) lowerSequence(elements []ast.Node, onSuccess graph.Node) (graph.Node, error) {
	base := lw.notAtStart
	defer func() { lw.notAtStart = base }()

	// prefixMin[i] is the fewest code units elements[0:i] can consume; any
	// element with a non-empty mandatory prefix is never at subject start.
	prefixMin := make([]int, len(elements)+1)
	for i, el := range elements {
		prefixMin[i+1] = prefixMin[i] + astMinLength(el)
	}

	i := len(elements)
	cur := onSuccess
	for i > 0 {
		j := i
		for j > 0 && isTextual(elements[j-1]) {
			j--
		}
		if j < i {
			lw.notAtStart = base || prefixMin[j] > 0
			node, err := lw.lowerText(elements[j:i], cur)
			if err != nil {
				return nil, err
			}
			cur = node
			i = j
			continue
		}
		lw.notAtStart = base || prefixMin[i-1] > 0
		node, err := lw.Lower(elements[i-1], cur)
		if err != nil {
			return nil, err
		}
		cur = node
		i--
	}
	return cur, nil
}

func isTextual(n ast.Node) bool {
	switch n.(type) {
	case ast.Atom, ast.CharClass:
		return true
	default:
		return false
	}
}

func (lw *lowerer) lowerText(elements []ast.Node, onSuccess graph.Node) (graph.Node, error) {
	out := make([]graph.TextElement, 0, len(elements))
	for _, e := range elements {
		switch v := e.(type) {
		case ast.Atom:
			out = append(out, graph.TextElement{Atom: append([]uint16(nil), v.Chars...), IgnoreCase: lw.flags.IgnoreCase})
		case ast.CharClass:
			// DotAll is folded into the class's ranges by ast.FromSyntax
			// (OpAnyChar vs. OpAnyCharNotNL) before lowering ever sees it.
			out = append(out, graph.TextElement{Class: &graph.ClassElement{Ranges: v.Ranges, Negated: v.Negated}})
		default:
			return nil, fmt.Errorf("compiler: lowerText got non-textual %T", e)
		}
	}
	return &graph.TextNode{Elements: out, OnSuccess: onSuccess}, nil
}

func (lw *lowerer) lowerCapture(c ast.Capture, onSuccess graph.Node) (graph.Node, error) {
	start, end := CaptureRegisters(c.Index)
	storeEnd := &graph.ActionNode{
		Kind:      graph.StorePosition,
		Register:  end,
		IsCapture: true,
		OnSuccess: onSuccess,
	}
	body, err := lw.Lower(c.Body, storeEnd)
	if err != nil {
		return nil, err
	}
	storeStart := &graph.ActionNode{
		Kind:      graph.StorePosition,
		Register:  start,
		IsCapture: true,
		OnSuccess: body,
	}
	return storeStart, nil
}

func (lw *lowerer) lowerAlternation(a ast.Alternation, onSuccess graph.Node) (graph.Node, error) {
	alts := make([]graph.GuardedAlternative, 0, len(a.Alternatives))
	for _, alt := range a.Alternatives {
		n, err := lw.Lower(alt, onSuccess)
		if err != nil {
			return nil, err
		}
		alts = append(alts, graph.GuardedAlternative{Node: n})
	}
	return &graph.ChoiceNode{Alternatives: alts}, nil
}

// lowerAssertion maps a zero-width assertion to its node, splitting on
// the multiline flag: a multiline `^` becomes AFTER_NEWLINE (the emitter
// treats start-of-input as after-a-newline), and a multiline `$` becomes
// a choice between end-of-input and a positive lookahead for a line
// terminator, so it consumes nothing either way.
func (lw *lowerer) lowerAssertion(a ast.Assertion, onSuccess graph.Node) (graph.Node, error) {
	switch a.Kind {
	case ast.AtStart:
		if lw.flags.Multiline {
			return &graph.AssertionNode{Kind: graph.AfterNewline, OnSuccess: onSuccess}, nil
		}
		return &graph.AssertionNode{Kind: graph.AtStart, OnSuccess: onSuccess}, nil

	case ast.AtEnd:
		atEnd := &graph.AssertionNode{Kind: graph.AtEnd, OnSuccess: onSuccess}
		if !lw.flags.Multiline {
			return atEnd, nil
		}
		newline := ast.CharClass{Ranges: charset.Canonicalize([]charset.Range{
			{From: '\n', To: '\n'},
			{From: '\r', To: '\r'},
			{From: 0x2028, To: 0x2029},
		}, charset.MaxCodePoint)}
		lookahead, err := lw.lowerLookaround(ast.Lookaround{Positive: true, Body: newline}, onSuccess)
		if err != nil {
			return nil, err
		}
		return &graph.ChoiceNode{Alternatives: []graph.GuardedAlternative{
			{Node: atEnd},
			{Node: lookahead},
		}}, nil

	case ast.AtBoundary:
		return &graph.AssertionNode{Kind: graph.AtBoundary, OnSuccess: onSuccess}, nil

	default:
		return &graph.AssertionNode{Kind: graph.AtNonBoundary, OnSuccess: onSuccess}, nil
	}
}

// lowerQuantifier builds a LoopChoiceNode. A counter register (via
// SET_REGISTER/INCREMENT_REGISTER and Guards) enforces the min/max
// bounds; the EMPTY_MATCH_CHECK wrapping is only added when the body can
// actually match empty, storing the iteration's entry position right at
// the body's head so a zero-progress repetition is caught per iteration,
// not against the loop entry.
func (lw *lowerer) lowerQuantifier(q ast.Quantifier, onSuccess graph.Node) (graph.Node, error) {
	needsCounter := q.Min > 0 || q.Max >= 0
	bodyCanBeEmpty := astMinLength(q.Body) == 0

	counterReg := -1
	if needsCounter {
		r, err := lw.regs.Allocate(1)
		if err != nil {
			return nil, err
		}
		counterReg = r
	}

	loopChoice := &graph.LoopChoiceNode{
		BodyCanBeZeroLength: bodyCanBeEmpty,
		NotAtStart:          lw.notAtStart,
	}
	loopChoice.ContinueNode = onSuccess

	bodyContinuation := graph.Node(loopChoice)
	if needsCounter {
		bodyContinuation = &graph.ActionNode{
			Kind:      graph.IncrementRegister,
			Register:  counterReg,
			Value:     1,
			OnSuccess: loopChoice,
		}
	}

	startReg := -1
	if bodyCanBeEmpty {
		r, err := lw.regs.Allocate(1)
		if err != nil {
			return nil, err
		}
		startReg = r
		bodyContinuation = &graph.ActionNode{
			Kind:               graph.EmptyMatchCheck,
			StartRegister:      startReg,
			RepetitionRegister: counterReg,
			Limit:              q.Min,
			OnSuccess:          bodyContinuation,
		}
	}

	body, err := lw.Lower(q.Body, bodyContinuation)
	if err != nil {
		return nil, err
	}
	if bodyCanBeEmpty {
		body = &graph.ActionNode{Kind: graph.StorePosition, Register: startReg, OnSuccess: body}
	}
	loopChoice.LoopNode = body

	var loopGuards, contGuards []graph.Guard
	if needsCounter && q.Max >= 0 {
		loopGuards = append(loopGuards, graph.Guard{Register: counterReg, Kind: graph.GuardLT, Bound: q.Max})
	}
	if needsCounter && q.Min > 0 {
		contGuards = append(contGuards, graph.Guard{Register: counterReg, Kind: graph.GuardGE, Bound: q.Min})
	}

	loopAlt := graph.GuardedAlternative{Guards: loopGuards, Node: loopChoice.LoopNode}
	contAlt := graph.GuardedAlternative{Guards: contGuards, Node: loopChoice.ContinueNode}
	if q.Greedy {
		loopChoice.Alternatives = []graph.GuardedAlternative{loopAlt, contAlt}
	} else {
		loopChoice.Alternatives = []graph.GuardedAlternative{contAlt, loopAlt}
	}

	if needsCounter {
		return &graph.ActionNode{Kind: graph.SetRegister, Register: counterReg, Value: 0, OnSuccess: loopChoice}, nil
	}
	return loopChoice, nil
}

// astMinLength is the fewest code units n can consume, used to decide
// whether a quantifier body needs the empty-match protection.
func astMinLength(n ast.Node) int {
	switch v := n.(type) {
	case ast.Atom:
		return len(v.Chars)
	case ast.CharClass:
		return 1
	case ast.Capture:
		return astMinLength(v.Body)
	case ast.Sequence:
		sum := 0
		for _, el := range v.Elements {
			sum += astMinLength(el)
		}
		return sum
	case ast.Alternation:
		if len(v.Alternatives) == 0 {
			return 0
		}
		min := astMinLength(v.Alternatives[0])
		for _, alt := range v.Alternatives[1:] {
			if m := astMinLength(alt); m < min {
				min = m
			}
		}
		return min
	case ast.Quantifier:
		if v.Min == 0 {
			return 0
		}
		return v.Min * astMinLength(v.Body)
	case ast.Text:
		sum := 0
		for _, el := range v.Elements {
			if el.Atom != nil {
				sum += len(el.Atom.Chars)
			} else {
				sum++
			}
		}
		return sum
	default:
		// Assertions, lookarounds and back-references may consume nothing.
		return 0
	}
}

func (lw *lowerer) lowerLookaround(l ast.Lookaround, onSuccess graph.Node) (graph.Node, error) {
	// A lookbehind body is evaluated at positions before the current one,
	// so preceding consumption says nothing about where its own anchors
	// land; drop the context for the body rather than over-prune.
	base := lw.notAtStart
	if l.Backward {
		lw.notAtStart = false
	}
	defer func() { lw.notAtStart = base }()

	stackReg, err := lw.regs.Allocate(1)
	if err != nil {
		return nil, err
	}
	posReg, err := lw.regs.Allocate(1)
	if err != nil {
		return nil, err
	}

	if l.Positive {
		success := &graph.ActionNode{
			Kind:            graph.PositiveSubmatchSuccess,
			StackRegister:   stackReg,
			PositionRegister: posReg,
			OnSuccess:       onSuccess,
		}
		body, err := lw.Lower(l.Body, success)
		if err != nil {
			return nil, err
		}
		begin := &graph.ActionNode{
			Kind:            graph.BeginSubmatch,
			StackRegister:   stackReg,
			PositionRegister: posReg,
			OnSuccess:       body,
		}
		if tn, ok := body.(*graph.TextNode); ok {
			tn.ReadBackward = l.Backward
		}
		return begin, nil
	}

	negEnd := &graph.EndNode{
		Kind:             graph.NegativeSubmatchSuccess,
		StackRegister:    stackReg,
		PositionRegister: posReg,
	}
	body, err := lw.Lower(l.Body, negEnd)
	if err != nil {
		return nil, err
	}
	if tn, ok := body.(*graph.TextNode); ok {
		tn.ReadBackward = l.Backward
	}
	begin := &graph.ActionNode{
		Kind:            graph.BeginSubmatch,
		StackRegister:   stackReg,
		PositionRegister: posReg,
		OnSuccess:       body,
	}
	nlc := &graph.NegativeLookaroundChoiceNode{
		Lookahead:    graph.Node(begin),
		Continuation: onSuccess,
	}
	nlc.Alternatives = []graph.GuardedAlternative{{Node: nlc.Lookahead}, {Node: nlc.Continuation}}
	return nlc, nil
}

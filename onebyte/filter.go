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

// Package onebyte rewrites a node graph in place, given that the subject
// is known to contain only code points <= 0xFF, dropping any branch that
// provably cannot match.
package onebyte

import (
	"github.com/relang/rex/charset"
	"github.com/relang/rex/graph"
)

// Filter rewrites root's graph for a one-byte subject, returning the
// (possibly different) root to use from now on, or nil if root itself can
// never match.
func Filter(root graph.Node) graph.Node {
	f := &filterer{}
	return f.filter(root)
}

type filterer struct{}

// filter memoizes via Base.Replacement: nil means unvisited, the node
// itself means "keep unchanged"; Visited guards against infinite
// recursion on cycles.
func (f *filterer) filter(n graph.Node) graph.Node {
	if n == nil {
		return nil
	}
	base := baseOf(n)
	if base == nil {
		return n
	}
	if base.Info.ReplacementCalculated {
		return base.Replacement
	}
	if base.Info.Visited {
		// Cycle (a loop's back edge): assume "keep" until the outer call
		// finishes and can correct it if needed — matches the teacher's
		// conservative handling of cyclic DFA construction in
		// NFAStore.pruneRLZ, which also defers judgment on nodes still
		// mid-traversal.
		return n
	}
	base.Info.Visited = true

	var replacement graph.Node
	switch v := n.(type) {
	case *graph.TextNode:
		replacement = f.filterText(v)
	case *graph.ChoiceNode:
		replacement = f.filterChoice(v, &v.Alternatives, n)
	case *graph.LoopChoiceNode:
		replacement = f.filterLoopChoice(v)
	case *graph.NegativeLookaroundChoiceNode:
		// A negative lookaround's lookahead branch filtering to null means
		// the lookahead can never match, which makes the assertion always
		// succeed — collapse straight to the continuation.
		if f.filter(v.Lookahead) == nil {
			replacement = f.filter(v.Continuation)
		} else {
			v.Continuation = f.filter(v.Continuation)
			replacement = n
		}
	case *graph.ActionNode:
		v.OnSuccess = f.filter(v.OnSuccess)
		if v.OnSuccess == nil {
			replacement = nil
		} else {
			replacement = n
		}
	case *graph.AssertionNode:
		v.OnSuccess = f.filter(v.OnSuccess)
		if v.OnSuccess == nil {
			replacement = nil
		} else {
			replacement = n
		}
	case *graph.BackReferenceNode:
		v.OnSuccess = f.filter(v.OnSuccess)
		if v.OnSuccess == nil {
			replacement = nil
		} else {
			replacement = n
		}
	case *graph.EndNode:
		replacement = n
	default:
		replacement = n
	}

	base.Info.Visited = false
	base.Info.ReplacementCalculated = true
	base.Replacement = replacement
	return replacement
}

// filterText drops elements whose every code point is above Latin-1 and
// clips the rest to [0, 0xFF], preserving case-variants that do have a
// Latin-1 equivalent.
func (f *filterer) filterText(tn *graph.TextNode) graph.Node {
	for _, el := range tn.Elements {
		if el.Class != nil {
			clipped := el.Class.Ranges.Clip(charset.MaxOneByteChar)
			if !el.Class.Negated && len(clipped) == 0 {
				// Every range is entirely non-Latin-1: this element, and so
				// this whole fixed-length node, can never match.
				return nil
			}
			continue
		}
		for _, c := range el.Atom {
			if c > charset.MaxOneByteChar {
				return nil
			}
		}
	}
	tn.OnSuccess = f.filter(tn.OnSuccess)
	if tn.OnSuccess == nil {
		return nil
	}
	for i, el := range tn.Elements {
		if el.Class != nil {
			tn.Elements[i].Class.Ranges = el.Class.Ranges.Clip(charset.MaxOneByteChar)
		}
	}
	return tn
}

// filterLoopChoice narrows a loop's two special alternatives in place,
// preserving guard lists and greedy/lazy ordering. A dead continuation
// kills the whole loop (it could never be left); a dead body collapses
// the loop to its continuation, which still matches zero iterations.
func (f *filterer) filterLoopChoice(v *graph.LoopChoiceNode) graph.Node {
	newLoop := f.filter(v.LoopNode)
	newCont := f.filter(v.ContinueNode)
	if newCont == nil {
		return nil
	}
	if newLoop == nil {
		// A guarded continuation means a minimum repeat count; with the body
		// dead the counter can never get there, so the loop as a whole dies.
		for _, a := range v.Alternatives {
			if a.Node == v.ContinueNode && len(a.Guards) > 0 {
				return nil
			}
		}
		return newCont
	}
	for i, a := range v.Alternatives {
		if a.Node == v.LoopNode {
			v.Alternatives[i].Node = newLoop
		} else if a.Node == v.ContinueNode {
			v.Alternatives[i].Node = newCont
		}
	}
	v.LoopNode = newLoop
	v.ContinueNode = newCont
	return v
}

// filterChoice drops alternatives that filter to null; if exactly one
// survives, the choice collapses to that survivor.
func (f *filterer) filterChoice(cn *graph.ChoiceNode, alts *[]graph.GuardedAlternative, self graph.Node) graph.Node {
	var kept []graph.GuardedAlternative
	for _, a := range *alts {
		r := f.filter(a.Node)
		if r == nil {
			continue
		}
		kept = append(kept, graph.GuardedAlternative{Guards: a.Guards, Node: r})
	}
	*alts = kept
	cn.Alternatives = kept
	switch len(kept) {
	case 0:
		return nil
	case 1:
		if len(kept[0].Guards) == 0 {
			return kept[0].Node
		}
		return self
	default:
		return self
	}
}

func baseOf(n graph.Node) *graph.Base {
	switch v := n.(type) {
	case *graph.TextNode:
		return &v.Base
	case *graph.ChoiceNode:
		return &v.Base
	case *graph.LoopChoiceNode:
		return &v.Base
	case *graph.NegativeLookaroundChoiceNode:
		return &v.Base
	case *graph.ActionNode:
		return &v.Base
	case *graph.AssertionNode:
		return &v.Base
	case *graph.BackReferenceNode:
		return &v.Base
	case *graph.EndNode:
		return &v.Base
	default:
		return nil
	}
}

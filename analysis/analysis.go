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

// Package analysis runs the depth-first pass over the node graph that
// fills in each node's Info bits before the one-byte filter and emitter
// run.
package analysis

import (
	"errors"

	"github.com/relang/rex/charset"
	"github.com/relang/rex/graph"
)

// ErrStackOverflow is returned when the host's own call stack would
// overflow recursing into the graph.
var ErrStackOverflow = errors.New("Stack overflow")

// maxDepth bounds the analysis recursion the way the teacher's automaton
// construction bounds state counts (MaxNodesAutomaton in regexp2.go) —
// here it stands in for a host stack-depth check, the sole cancellation
// point during analysis.
const maxDepth = 50000

// analyzer carries the DFS state. BeingAnalyzed detects the cycle formed
// by a LoopChoiceNode's back edge, handled by visiting loop_node last.
type analyzer struct {
	depth int
}

// Analyze walks root and every node reachable from it, filling in Info and
// returning the first error encountered.
func Analyze(root graph.Node) error {
	a := &analyzer{}
	return a.visit(root)
}

func (a *analyzer) visit(n graph.Node) error {
	if n == nil {
		return nil
	}
	a.depth++
	defer func() { a.depth-- }()
	if a.depth > maxDepth {
		return ErrStackOverflow
	}

	info := nodeInfo(n)
	if info == nil {
		return nil
	}
	if info.BeingAnalyzed || info.BeenAnalyzed {
		return nil
	}
	info.BeingAnalyzed = true

	switch v := n.(type) {
	case *graph.TextNode:
		if err := a.visit(v.OnSuccess); err != nil {
			return err
		}
		expandCaseIndependence(v)
		assignOffsets(v)
		propagateFollows(info, nodeInfo(v.OnSuccess))

	case *graph.LoopChoiceNode:
		// continue_node first, loop_node last: the back edge is visited
		// after the node's own info bits are seeded from the continuation,
		// so the cycle terminates on being_analyzed rather than recursing
		// forever.
		if err := a.visit(v.ContinueNode); err != nil {
			return err
		}
		propagateFollows(info, nodeInfo(v.ContinueNode))
		if err := a.visit(v.LoopNode); err != nil {
			return err
		}
		propagateFollows(info, nodeInfo(v.LoopNode))

	case *graph.NegativeLookaroundChoiceNode:
		for _, succ := range graph.Successors(v) {
			if err := a.visit(succ); err != nil {
				return err
			}
			propagateFollows(info, nodeInfo(succ))
		}

	case *graph.ChoiceNode:
		for _, alt := range v.Alternatives {
			if err := a.visit(alt.Node); err != nil {
				return err
			}
			propagateFollows(info, nodeInfo(alt.Node))
		}

	case *graph.ActionNode:
		if err := a.visit(v.OnSuccess); err != nil {
			return err
		}
		propagateFollows(info, nodeInfo(v.OnSuccess))
		if v.Kind == graph.EmptyMatchCheck {
			// Nothing further to compute: the runtime position compare
			// happens at emission time.
		}

	case *graph.AssertionNode:
		if err := a.visit(v.OnSuccess); err != nil {
			return err
		}
		propagateFollows(info, nodeInfo(v.OnSuccess))
		switch v.Kind {
		case graph.AfterNewline:
			info.FollowsNewlineInterest = true
		case graph.AtBoundary, graph.AtNonBoundary:
			info.FollowsWordInterest = true
		case graph.AtStart:
			info.FollowsStartInterest = true
		}

	case *graph.BackReferenceNode:
		if err := a.visit(v.OnSuccess); err != nil {
			return err
		}
		propagateFollows(info, nodeInfo(v.OnSuccess))

	case *graph.EndNode:
		// terminal: nothing to propagate.
	}

	info.BeingAnalyzed = false
	info.BeenAnalyzed = true
	return nil
}

func propagateFollows(parent, child *graph.Info) {
	if child == nil {
		return
	}
	parent.FollowsNewlineInterest = parent.FollowsNewlineInterest || child.FollowsNewlineInterest
	parent.FollowsWordInterest = parent.FollowsWordInterest || child.FollowsWordInterest
	parent.FollowsStartInterest = parent.FollowsStartInterest || child.FollowsStartInterest
}

func nodeInfo(n graph.Node) *graph.Info {
	switch v := n.(type) {
	case *graph.TextNode:
		return &v.Info
	case *graph.ChoiceNode:
		return &v.Info
	case *graph.LoopChoiceNode:
		return &v.Info
	case *graph.NegativeLookaroundChoiceNode:
		return &v.Info
	case *graph.ActionNode:
		return &v.Info
	case *graph.AssertionNode:
		return &v.Info
	case *graph.BackReferenceNode:
		return &v.Info
	case *graph.EndNode:
		return &v.Info
	default:
		return nil
	}
}

// expandCaseIndependence rewrites every ignore-case Atom element into an
// equivalent CharClass element built from its case-equivalence closure.
func expandCaseIndependence(tn *graph.TextNode) {
	for i, el := range tn.Elements {
		if el.Class != nil && !el.IgnoreCase {
			continue
		}
		if el.Atom == nil || !el.IgnoreCase {
			continue
		}
		var ranges charset.List
		for _, c := range el.Atom {
			ranges = charset.Union(ranges, charset.Canonicalize([]charset.Range{{From: rune(c), To: rune(c)}}, charset.MaxCodePoint))
		}
		ranges = charset.AddCaseEquivalents(ranges, false, charset.DefaultFolder{})
		if len(el.Atom) == 1 && len(ranges) > 0 {
			tn.Elements[i] = graph.TextElement{Class: &graph.ClassElement{Ranges: ranges}, CPOffset: el.CPOffset}
		}
	}
}

// assignOffsets fills in each element's CPOffset, the cumulative
// code-unit distance from the node's start.
func assignOffsets(tn *graph.TextNode) {
	offset := 0
	for i := range tn.Elements {
		tn.Elements[i].CPOffset = offset
		if tn.Elements[i].Class != nil {
			offset++
		} else {
			offset += len(tn.Elements[i].Atom)
		}
	}
}

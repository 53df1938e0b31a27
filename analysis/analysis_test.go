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

package analysis

import (
	"testing"

	"github.com/relang/rex/charset"
	"github.com/relang/rex/graph"
)

func TestAssignOffsetsPerCodeUnit(t *testing.T) {
	end := &graph.EndNode{Kind: graph.Accept}
	tn := &graph.TextNode{
		Elements: []graph.TextElement{
			{Atom: []uint16{'a', 'b'}},
			{Class: &graph.ClassElement{Ranges: charset.List{{From: 'x', To: 'z'}}}},
			{Atom: []uint16{'c'}},
		},
		OnSuccess: end,
	}
	if err := Analyze(tn); err != nil {
		t.Fatal(err)
	}
	want := []int{0, 2, 3}
	for i, w := range want {
		if got := tn.Elements[i].CPOffset; got != w {
			t.Fatalf("element %d CPOffset = %d, want %d", i, got, w)
		}
	}
}

func TestExpandCaseIndependenceSingleAtom(t *testing.T) {
	end := &graph.EndNode{Kind: graph.Accept}
	tn := &graph.TextNode{
		Elements:  []graph.TextElement{{Atom: []uint16{'k'}, IgnoreCase: true}},
		OnSuccess: end,
	}
	if err := Analyze(tn); err != nil {
		t.Fatal(err)
	}
	cl := tn.Elements[0].Class
	if cl == nil {
		t.Fatal("ignore-case single atom should expand to a class element")
	}
	for _, cp := range []rune{'k', 'K'} {
		if !cl.Ranges.Contains(cp) {
			t.Fatalf("expanded class misses %q: %v", cp, cl.Ranges)
		}
	}
}

func TestFollowsWordInterestPropagates(t *testing.T) {
	end := &graph.EndNode{Kind: graph.Accept}
	boundary := &graph.AssertionNode{Kind: graph.AtBoundary, OnSuccess: end}
	action := &graph.ActionNode{Kind: graph.StorePosition, Register: 0, OnSuccess: boundary}
	if err := Analyze(action); err != nil {
		t.Fatal(err)
	}
	if !boundary.Info.FollowsWordInterest {
		t.Fatal("boundary assertion should mark its own word interest")
	}
	if !action.Info.FollowsWordInterest {
		t.Fatal("word interest should propagate from successor to predecessor")
	}
}

func TestLoopBackEdgeTerminates(t *testing.T) {
	end := &graph.EndNode{Kind: graph.Accept}
	lc := &graph.LoopChoiceNode{}
	body := &graph.TextNode{
		Elements:  []graph.TextElement{{Atom: []uint16{'a'}}},
		OnSuccess: lc,
	}
	lc.LoopNode = body
	lc.ContinueNode = end
	lc.Alternatives = []graph.GuardedAlternative{{Node: body}, {Node: end}}

	if err := Analyze(lc); err != nil {
		t.Fatalf("cyclic loop graph should analyze cleanly, got %v", err)
	}
	if !lc.Info.BeenAnalyzed || lc.Info.BeingAnalyzed {
		t.Fatal("loop node should finish analysis with BeenAnalyzed set")
	}
	if body.Elements[0].CPOffset != 0 {
		t.Fatalf("body offset = %d, want 0", body.Elements[0].CPOffset)
	}
}

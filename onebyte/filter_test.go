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

package onebyte

import (
	"testing"

	"github.com/relang/rex/charset"
	"github.com/relang/rex/graph"
)

func accept() *graph.EndNode { return &graph.EndNode{Kind: graph.Accept} }

func textAtom(chars ...uint16) *graph.TextNode {
	return &graph.TextNode{
		Elements:  []graph.TextElement{{Atom: chars}},
		OnSuccess: accept(),
	}
}

func TestFilterKillsNonLatin1Atom(t *testing.T) {
	if got := Filter(textAtom(0x1234)); got != nil {
		t.Fatalf("text over U+1234 can never match a one-byte subject, got %T", got)
	}
}

func TestFilterKeepsLatin1Atom(t *testing.T) {
	tn := textAtom('a', 0xE9)
	if got := Filter(tn); got != graph.Node(tn) {
		t.Fatalf("Latin-1 text should survive unchanged, got %T", got)
	}
}

func TestFilterClipsClassRanges(t *testing.T) {
	tn := &graph.TextNode{
		Elements: []graph.TextElement{{Class: &graph.ClassElement{
			Ranges: charset.List{{From: 0x80, To: 0x200}},
		}}},
		OnSuccess: accept(),
	}
	got := Filter(tn)
	if got != graph.Node(tn) {
		t.Fatalf("partially-Latin-1 class should survive, got %T", got)
	}
	ranges := tn.Elements[0].Class.Ranges
	if len(ranges) != 1 || ranges[0].To != charset.MaxOneByteChar {
		t.Fatalf("ranges not clipped to Latin-1: %v", ranges)
	}
}

func TestFilterKillsClassEntirelyAboveLatin1(t *testing.T) {
	tn := &graph.TextNode{
		Elements: []graph.TextElement{{Class: &graph.ClassElement{
			Ranges: charset.List{{From: 0x100, To: 0x200}},
		}}},
		OnSuccess: accept(),
	}
	if got := Filter(tn); got != nil {
		t.Fatalf("class entirely above 0xFF should filter to nil, got %T", got)
	}
}

func TestFilterCollapsesChoiceToSurvivor(t *testing.T) {
	dead := textAtom(0x1234)
	alive := textAtom('a')
	cn := &graph.ChoiceNode{Alternatives: []graph.GuardedAlternative{
		{Node: dead},
		{Node: alive},
	}}
	got := Filter(cn)
	if got != graph.Node(alive) {
		t.Fatalf("single-survivor choice should collapse to the survivor, got %T", got)
	}
}

func TestFilterLoopChoicePreservesGuardsAndOrder(t *testing.T) {
	end := accept()
	lc := &graph.LoopChoiceNode{}
	body := &graph.TextNode{
		Elements:  []graph.TextElement{{Atom: []uint16{'a'}}},
		OnSuccess: lc,
	}
	lc.LoopNode = body
	lc.ContinueNode = end
	guards := []graph.Guard{{Register: 4, Kind: graph.GuardLT, Bound: 3}}
	lc.Alternatives = []graph.GuardedAlternative{
		{Guards: guards, Node: body},
		{Node: end},
	}

	got := Filter(lc)
	if got != graph.Node(lc) {
		t.Fatalf("all-Latin-1 loop should survive as itself, got %T", got)
	}
	if len(lc.Alternatives) != 2 {
		t.Fatalf("alternatives = %d, want 2", len(lc.Alternatives))
	}
	if len(lc.Alternatives[0].Guards) != 1 || lc.Alternatives[0].Guards[0].Bound != 3 {
		t.Fatalf("loop alternative lost its guard: %+v", lc.Alternatives[0])
	}
	if lc.Alternatives[0].Node != graph.Node(body) || lc.Alternatives[1].Node != graph.Node(end) {
		t.Fatal("alternative order changed")
	}
}

func TestFilterDeadLoopBodyCollapsesToContinuation(t *testing.T) {
	end := accept()
	lc := &graph.LoopChoiceNode{}
	body := textAtom(0x1234)
	body.OnSuccess = lc
	lc.LoopNode = body
	lc.ContinueNode = end
	lc.Alternatives = []graph.GuardedAlternative{{Node: body}, {Node: end}}

	if got := Filter(lc); got != graph.Node(end) {
		t.Fatalf("loop with a dead body still matches zero iterations, got %T", got)
	}
}

func TestFilterNegativeLookaroundWithDeadBodyCollapses(t *testing.T) {
	cont := textAtom('a')
	nlc := &graph.NegativeLookaroundChoiceNode{
		Lookahead:    textAtom(0x1234),
		Continuation: cont,
	}
	nlc.Alternatives = []graph.GuardedAlternative{{Node: nlc.Lookahead}, {Node: nlc.Continuation}}

	if got := Filter(nlc); got != graph.Node(cont) {
		t.Fatalf("a lookahead that can never match makes the assertion vacuous, got %T", got)
	}
}

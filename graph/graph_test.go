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

package graph

import "testing"

func TestLabelBindPatchesFixups(t *testing.T) {
	l := NewLabel()
	if l.IsBound() {
		t.Fatalf("fresh label should be unbound")
	}
	f1 := l.LinkTo(10)
	f2 := l.LinkTo(20)
	fixups := l.Bind(100)
	if !l.IsBound() || l.Pos() != 100 {
		t.Fatalf("bind failed")
	}
	if len(fixups) != 2 || fixups[0] != f1 || fixups[1] != f2 {
		t.Fatalf("fixups = %v", fixups)
	}
}

func TestSuccessorsEndNodeHasNone(t *testing.T) {
	end := &EndNode{Kind: Accept}
	if s := Successors(end); s != nil {
		t.Fatalf("expected no successors, got %v", s)
	}
}

func TestSuccessorsLoopChoiceOrdersContinueThenLoop(t *testing.T) {
	cont := &EndNode{Kind: Accept}
	loop := &EndNode{Kind: Backtrack}
	lc := &LoopChoiceNode{ContinueNode: cont, LoopNode: loop}
	succ := Successors(lc)
	if len(succ) != 2 || succ[0] != Node(cont) || succ[1] != Node(loop) {
		t.Fatalf("successors = %v", succ)
	}
}

func TestTextNodeLength(t *testing.T) {
	tn := &TextNode{Elements: []TextElement{
		{Atom: []uint16{'a', 'b'}},
		{Class: &ClassElement{}},
	}}
	if got := tn.Length(); got != 3 {
		t.Fatalf("Length() = %d, want 3", got)
	}
}

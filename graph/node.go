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

// MaxCopiesCodeGenerated caps per-node specializations before the
// trace-based emitter falls back to a single generic copy.
const MaxCopiesCodeGenerated = 10

// Info carries the per-node analysis bits computed by the analysis pass.
type Info struct {
	Visited              bool
	BeingAnalyzed        bool
	BeenAnalyzed         bool
	ReplacementCalculated bool
	FollowsNewlineInterest bool
	FollowsWordInterest    bool
	FollowsStartInterest   bool
}

// Node is the interface every graph variant satisfies. Type-switch on the
// concrete type (TextNode, ChoiceNode, LoopChoiceNode,
// NegativeLookaroundChoiceNode, ActionNode, AssertionNode,
// BackReferenceNode, EndNode) to visit it — a tagged union with a fixed
// visitor capability set, instead of a polymorphic Accept/Visit pair.
type Node interface {
	base() *Base
}

// Base is embedded in every node variant and carries the fields every
// variant shares: label, info, on_work_list, trace_count, replacement.
type Base struct {
	Label *Label
	Info  Info

	OnWorkList bool
	TraceCount int

	// Replacement is set by the one-byte filter: nil means "unvisited",
	// a pointer to itself means "keep unchanged", any other value is the
	// node to substitute, and a nil *replacement sentinel (NullNode) means
	// "this node can never match a one-byte subject".
	Replacement Node
}

func (b *Base) base() *Base { return b }

// NullNode is the distinguished "cannot match" node the one-byte filter
// substitutes for a node it proves dead.
type NullNode struct{ Base }

func NewNullNode() *NullNode { return &NullNode{} }

// Successors returns every node directly reachable from n in one step,
// used by analysis and the one-byte filter for their DFS. LoopChoiceNode's
// back edge (loop_node) is included like any other alternative; callers
// that need to treat it specially (checking loop_node last) must
// recognize the concrete type themselves.
func Successors(n Node) []Node {
	switch v := n.(type) {
	case *TextNode:
		if v.OnSuccess != nil {
			return []Node{v.OnSuccess}
		}
		return nil
	case *ChoiceNode:
		out := make([]Node, 0, len(v.Alternatives))
		for _, a := range v.Alternatives {
			out = append(out, a.Node)
		}
		return out
	case *LoopChoiceNode:
		return []Node{v.ContinueNode, v.LoopNode}
	case *NegativeLookaroundChoiceNode:
		return []Node{v.Lookahead, v.Continuation}
	case *ActionNode:
		if v.OnSuccess != nil {
			return []Node{v.OnSuccess}
		}
		return nil
	case *AssertionNode:
		if v.OnSuccess != nil {
			return []Node{v.OnSuccess}
		}
		return nil
	case *BackReferenceNode:
		if v.OnSuccess != nil {
			return []Node{v.OnSuccess}
		}
		return nil
	case *EndNode:
		return nil
	case *NullNode:
		return nil
	default:
		return nil
	}
}

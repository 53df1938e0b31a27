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

// EndKind tags how matching terminates at an EndNode.
type EndKind int

const (
	Accept EndKind = iota
	Backtrack
	NegativeSubmatchSuccess
)

// EndNode is a terminal: the graph has no successors past it.
type EndNode struct {
	Base

	Kind EndKind

	// StackRegister and PositionRegister are only meaningful for
	// NegativeSubmatchSuccess: they name the registers the enclosing
	// BEGIN_SUBMATCH recorded the stack pointer and entry position in, so
	// the end node can unwind the submatch stack before backtracking.
	StackRegister, PositionRegister int
}

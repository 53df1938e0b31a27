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

import "github.com/relang/rex/charset"

// TextElement is either a literal run of code units or a character class,
// each carrying the cp-offset of its first unit within the owning
// TextNode, computed during analysis.
type TextElement struct {
	// Exactly one of Atom/Class is set.
	Atom  []uint16
	Class *ClassElement

	IgnoreCase bool // only meaningful for Atom
	CPOffset   int  // filled in by analysis.Analyze
}

// ClassElement is a character class element of a TextNode.
type ClassElement struct {
	Ranges  charset.List
	Negated bool
}

// TextNode matches a fixed-length run of elements in order.
type TextNode struct {
	Base

	Elements []TextElement

	// ReadBackward is set for lookbehind bodies, which scan right-to-left.
	ReadBackward bool

	OnSuccess Node
}

// Length returns the node's fixed code-unit length: every class element
// consumes exactly one code unit, every atom element consumes len(Atom).
// Needed by the greedy-loop fast path, which requires the body to have
// fixed length.
func (t *TextNode) Length() int {
	n := 0
	for _, e := range t.Elements {
		if e.Class != nil {
			n++
		} else {
			n += len(e.Atom)
		}
	}
	return n
}

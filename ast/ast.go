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

// Package ast defines the read-only regular-expression syntax tree the
// compiler consumes. The tree itself is produced by a source-text parser
// that lives outside this module's scope: this package only carries the
// shapes the parser is expected to hand over.
package ast

import "github.com/relang/rex/charset"

// Flags mirrors the per-pattern flag set the compiler needs.
type Flags struct {
	IgnoreCase bool
	Multiline  bool
	Sticky     bool
	Global     bool
	Unicode    bool
	DotAll     bool
}

// Pack bit-packs Flags into the uint32 form used as a cache key
// component (cache.CompilationCache.Fingerprint) and as the persisted
// bytecode.Program.Flags field.
func (f Flags) Pack() uint32 {
	var v uint32
	if f.IgnoreCase {
		v |= 1 << 0
	}
	if f.Multiline {
		v |= 1 << 1
	}
	if f.Sticky {
		v |= 1 << 2
	}
	if f.Global {
		v |= 1 << 3
	}
	if f.Unicode {
		v |= 1 << 4
	}
	if f.DotAll {
		v |= 1 << 5
	}
	return v
}

// Node is the sum type of every AST shape. It is intentionally a closed
// set: type-switch over it, don't add methods per-variant beyond what's
// needed to keep the set closed to this package's callers.
type Node interface {
	astNode()
}

// Atom is a literal run of UTF-16 code units.
type Atom struct {
	Chars []uint16
}

func (Atom) astNode() {}

// CharClass is a bracket expression: a range list, optionally negated.
type CharClass struct {
	Ranges   charset.List
	Negated  bool
	DotClass bool // true for the implicit "." class, so DotAll is applied correctly
}

func (CharClass) astNode() {}

// Capture wraps body in capturing group number Index (1-based; 0 is the
// whole-match capture the compiler adds implicitly).
type Capture struct {
	Index int
	Name  string // empty if unnamed
	Body  Node
}

func (Capture) astNode() {}

// Alternation is an ordered list of alternatives, first-match-wins.
type Alternation struct {
	Alternatives []Node
}

func (Alternation) astNode() {}

// Sequence is an ordered concatenation.
type Sequence struct {
	Elements []Node
}

func (Sequence) astNode() {}

// Quantifier repeats Body between Min and Max times (Max < 0 means
// unbounded), greedily unless Greedy is false.
type Quantifier struct {
	Min, Max int
	Greedy   bool
	Body     Node
}

func (Quantifier) astNode() {}

// AssertionKind enumerates the zero-width assertions.
type AssertionKind int

const (
	AtStart AssertionKind = iota
	AtEnd
	AtBoundary
	AtNonBoundary
)

// Assertion is a zero-width positional test.
type Assertion struct {
	Kind AssertionKind
}

func (Assertion) astNode() {}

// BackReference refers back to a previously closed capture group.
type BackReference struct {
	Index int
}

func (BackReference) astNode() {}

// Lookaround is a lookahead (Backward false) or lookbehind (Backward true)
// submatch; Positive false makes it a negative lookaround.
type Lookaround struct {
	Positive bool
	Backward bool
	Body     Node
}

func (Lookaround) astNode() {}

// Text is a flattened run of atoms and character classes sharing one
// code-unit-at-a-time stride — the AST-level analog of graph.TextNode,
// useful when a parser has already fused adjacent literals and classes.
type TextElement struct {
	Atom      *Atom
	CharClass *CharClass
}

type Text struct {
	Elements []TextElement
}

func (Text) astNode() {}

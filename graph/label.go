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

// Package graph holds the shared DAG the compiler lowers an AST into:
// RegExpNode and its tagged variants.
package graph

// labelState is Label's monotone state machine: Unbound -> Linked
// (list-of-fixups) -> Bound (position).
type labelState int

const (
	labelUnbound labelState = iota
	labelLinked
	labelBound
)

// Label is a deferred code location: a jump target that may be referenced
// before the emitter knows where it will land.
type Label struct {
	state   labelState
	pos     int
	fixups  []int // positions of not-yet-patched references, in emission order
}

// NewLabel returns a fresh, unbound label.
func NewLabel() *Label { return &Label{state: labelUnbound} }

// IsBound reports whether the label has a concrete position yet.
func (l *Label) IsBound() bool { return l.state == labelBound }

// Pos returns the bound position. Callers must check IsBound first.
func (l *Label) Pos() int {
	if l.state != labelBound {
		panic("graph: Label.Pos on unbound label")
	}
	return l.pos
}

// LinkTo records a fixup site that referenced this label before it was
// bound; returns the position the caller should patch once Bind is called,
// or -1 if the label is already bound (caller can use Pos directly).
func (l *Label) LinkTo(fixupPos int) int {
	if l.state == labelBound {
		return -1
	}
	l.state = labelLinked
	l.fixups = append(l.fixups, fixupPos)
	return fixupPos
}

// Bind fixes the label's position once and for all, returning every fixup
// site recorded while it was unbound so the caller can patch them.
func (l *Label) Bind(pos int) []int {
	if l.state == labelBound {
		panic("graph: Label.Bind called twice")
	}
	l.state = labelBound
	l.pos = pos
	fixups := l.fixups
	l.fixups = nil
	return fixups
}

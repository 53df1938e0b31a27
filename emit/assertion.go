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

package emit

import (
	"github.com/relang/rex/asm"
	"github.com/relang/rex/boyermoore"
	"github.com/relang/rex/graph"
	"github.com/relang/rex/trace"
)

// emitAssertion handles each zero-width test with the cheapest available
// position/character check at the trace's virtual offset, falling through
// to OnSuccess. Assertions consume nothing, so the trace's deferred state
// carries straight across.
func (e *Emitter) emitAssertion(n *graph.AssertionNode, tr *trace.Trace) error {
	fail := e.failTarget(tr)
	switch n.Kind {
	case graph.AtStart:
		e.m.CheckNotAtStart(tr.CPOffset, fail)

	case graph.AtEnd:
		e.m.CheckPosition(tr.CPOffset, fail)

	case graph.AfterNewline:
		e.emitAfterNewline(tr, fail)

	case graph.AtBoundary, graph.AtNonBoundary:
		e.emitWordBoundary(n, n.Kind == graph.AtBoundary, tr, fail)
	}
	next := tr.Fork()
	next.CharactersPreloaded = 0
	return e.emit(n.OnSuccess, next)
}

// emitAfterNewline loads the previous character and tests it against the
// four line terminators. Start-of-input counts as "after a newline" here,
// so when the virtual offset is zero the at-start case short-circuits
// before the load can see an out-of-range position.
func (e *Emitter) emitAfterNewline(tr *trace.Trace, fail asm.Label) {
	ok := e.m.NewLabel()
	if tr.CPOffset == 0 {
		e.m.CheckAtStart(ok)
	} else if tr.CPOffset < 0 {
		notStart := e.m.NewLabel()
		e.m.CheckNotAtStart(tr.CPOffset, notStart)
		e.m.GoTo(ok)
		e.m.Bind(notStart)
	}
	e.m.LoadCurrentCharacter(tr.CPOffset-1, fail, false, 1)
	e.m.CheckCharacter('\n', ok)
	e.m.CheckCharacter('\r', ok)
	e.m.CheckCharacter(0x2028, ok)
	e.m.CheckCharacter(0x2029, ok)
	e.m.GoTo(fail)
	e.m.Bind(ok)
}

// emitWordBoundary decides the boundary/non-boundary case from the
// previous and next character's \w membership, an explicit four-leaf
// decision tree rather than carrying a runtime boolean through a
// register. An out-of-range side counts as non-word, which is what makes
// boundaries hold at both ends of the subject.
//
// The cheaper side tests first: the next character when the trace
// already has it preloaded, else whichever side's possible-character map
// is closer to a singleton class. Only the successor constrains the next
// character, so the previous side's map always counts as saturated — any
// constraint at all on the next character wins it the first test.
func (e *Emitter) emitWordBoundary(n *graph.AssertionNode, boundary bool, tr *trace.Trace, fail asm.Label) {
	nextFirst := tr.CharactersPreloaded > 0
	if !nextFirst {
		la := boyermoore.New(1)
		if fillLookahead(n.OnSuccess, la, 0) >= 1 {
			nextFirst = la.Positions[0].PossibleCount() < boyermoore.MapSize
		}
	}

	isBoundary := e.m.NewLabel()
	notBoundary := e.m.NewLabel()
	after := e.m.NewLabel()

	if nextFirst {
		nextNotWord := e.m.NewLabel()
		e.m.LoadCurrentCharacter(tr.CPOffset, nextNotWord, false, 1)
		e.m.CheckSpecialCharacterClass(asm.ClassWord, nextNotWord)

		// Next is a word character.
		e.m.LoadCurrentCharacter(tr.CPOffset-1, isBoundary, false, 1)
		e.m.CheckSpecialCharacterClass(asm.ClassWord, isBoundary)
		e.m.GoTo(notBoundary) // word, word

		e.m.Bind(nextNotWord)
		e.m.LoadCurrentCharacter(tr.CPOffset-1, notBoundary, false, 1)
		e.m.CheckSpecialCharacterClass(asm.ClassWord, notBoundary)
		// word, not-word: fall through to the boundary case.
	} else {
		prevNotWord := e.m.NewLabel()
		e.m.LoadCurrentCharacter(tr.CPOffset-1, prevNotWord, false, 1)
		e.m.CheckSpecialCharacterClass(asm.ClassWord, prevNotWord)

		// Previous is a word character.
		e.m.LoadCurrentCharacter(tr.CPOffset, isBoundary, false, 1)
		e.m.CheckSpecialCharacterClass(asm.ClassWord, isBoundary)
		e.m.GoTo(notBoundary) // word, word

		e.m.Bind(prevNotWord)
		e.m.LoadCurrentCharacter(tr.CPOffset, notBoundary, false, 1)
		e.m.CheckSpecialCharacterClass(asm.ClassWord, notBoundary)
		// not-word, word: fall through to the boundary case.
	}

	e.m.Bind(isBoundary)
	if boundary {
		e.m.GoTo(after)
	} else {
		e.m.GoTo(fail)
	}
	e.m.Bind(notBoundary)
	if boundary {
		e.m.GoTo(fail)
	}
	e.m.Bind(after)
}

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
	"github.com/relang/rex/graph"
	"github.com/relang/rex/quickcheck"
	"github.com/relang/rex/trace"
)

// emitChoice tries each alternative in order, pointing the trace's
// backtrack label at the next alternative's entry (or the outer backtrack
// for the last one) and using a quick-check to skip the full body when
// it's cheap to prove failure up front.
func (e *Emitter) emitChoice(cn *graph.ChoiceNode, tr *trace.Trace) error {
	return e.emitAlternatives(cn.Alternatives, tr, false)
}

// emitAlternatives lays the choice's branches out in order. notAtStart
// carries the containing loop's "never entered at subject start" fact
// into each alternative's quick check.
func (e *Emitter) emitAlternatives(alts []graph.GuardedAlternative, tr *trace.Trace, notAtStart bool) error {
	for i, alt := range alts {
		last := i == len(alts)-1

		branchTr := tr.Fork()
		if !last {
			afterLabel := e.m.NewLabel()
			branchTr.BacktrackLabel = afterLabel
			if err := e.emitGuarded(alt, branchTr, notAtStart); err != nil {
				return err
			}
			e.m.Bind(afterLabel)
		} else {
			if err := e.emitGuarded(alt, branchTr, notAtStart); err != nil {
				return err
			}
		}
	}
	return nil
}

// emitGuarded applies alt's register guards (bounding a quantifier
// counter) before emitting the alternative itself, and folds in a
// quick-check when the alternative's Details determine enough to be worth
// the extra compare. A cannot-match verdict (a dead branch, or a start
// anchor under notAtStart) short-circuits the whole alternative to its
// failure target.
func (e *Emitter) emitGuarded(alt graph.GuardedAlternative, tr *trace.Trace, notAtStart bool) error {
	fail := e.failTarget(tr)
	for _, g := range alt.Guards {
		switch g.Kind {
		case graph.GuardLT:
			e.m.IfRegisterGE(g.Register, g.Bound, fail)
		case graph.GuardGE:
			e.m.IfRegisterLT(g.Register, g.Bound, fail)
		}
	}

	d := quickcheck.Fill(alt.Node, notAtStart)
	if d.CannotMatch {
		e.m.GoTo(fail)
		return nil
	}
	if quickcheck.Generated(d) {
		quickcheck.Emit(e.m, d, tr.CPOffset, fail)
		tr.QuickCheckPerformed = &d
		tr.QuickCheckBase = tr.CPOffset
	}
	return e.emit(alt.Node, tr)
}

// greedyLoopTextLength reports the fixed code-unit length of lc's loop
// body when it is a pure chain of TextNodes leading straight back to lc —
// the shape the greedy-loop fast path requires. Bodies with register
// actions, assertions or nested choices in the chain fall back to the
// general path.
func greedyLoopTextLength(lc *graph.LoopChoiceNode) (int, bool) {
	length := 0
	n := lc.LoopNode
	for {
		tn, ok := n.(*graph.TextNode)
		if !ok {
			break
		}
		if tn.ReadBackward {
			return 0, false
		}
		length += tn.Length()
		n = tn.OnSuccess
	}
	if n == graph.Node(lc) && length > 0 {
		return length, true
	}
	return 0, false
}

// emitLoopChoice picks between the greedy-loop fast path (fixed-length
// text body, loop alternative first), a Boyer-Moore-assisted lazy scan,
// and the plain alternative emission. The trace is trivial here: emit
// flushes non-trivial arrivals at loop heads before dispatching.
func (e *Emitter) emitLoopChoice(lc *graph.LoopChoiceNode, tr *trace.Trace) error {
	if len(lc.Alternatives) == 2 && lc.Alternatives[0].Node == lc.LoopNode && !lc.BodyCanBeZeroLength {
		if length, ok := greedyLoopTextLength(lc); ok && len(lc.Alternatives[0].Guards) == 0 {
			return e.emitGreedyLoop(lc, length, tr)
		}
	}
	if e.isOmnivorousLazyScan(lc) {
		e.emitScanSkip(lc)
	}
	return e.emitAlternatives(lc.Alternatives, tr, lc.NotAtStart)
}

// emitGreedyLoop is the fixed-length fast path: one position push at
// entry, a tight runtime loop over the body, and a counter-free backtrack
// protocol that retries ever-shorter runs by stepping the position back
// one body length at a time until it is back at the loop entry.
func (e *Emitter) emitGreedyLoop(lc *graph.LoopChoiceNode, textLength int, tr *trace.Trace) error {
	loopLabel := e.m.NewLabel()
	matchFailed := e.m.NewLabel()
	secondChoice := e.m.NewLabel()
	backtrackLabel := e.m.NewLabel()

	e.m.PushCurrentPosition()
	e.m.Bind(loopLabel)

	bodyTr := trace.New(matchFailed, tr.FlushBudget)
	bodyTr.StopNode = graph.Node(lc)
	bodyTr.LoopLabel = loopLabel
	if err := e.dispatch(lc.LoopNode, bodyTr); err != nil {
		return err
	}
	e.m.Bind(matchFailed)

	e.m.Bind(secondChoice)
	contTr := trace.New(backtrackLabel, tr.FlushBudget)
	if err := e.emit(lc.ContinueNode, contTr); err != nil {
		return err
	}

	e.m.Bind(backtrackLabel)
	e.m.CheckGreedyLoop(e.failTarget(tr))
	e.m.AdvanceCurrentPosition(-textLength)
	e.m.GoTo(secondChoice)
	return nil
}

// emitNegativeLookaround lays out the stack protocol that keeps the
// body's shared code context-free. Two addresses go on the backtrack
// stack: the overall failure target first, then the continuation. A body
// check failing pops its way to the continuation (the assertion held);
// the body matching reaches NegativeSubmatchSuccess, which restores the
// stack pointer recorded here — leaving the failure address on top — and
// backtracks into it.
func (e *Emitter) emitNegativeLookaround(n *graph.NegativeLookaroundChoiceNode, tr *trace.Trace) error {
	flushed := tr.Flush(e.m, isCaptureRegister)

	begin, ok := n.Lookahead.(*graph.ActionNode)
	if !ok || begin.Kind != graph.BeginSubmatch {
		return e.emit(n.Continuation, trace.New(nil, flushed.FlushBudget))
	}

	continueLabel := e.m.NewLabel()

	e.m.PushBacktrack(e.failTarget(flushed))
	e.m.WriteStackPointerToRegister(begin.StackRegister)
	e.m.WriteCurrentPositionToRegister(begin.PositionRegister, 0)
	e.m.PushBacktrack(continueLabel)

	bodyTr := trace.New(nil, flushed.FlushBudget)
	if err := e.emit(begin.OnSuccess, bodyTr); err != nil {
		return err
	}

	e.m.Bind(continueLabel)
	e.m.ReadCurrentPositionFromRegister(begin.PositionRegister)
	return e.emit(n.Continuation, trace.New(nil, flushed.FlushBudget))
}

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

// Package trace carries the emitter's virtualized execution state: the
// deferred register actions, preloaded-character bookkeeping and backtrack
// target that would otherwise force a flush to real code at every node.
// It is not a coroutine: flushing is an explicit snapshot/restore over a
// plain value, never a suspension.
package trace

import (
	"sort"

	"github.com/relang/rex/asm"
	"github.com/relang/rex/quickcheck"
)

// ActionKind is the subset of graph.ActionKind a Trace can defer rather
// than emit immediately.
type ActionKind int

const (
	SetRegister ActionKind = iota
	IncrementRegister
	StorePosition
	ClearCaptures
	AdvanceCurrentPosition
)

// DeferredAction is one entry in the Trace's action list: a short vector
// with copy-on-fork, not a pointer-linked persistent list, since traces
// here are short-lived and rarely forked more than a few levels deep.
type DeferredAction struct {
	Kind ActionKind

	Register int
	Value    int // absolute for SetRegister, delta for IncrementRegister

	RangeFrom, RangeTo int // ClearCaptures

	CPOffset int // StorePosition's cp_offset, AdvanceCurrentPosition's delta
}

// Trace is the value-bag emitter state threaded through Lower/Emit calls.
// Copying a Trace (Go's normal struct-assignment semantics) gives each
// successor its own scope; callers fork a Trace by assigning it, not by
// mutating a shared one.
type Trace struct {
	CPOffset            int
	CharactersPreloaded int // 0..quickcheck.MaxChars
	BoundCheckedUpTo    int

	BacktrackLabel asm.Label
	LoopLabel      asm.Label
	StopNode       interface{} // graph.Node the current specialization must return to, or nil

	AtStart triState

	Actions []DeferredAction

	// QuickCheckPerformed carries the details of the quick check just
	// emitted for this alternative, so the full check on the fall-through
	// path can skip positions the preload already determined perfectly.
	// QuickCheckBase is the trace cp offset the check's positions are
	// relative to.
	QuickCheckPerformed *quickcheck.Details
	QuickCheckBase      int

	FlushBudget int
}

type triState int

const (
	Unknown triState = iota
	IsTrue
	IsFalse
)

// New returns a fresh trace: nothing deferred, nothing preloaded. A nil
// backtrack means failure pops the backtrack stack; a concrete label
// pins failure to that jump target until the next flush converts it.
func New(backtrack asm.Label, flushBudget int) *Trace {
	return &Trace{BacktrackLabel: backtrack, FlushBudget: flushBudget}
}

// Fork returns an independent copy for a successor path; Actions is
// re-sliced (not shared) so appends on the fork never alias the parent.
func (t *Trace) Fork() *Trace {
	f := *t
	f.Actions = append([]DeferredAction(nil), t.Actions...)
	return &f
}

// IsTrivial reports whether the trace carries nothing that would need
// flushing — the fast path LimitVersions checks before deciding whether a
// plain jump to the node's bound label suffices. A concrete backtrack
// label counts as state: a node's one shared generic copy routes failure
// through the backtrack stack, so only a stack-disciplined (nil-label)
// trace may reuse it.
func (t *Trace) IsTrivial() bool {
	return len(t.Actions) == 0 && t.CPOffset == 0 && t.CharactersPreloaded == 0 &&
		t.BacktrackLabel == nil && t.QuickCheckPerformed == nil && t.StopNode == nil
}

// Defer appends a to the action list; it does not touch the assembler.
func (t *Trace) Defer(a DeferredAction) {
	t.Actions = append(t.Actions, a)
}

// undoKind is how Flush undoes one register's deferred edits on the
// backtrack path.
type undoKind int

const (
	undoIgnore undoKind = iota
	undoRestore
	undoClear
)

// regEffect is the net, chronologically-final effect Flush computes for
// one register by walking Actions in reverse: within a register, the
// newest StorePosition wins; SetRegister sets an absolute value, and
// IncrementRegister adds to it unless an absolute value already won.
type regEffect struct {
	undo            undoKind
	hasAbsolute     bool
	absolute        int
	delta           int
	isStorePosition bool
	cpOffset        int
	isClear         bool
}

// Flush materializes every deferred action onto m and returns a fresh
// trivial Trace continuing from cpOffset 0, walking the seven-step
// classify-push-emit-advance-pad sequence. The returned trace routes
// failure through the backtrack stack: the landing pad's address is the
// top entry, and the pad forwards to the original backtrack label if one
// was set. captureRegs reports whether reg is one of the two reserved
// capture-0 registers, which are always IGNORE on the undo path (they
// are re-set on success regardless).
func (t *Trace) Flush(m asm.MacroAssembler, captureRegs func(reg int) bool) *Trace {
	if t.IsTrivial() {
		return t
	}

	effects := map[int]*regEffect{}
	order := []int{}

	// Step 2: scan reverse-chronologically to find every affected register.
	for i := len(t.Actions) - 1; i >= 0; i-- {
		a := t.Actions[i]
		switch a.Kind {
		case SetRegister:
			e := effects[a.Register]
			if e == nil {
				e = &regEffect{}
				effects[a.Register] = e
				order = append(order, a.Register)
			}
			if !e.hasAbsolute {
				e.hasAbsolute = true
				e.absolute = a.Value
			}
		case IncrementRegister:
			e := effects[a.Register]
			if e == nil {
				e = &regEffect{}
				effects[a.Register] = e
				order = append(order, a.Register)
			}
			if !e.hasAbsolute {
				e.delta += a.Value
			}
		case StorePosition:
			e := effects[a.Register]
			if e == nil {
				e = &regEffect{}
				effects[a.Register] = e
				order = append(order, a.Register)
			}
			if !e.isStorePosition {
				e.isStorePosition = true
				e.cpOffset = a.CPOffset
			}
		case ClearCaptures:
			for r := a.RangeFrom; r <= a.RangeTo; r++ {
				e := effects[r]
				if e == nil {
					e = &regEffect{}
					effects[r] = e
					order = append(order, r)
				}
				if !e.isStorePosition && !e.hasAbsolute {
					e.isClear = true
				}
			}
		}
	}

	// Step 3: classify undo per register.
	for reg, e := range effects {
		switch {
		case captureRegs != nil && captureRegs(reg):
			e.undo = undoIgnore
		case e.isStorePosition || e.isClear:
			e.undo = undoClear
		default:
			e.undo = undoRestore
		}
	}

	// Step 1 + step 4: push current position if backtracking, then push
	// restore-classified registers in ascending register order, throttled by
	// stack_limit_slack.
	if t.BacktrackLabel != nil {
		m.PushCurrentPosition()
	}
	slack := m.StackLimitSlack()
	restore := []int{}
	for _, reg := range order {
		if effects[reg].undo == undoRestore {
			restore = append(restore, reg)
		}
	}
	sort.Ints(restore)
	pushed := []int{}
	for _, reg := range restore {
		if len(pushed) >= slack {
			break
		}
		m.PushRegister(reg, true)
		pushed = append(pushed, reg)
	}

	// Step 5: emit the final action per register.
	for _, reg := range order {
		e := effects[reg]
		switch {
		case e.isStorePosition:
			m.WriteCurrentPositionToRegister(reg, e.cpOffset)
		case e.isClear:
			m.SetRegister(reg, -1)
		case e.hasAbsolute:
			m.SetRegister(reg, e.absolute)
		case e.delta != 0:
			m.AdvanceRegister(reg, e.delta)
		}
	}

	// Step 6: advance current position by cp_offset.
	if t.CPOffset != 0 {
		m.AdvanceCurrentPosition(t.CPOffset)
	}

	// Step 7: push the backtrack landing pad's address, then lay the pad
	// out of line. Failures past this point pop the stack (the returned
	// trace has no concrete label), land in the pad, pop the restored
	// registers in descending order, and either keep backtracking or
	// restore the saved position and jump to the original label.
	land := m.NewLabel()
	cont := m.NewLabel()
	m.PushBacktrack(land)
	m.GoTo(cont)
	m.Bind(land)
	for i := len(pushed) - 1; i >= 0; i-- {
		m.PopRegister(pushed[i])
	}
	if t.BacktrackLabel != nil {
		m.PopCurrentPosition()
		m.GoTo(t.BacktrackLabel)
	} else {
		m.Backtrack()
	}
	m.Bind(cont)

	return New(nil, t.FlushBudget-1)
}

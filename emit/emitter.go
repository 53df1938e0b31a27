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

// Package emit walks an analyzed, filtered node graph and drives an
// asm.MacroAssembler to produce a compiled program, under the control of
// a trace.Trace. It is the "Emitter" half of the Compiler/Emitter
// component.
package emit

import (
	"errors"

	"github.com/relang/rex/asm"
	"github.com/relang/rex/graph"
	"github.com/relang/rex/trace"
)

// errRecursionLimit is returned when dispatch's own recursion would
// exceed maxRecursionDepth, mirrored after analysis.ErrStackOverflow.
var errRecursionLimit = errors.New("emit: recursion limit exceeded")

// maxRecursionDepth bounds the emitter's own call stack the way
// analysis.maxDepth bounds the analysis pass — once hit, LimitVersions
// treats the node as though it were already bound, forcing a jump instead
// of further inlining.
const maxRecursionDepth = 2000

// Emitter drives asm.MacroAssembler over a node graph. Each distinct node
// is emitted at most once in full; later trivial-trace arrivals jump to
// its bound label instead of re-inlining it, which is what breaks cycles
// (LoopChoiceNode's back edge) without needing separate cycle detection.
type Emitter struct {
	m    asm.MacroAssembler
	mode asm.Mode

	labels   map[*graph.Base]asm.Label
	emitted  map[*graph.Base]bool
	worklist []workItem

	// sink is the program's one "pop the backtrack stack" site; checks
	// running under a stack-disciplined trace (no concrete backtrack
	// label) jump here on failure.
	sink asm.Label

	depth int

	unicode bool
}

type workItem struct {
	node  graph.Node
	label asm.Label
}

// New returns an Emitter targeting m for subjects of the given code-unit
// width.
func New(m asm.MacroAssembler, mode asm.Mode, unicode bool) *Emitter {
	return &Emitter{
		m:       m,
		mode:    mode,
		unicode: unicode,
		labels:  map[*graph.Base]asm.Label{},
		emitted: map[*graph.Base]bool{},
	}
}

// Run emits root and everything reachable from it, draining the worklist
// of jump targets queued by LimitVersions until empty. backtrack is the
// caller's failure sink: a label it binds to a bare backtrack op after
// Run returns, so an exhausted backtrack stack reads as "no match".
func (e *Emitter) Run(root graph.Node, backtrack asm.Label, flushBudget int) error {
	e.sink = backtrack
	tr := trace.New(nil, flushBudget)
	if err := e.emit(root, tr); err != nil {
		return err
	}
	for len(e.worklist) > 0 {
		item := e.worklist[len(e.worklist)-1]
		e.worklist = e.worklist[:len(e.worklist)-1]
		base := baseOf(item.node)
		if base != nil && e.emitted[base] {
			continue
		}
		e.m.Bind(item.label)
		if base != nil {
			e.labels[base] = item.label
			e.emitted[base] = true
			base.OnWorkList = false
		}
		fresh := trace.New(nil, flushBudget)
		if err := e.dispatch(item.node, fresh); err != nil {
			return err
		}
	}
	return nil
}

// isCaptureRegister reports whether reg is one of capture-0's two
// reserved slots, always IGNORE on trace.Flush's undo path.
func isCaptureRegister(reg int) bool { return reg == 0 || reg == 1 }

// failTarget is where a failed check under tr jumps: the trace's concrete
// backtrack label when it has one, else the shared backtrack sink.
func (e *Emitter) failTarget(tr *trace.Trace) asm.Label {
	if tr.BacktrackLabel != nil {
		return tr.BacktrackLabel
	}
	return e.sink
}

// emit is the LimitVersions entry point every node passes through before
// its variant-specific emission logic runs.
func (e *Emitter) emit(n graph.Node, tr *trace.Trace) error {
	if n == nil {
		return nil
	}
	if _, ok := n.(*graph.NullNode); ok {
		if tr.BacktrackLabel != nil {
			e.m.GoTo(tr.BacktrackLabel)
		} else {
			e.m.Backtrack()
		}
		return nil
	}

	if lc, ok := n.(*graph.LoopChoiceNode); ok {
		if tr.StopNode == graph.Node(lc) {
			// Back edge of the greedy-loop fast path: the body advanced by a
			// fixed amount, so materialize just the position delta and jump
			// straight back to the loop head.
			e.m.AdvanceCurrentPosition(tr.CPOffset)
			e.m.GoTo(tr.LoopLabel)
			return nil
		}
		if !tr.IsTrivial() {
			// Loop heads never get specialized copies: flush so the one
			// canonical copy's backtracking stays position-exact.
			tr = tr.Flush(e.m, isCaptureRegister)
		}
	}

	base := baseOf(n)
	if base == nil {
		return e.dispatch(n, tr)
	}

	if tr.IsTrivial() {
		if e.emitted[base] || base.OnWorkList || e.depth >= maxRecursionDepth {
			l := e.labelFor(base)
			e.m.GoTo(l)
			if !e.emitted[base] && !base.OnWorkList {
				base.OnWorkList = true
				e.worklist = append(e.worklist, workItem{n, l})
			}
			return nil
		}
		// First trivial-trace arrival: this becomes the node's one
		// canonical, shared copy, so bind its label here before emitting.
		l := e.labelFor(base)
		e.m.Bind(l)
		e.emitted[base] = true
		return e.dispatch(n, tr)
	}

	// Non-trivial trace: every arrival up to MaxCopiesCodeGenerated gets its
	// own specialized inline copy (none of them touch e.emitted, which
	// tracks only the canonical shared copy used by the trivial-trace jump
	// path above).
	if base.TraceCount < graph.MaxCopiesCodeGenerated {
		base.TraceCount++
		return e.dispatch(n, tr)
	}

	flushed := tr.Flush(e.m, isCaptureRegister)
	return e.emit(n, flushed)
}

// dispatch runs the variant-specific emission logic, bounding recursion
// depth. Unlike emit, it never consults or updates e.emitted — callers
// decide when a copy counts as "the" canonical one.
func (e *Emitter) dispatch(n graph.Node, tr *trace.Trace) error {
	if e.depth >= maxRecursionDepth {
		return errRecursionLimit
	}
	e.depth++
	defer func() { e.depth-- }()

	switch v := n.(type) {
	case *graph.TextNode:
		return e.emitText(v, tr)
	case *graph.LoopChoiceNode:
		return e.emitLoopChoice(v, tr)
	case *graph.NegativeLookaroundChoiceNode:
		return e.emitNegativeLookaround(v, tr)
	case *graph.ChoiceNode:
		return e.emitChoice(v, tr)
	case *graph.ActionNode:
		return e.emitAction(v, tr)
	case *graph.AssertionNode:
		return e.emitAssertion(v, tr)
	case *graph.BackReferenceNode:
		return e.emitBackReference(v, tr)
	case *graph.EndNode:
		return e.emitEnd(v, tr)
	default:
		return nil
	}
}

func (e *Emitter) labelFor(base *graph.Base) asm.Label {
	if l, ok := e.labels[base]; ok {
		return l
	}
	l := e.m.NewLabel()
	e.labels[base] = l
	return l
}

func baseOf(n graph.Node) *graph.Base {
	switch v := n.(type) {
	case *graph.TextNode:
		return &v.Base
	case *graph.ChoiceNode:
		return &v.Base
	case *graph.LoopChoiceNode:
		return &v.Base
	case *graph.NegativeLookaroundChoiceNode:
		return &v.Base
	case *graph.ActionNode:
		return &v.Base
	case *graph.AssertionNode:
		return &v.Base
	case *graph.BackReferenceNode:
		return &v.Base
	case *graph.EndNode:
		return &v.Base
	case *graph.NullNode:
		return &v.Base
	default:
		return nil
	}
}

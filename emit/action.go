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
	"github.com/relang/rex/trace"
)

// emitAction either defers the action onto the trace (register edits,
// which need not be materialized until a flush point) or executes it
// immediately (submatch bookkeeping, which has side effects the trace
// model doesn't represent) before continuing to OnSuccess.
func (e *Emitter) emitAction(n *graph.ActionNode, tr *trace.Trace) error {
	switch n.Kind {
	case graph.SetRegister:
		next := tr.Fork()
		next.Defer(trace.DeferredAction{Kind: trace.SetRegister, Register: n.Register, Value: n.Value})
		return e.emit(n.OnSuccess, next)

	case graph.IncrementRegister:
		next := tr.Fork()
		next.Defer(trace.DeferredAction{Kind: trace.IncrementRegister, Register: n.Register, Value: n.Value})
		return e.emit(n.OnSuccess, next)

	case graph.StorePosition:
		next := tr.Fork()
		next.Defer(trace.DeferredAction{Kind: trace.StorePosition, Register: n.Register, CPOffset: tr.CPOffset})
		return e.emit(n.OnSuccess, next)

	case graph.ClearCaptures:
		next := tr.Fork()
		next.Defer(trace.DeferredAction{Kind: trace.ClearCaptures, RangeFrom: n.RangeFrom, RangeTo: n.RangeTo})
		return e.emit(n.OnSuccess, next)

	case graph.BeginSubmatch:
		flushed := tr.Flush(e.m, isCaptureRegister)
		e.m.WriteStackPointerToRegister(n.StackRegister)
		e.m.WriteCurrentPositionToRegister(n.PositionRegister, flushed.CPOffset)
		return e.emit(n.OnSuccess, flushed)

	case graph.PositiveSubmatchSuccess:
		flushed := tr.Flush(e.m, isCaptureRegister)
		e.m.ReadStackPointerFromRegister(n.StackRegister)
		e.m.ReadCurrentPositionFromRegister(n.PositionRegister)
		return e.emit(n.OnSuccess, flushed)

	case graph.EmptyMatchCheck:
		return e.emitEmptyMatchCheck(n, tr)

	default:
		return e.emit(n.OnSuccess, tr)
	}
}

// emitEmptyMatchCheck compiles to: if the current position hasn't moved
// since the loop body's start register and the repetition counter has
// already reached its minimum, backtrack instead of looping again forever
// on a zero-length match.
func (e *Emitter) emitEmptyMatchCheck(n *graph.ActionNode, tr *trace.Trace) error {
	flushed := tr.Flush(e.m, isCaptureRegister)
	proceed := e.m.NewLabel()
	noProgress := e.m.NewLabel()
	e.m.IfRegisterEqPosition(n.StartRegister, noProgress)
	e.m.GoTo(proceed) // position moved since the loop started: always safe.

	e.m.Bind(noProgress)
	if n.RepetitionRegister >= 0 {
		// No progress: looping again only helps if the minimum repeat
		// count hasn't been met yet, rather than being enforced via a
		// mandatory Min-copy prefix.
		e.m.IfRegisterLT(n.RepetitionRegister, n.Limit, proceed)
	}
	e.m.Backtrack()
	e.m.Bind(proceed)
	return e.emit(n.OnSuccess, flushed)
}

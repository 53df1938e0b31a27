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

// emitEnd materializes any still-deferred register edits (Accept needs the
// capture-0 end register, stored by an ActionNode before reaching here, to
// actually have landed) and terminates the current specialization.
func (e *Emitter) emitEnd(n *graph.EndNode, tr *trace.Trace) error {
	switch n.Kind {
	case graph.Accept:
		tr.Flush(e.m, isCaptureRegister)
		e.m.Succeed()
	case graph.Backtrack:
		flushed := tr.Flush(e.m, isCaptureRegister)
		if flushed.BacktrackLabel != nil {
			e.m.GoTo(flushed.BacktrackLabel)
		} else {
			e.m.Backtrack()
		}
	case graph.NegativeSubmatchSuccess:
		// The lookaround body matched, so the negative assertion as a whole
		// fails. The trace's deferred state is discarded wholesale rather
		// than flushed: restore the entry position, unwind the submatch
		// stack back to the pointer recorded at the lookaround's entry —
		// leaving the failure address pushed there on top — and backtrack
		// into it.
		e.m.ReadCurrentPositionFromRegister(n.PositionRegister)
		e.m.ReadStackPointerFromRegister(n.StackRegister)
		e.m.Backtrack()
	}
	return nil
}

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
	"github.com/relang/rex/graph"
	"github.com/relang/rex/trace"
)

// emitBackReference emits a direct check-not-backreference op, plus for a
// two-byte unicode subject an extra test that the match doesn't end
// inside a surrogate pair.
func (e *Emitter) emitBackReference(n *graph.BackReferenceNode, tr *trace.Trace) error {
	flushed := tr.Flush(e.m, isCaptureRegister)
	fail := e.failTarget(flushed)

	if n.Flags.IgnoreCase {
		e.m.CheckNotBackReferenceIgnoreCase(n.StartRegister, n.ReadBackward, n.Flags.Unicode, fail)
	} else {
		e.m.CheckNotBackReference(n.StartRegister, n.ReadBackward, fail)
	}

	if e.mode == asm.TwoByte && e.unicode {
		e.m.CheckNotInSurrogatePair(flushed.CPOffset, fail)
	}

	return e.emit(n.OnSuccess, flushed)
}

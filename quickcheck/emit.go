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

package quickcheck

import "github.com/relang/rex/asm"

// Emit loads each constrained position (relative to cpOffset, the trace's
// virtual offset at the choice) and emits its masked compare, branching to
// fail as soon as any pair is violated. The highest constrained position
// loads first with a bounds check, so the one check covers the rest.
// Falling through means *possible* success only; the caller must still
// emit the full check for positions without Determined set.
func Emit(m asm.MacroAssembler, d Details, cpOffset int, fail asm.Label) {
	last := -1
	for i := 0; i < d.Chars; i++ {
		if d.Mask[i] != 0 {
			last = i
		}
	}
	if last < 0 {
		return
	}
	for i := last; i >= 0; i-- {
		if d.Mask[i] == 0 {
			continue
		}
		m.LoadCurrentCharacter(cpOffset+i, fail, i == last, 1)
		ok := m.NewLabel()
		m.CheckCharacterAfterAnd(d.Value[i], d.Mask[i], ok)
		m.GoTo(fail)
		m.Bind(ok)
	}
}

// Generated reports whether Emit would produce any test at all for d.
func Generated(d Details) bool {
	for i := 0; i < d.Chars; i++ {
		if d.Mask[i] != 0 {
			return true
		}
	}
	return false
}

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

package bytecode

import (
	"testing"

	"github.com/relang/rex/asm"
)

func TestBindPatchesForwardJump(t *testing.T) {
	a := New(asm.OneByte)
	l := a.NewLabel()
	a.GoTo(l)
	a.CheckCharacter('x', l)
	a.Bind(l)
	a.emit(Insn{Op: OpSucceed})

	for i, in := range a.insns {
		if in.Op == OpGoto || in.Op == OpCheckCharacter {
			if in.Target != 2 {
				t.Fatalf("insn %d: Target = %d, want 2", i, in.Target)
			}
		}
	}
}

func TestGetCodeAfterAbortFails(t *testing.T) {
	a := New(asm.OneByte)
	a.AbortCodeGeneration()
	if _, err := a.GetCode("x"); err == nil {
		t.Fatal("expected error after AbortCodeGeneration")
	}
}

func TestMaxRegisterTracksHighestUsed(t *testing.T) {
	a := New(asm.OneByte)
	a.SetRegister(5, 0)
	a.PushRegister(2, false)
	code, err := a.GetCode("x")
	if err != nil {
		t.Fatal(err)
	}
	p := code.(*Program)
	if p.MaxRegister != 6 {
		t.Fatalf("MaxRegister = %d, want 6", p.MaxRegister)
	}
}

func TestBytesRoundTripsLength(t *testing.T) {
	a := New(asm.OneByte)
	a.SetRegister(0, 1)
	a.Backtrack()
	code, _ := a.GetCode("abc")
	b := code.Bytes()
	if len(b) == 0 {
		t.Fatal("Bytes() returned empty slice for non-empty program")
	}
}

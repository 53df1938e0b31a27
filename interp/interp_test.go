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

package interp

import (
	"testing"

	"github.com/relang/rex/asm"
	"github.com/relang/rex/asm/bytecode"
)

// buildLiteralAB assembles a tiny hand-written program matching the
// literal "ab" at the current position, without going through the full
// compiler pipeline — enough to exercise the interpreter's dispatch loop
// in isolation.
func buildLiteralAB() *bytecode.Program {
	a := bytecode.New(asm.OneByte)
	fail := a.NewLabel()
	a.LoadCurrentCharacter(0, fail, true, 1)
	a.CheckNotCharacter('a', fail)
	a.LoadCurrentCharacter(1, fail, true, 1)
	a.CheckNotCharacter('b', fail)
	a.Succeed()
	a.Bind(fail)
	a.Backtrack()
	code, err := a.GetCode("ab")
	if err != nil {
		panic(err)
	}
	return code.(*bytecode.Program)
}

func TestRunMatchesLiteral(t *testing.T) {
	p := buildLiteralAB()
	ok, err := Run(p, Subject{OneByte: []byte("xaby")}, 1, make([]int, p.MaxRegister))
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected match at offset 1")
	}
}

func TestRunRejectsMismatch(t *testing.T) {
	p := buildLiteralAB()
	ok, err := Run(p, Subject{OneByte: []byte("xxxx")}, 0, make([]int, p.MaxRegister))
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected no match")
	}
}

func TestRunOutOfBoundsFails(t *testing.T) {
	p := buildLiteralAB()
	ok, err := Run(p, Subject{OneByte: []byte("a")}, 0, make([]int, p.MaxRegister))
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected no match on truncated subject")
	}
}

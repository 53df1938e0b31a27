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

// Package bytecode is the one concrete asm.MacroAssembler backend this
// module ships: a portable opcode stream run by package interp. It plays
// the role an architecture-specific backend would — except, being pure
// Go with no native code generation, it needs no platform-specific
// support at all.
package bytecode

// Op is a single bytecode opcode.
type Op byte

const (
	OpGoto Op = iota
	OpPushBacktrack
	OpBacktrack
	OpPushRegister
	OpPopRegister
	OpClearRegisters
	OpSetRegister
	OpAdvanceRegister
	OpWriteCPToRegister
	OpReadCPFromRegister
	OpWriteSPToRegister
	OpReadSPFromRegister
	OpIfRegisterLT
	OpIfRegisterGE
	OpIfRegisterEqPosition
	OpAdvanceCP
	OpPushCP
	OpPopCP
	OpCheckGreedyLoop
	OpCheckAtStart
	OpCheckNotAtStart
	OpCheckPosition
	OpLoadCurrentChar
	OpCheckCharacter
	OpCheckNotCharacter
	OpCheckCharacterAfterAnd
	OpCheckCharacterInRange
	OpCheckCharacterGT
	OpCheckCharacterLT
	OpCheckBitInTable
	OpCheckSpecialClass
	OpCheckNotBackReference
	OpCheckNotBackReferenceIC
	OpCheckNotInSurrogatePair
	OpFail
	OpSucceed
)

// Insn is one decoded bytecode instruction. Only the fields relevant to Op
// are meaningful; the rest are zero. A flat struct (rather than a tagged
// union) keeps the interpreter's dispatch loop a plain switch.
type Insn struct {
	Op Op

	Reg, Reg2  int
	Value      int64
	CPOffset   int
	CheckBounds bool
	Count      int

	Target int // resolved instruction index for jumps/backtrack pushes

	Table   [16]byte // 128-bit table for CheckBitInTable
	Class   int      // asm.SpecialClass

	Backward bool
	Unicode  bool
	IgnoreCase bool
}

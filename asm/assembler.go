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

// Package asm declares the abstract macro-assembler capability set the
// emitter programs against. Architecture-specific backends are out of
// scope for this package; it only fixes the interface and a couple of
// mode enums shared by every backend. The one concrete backend shipped
// in this module is asm/bytecode, a portable opcode-stream assembler
// consumed by package interp.
package asm

// Mode selects the subject's code-unit width.
type Mode int

const (
	OneByte Mode = iota
	TwoByte
)

// GlobalMode selects global-iteration behavior.
type GlobalMode int

const (
	NotGlobal GlobalMode = iota
	Global
	GlobalNoZeroLengthCheck
	GlobalUnicode
)

// Label is an opaque, backend-owned jump target. Each backend defines its
// own concrete type; the emitter only ever stores and passes around
// whatever NewLabel returns.
type Label interface{}

// MacroAssembler is the full operation set the emitter drives. Every
// method is side-effecting on the assembler's internal code buffer;
// none block.
type MacroAssembler interface {
	// Labels and control flow.
	NewLabel() Label
	Bind(l Label)
	GoTo(l Label)
	PushBacktrack(l Label)
	Backtrack()

	// Register file.
	PushRegister(reg int, stackCheck bool)
	PopRegister(reg int)
	ClearRegisters(from, to int)
	SetRegister(reg, value int)
	AdvanceRegister(reg, delta int)
	WriteCurrentPositionToRegister(reg, cpOffset int)
	ReadCurrentPositionFromRegister(reg int)
	WriteStackPointerToRegister(reg int)
	ReadStackPointerFromRegister(reg int)
	IfRegisterLT(reg, value int, l Label)
	IfRegisterGE(reg, value int, l Label)
	IfRegisterEqPosition(reg int, l Label)

	// Position. CheckGreedyLoop pops the top of the backtrack stack and
	// jumps to l only when it equals the current position; otherwise the
	// entry stays put and execution falls through.
	AdvanceCurrentPosition(delta int)
	PushCurrentPosition()
	PopCurrentPosition()
	CheckGreedyLoop(l Label)
	CheckAtStart(l Label)
	CheckNotAtStart(cpOffset int, l Label)
	CheckPosition(cpOffset int, l Label)

	// Character tests over the most recently loaded character. Check*
	// jumps to l when its predicate holds (CheckNotCharacter on mismatch,
	// CheckBitInTable when the character's bit is set); an out-of-bounds
	// load jumps to onOOB. CheckSpecialCharacterClass jumps on NO match
	// and reports false when the backend has no dedicated op for kind.
	LoadCurrentCharacter(cpOffset int, onOOB Label, checkBounds bool, count int)
	CheckCharacter(c uint32, l Label)
	CheckNotCharacter(c uint32, l Label)
	CheckCharacterAfterAnd(value, mask uint32, l Label)
	CheckCharacterInRange(from, to uint32, l Label)
	CheckCharacterGT(c uint32, l Label)
	CheckCharacterLT(c uint32, l Label)
	CheckBitInTable(table [16]byte, l Label)
	CheckSpecialCharacterClass(kind SpecialClass, l Label) bool

	// Back-references.
	CheckNotBackReference(start int, backward bool, l Label)
	CheckNotBackReferenceIgnoreCase(start int, backward, unicode bool, l Label)
	CheckNotInSurrogatePair(cpOffset int, l Label)

	// Capability queries.
	StackLimitSlack() int
	CanReadUnaligned() bool
	MaxRegister() int
	TableSize() int
	TableMask() int

	// Termination.
	Succeed()

	// Finalization.
	GetCode(pattern string) (Code, error)
	AbortCodeGeneration()
}

// SpecialClass names a character class the assembler may special-case
// (e.g. `\s`, `\w`, `\d`); CheckSpecialCharacterClass returns false when
// the backend has no dedicated op for it, and the emitter falls back to a
// general range check.
type SpecialClass int

const (
	ClassWhitespace SpecialClass = iota
	ClassWord
	ClassDigit
)

// Code is the opaque compiled-program artifact returned by GetCode.
type Code interface {
	// Bytes is the backend's own serialization, for caching/snapshotting.
	Bytes() []byte
}

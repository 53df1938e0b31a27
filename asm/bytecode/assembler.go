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
	"github.com/relang/rex/asm"
)

// label is the concrete Label this backend hands back from NewLabel. It
// mirrors the Unbound/Linked/Bound states of graph.Label: unbound labels
// accumulate fixup sites until Bind resolves them to an instruction
// index.
type label struct {
	pos    int // -1 until bound
	fixups []int
}

func newLabel() *label { return &label{pos: -1} }

// Assembler is the concrete asm.MacroAssembler backend: it appends Insns
// to a flat slice and patches jump targets on Bind.
type Assembler struct {
	insns    []Insn
	maxReg   int
	aborted  bool
	mode     asm.Mode
}

// New returns an Assembler for the given code-unit width.
func New(mode asm.Mode) *Assembler {
	return &Assembler{mode: mode}
}

func (a *Assembler) emit(i Insn) int {
	a.insns = append(a.insns, i)
	return len(a.insns) - 1
}

func toLabel(l asm.Label) *label {
	lb, ok := l.(*label)
	if !ok || lb == nil {
		panic("bytecode: Label not produced by this assembler")
	}
	return lb
}

// link records a fixup at instruction idx for lb, or resolves immediately
// if lb is already bound.
func (a *Assembler) link(lb *label, idx int) {
	if lb.pos >= 0 {
		a.insns[idx].Target = lb.pos
		return
	}
	lb.fixups = append(lb.fixups, idx)
}

func (a *Assembler) NewLabel() asm.Label { return newLabel() }

func (a *Assembler) Bind(l asm.Label) {
	lb := toLabel(l)
	lb.pos = len(a.insns)
	for _, idx := range lb.fixups {
		a.insns[idx].Target = lb.pos
	}
	lb.fixups = nil
}

func (a *Assembler) GoTo(l asm.Label) {
	idx := a.emit(Insn{Op: OpGoto})
	a.link(toLabel(l), idx)
}

func (a *Assembler) PushBacktrack(l asm.Label) {
	idx := a.emit(Insn{Op: OpPushBacktrack})
	a.link(toLabel(l), idx)
}

func (a *Assembler) Backtrack() { a.emit(Insn{Op: OpBacktrack}) }

func (a *Assembler) PushRegister(reg int, stackCheck bool) {
	a.trackReg(reg)
	a.emit(Insn{Op: OpPushRegister, Reg: reg, CheckBounds: stackCheck})
}

func (a *Assembler) PopRegister(reg int) {
	a.trackReg(reg)
	a.emit(Insn{Op: OpPopRegister, Reg: reg})
}

func (a *Assembler) ClearRegisters(from, to int) {
	a.trackReg(to)
	a.emit(Insn{Op: OpClearRegisters, Reg: from, Reg2: to})
}

func (a *Assembler) SetRegister(reg, value int) {
	a.trackReg(reg)
	a.emit(Insn{Op: OpSetRegister, Reg: reg, Value: int64(value)})
}

func (a *Assembler) AdvanceRegister(reg, delta int) {
	a.trackReg(reg)
	a.emit(Insn{Op: OpAdvanceRegister, Reg: reg, Value: int64(delta)})
}

func (a *Assembler) WriteCurrentPositionToRegister(reg, cpOffset int) {
	a.trackReg(reg)
	a.emit(Insn{Op: OpWriteCPToRegister, Reg: reg, CPOffset: cpOffset})
}

func (a *Assembler) ReadCurrentPositionFromRegister(reg int) {
	a.trackReg(reg)
	a.emit(Insn{Op: OpReadCPFromRegister, Reg: reg})
}

func (a *Assembler) WriteStackPointerToRegister(reg int) {
	a.trackReg(reg)
	a.emit(Insn{Op: OpWriteSPToRegister, Reg: reg})
}

func (a *Assembler) ReadStackPointerFromRegister(reg int) {
	a.trackReg(reg)
	a.emit(Insn{Op: OpReadSPFromRegister, Reg: reg})
}

func (a *Assembler) IfRegisterLT(reg, value int, l asm.Label) {
	a.trackReg(reg)
	idx := a.emit(Insn{Op: OpIfRegisterLT, Reg: reg, Value: int64(value)})
	a.link(toLabel(l), idx)
}

func (a *Assembler) IfRegisterGE(reg, value int, l asm.Label) {
	a.trackReg(reg)
	idx := a.emit(Insn{Op: OpIfRegisterGE, Reg: reg, Value: int64(value)})
	a.link(toLabel(l), idx)
}

func (a *Assembler) IfRegisterEqPosition(reg int, l asm.Label) {
	a.trackReg(reg)
	idx := a.emit(Insn{Op: OpIfRegisterEqPosition, Reg: reg})
	a.link(toLabel(l), idx)
}

func (a *Assembler) AdvanceCurrentPosition(delta int) {
	a.emit(Insn{Op: OpAdvanceCP, Value: int64(delta)})
}

func (a *Assembler) PushCurrentPosition() { a.emit(Insn{Op: OpPushCP}) }
func (a *Assembler) PopCurrentPosition()  { a.emit(Insn{Op: OpPopCP}) }

func (a *Assembler) CheckGreedyLoop(l asm.Label) {
	idx := a.emit(Insn{Op: OpCheckGreedyLoop})
	a.link(toLabel(l), idx)
}

func (a *Assembler) CheckAtStart(l asm.Label) {
	idx := a.emit(Insn{Op: OpCheckAtStart})
	a.link(toLabel(l), idx)
}

func (a *Assembler) CheckNotAtStart(cpOffset int, l asm.Label) {
	idx := a.emit(Insn{Op: OpCheckNotAtStart, CPOffset: cpOffset})
	a.link(toLabel(l), idx)
}

func (a *Assembler) CheckPosition(cpOffset int, l asm.Label) {
	idx := a.emit(Insn{Op: OpCheckPosition, CPOffset: cpOffset})
	a.link(toLabel(l), idx)
}

func (a *Assembler) LoadCurrentCharacter(cpOffset int, onOOB asm.Label, checkBounds bool, count int) {
	idx := a.emit(Insn{Op: OpLoadCurrentChar, CPOffset: cpOffset, CheckBounds: checkBounds, Count: count})
	if onOOB != nil {
		a.link(toLabel(onOOB), idx)
	}
}

func (a *Assembler) CheckCharacter(c uint32, l asm.Label) {
	idx := a.emit(Insn{Op: OpCheckCharacter, Value: int64(c)})
	a.link(toLabel(l), idx)
}

func (a *Assembler) CheckNotCharacter(c uint32, l asm.Label) {
	idx := a.emit(Insn{Op: OpCheckNotCharacter, Value: int64(c)})
	a.link(toLabel(l), idx)
}

func (a *Assembler) CheckCharacterAfterAnd(value, mask uint32, l asm.Label) {
	idx := a.emit(Insn{Op: OpCheckCharacterAfterAnd, Value: int64(value), Reg: int(mask)})
	a.link(toLabel(l), idx)
}

func (a *Assembler) CheckCharacterInRange(from, to uint32, l asm.Label) {
	idx := a.emit(Insn{Op: OpCheckCharacterInRange, Value: int64(from), Reg: int(to)})
	a.link(toLabel(l), idx)
}

func (a *Assembler) CheckCharacterGT(c uint32, l asm.Label) {
	idx := a.emit(Insn{Op: OpCheckCharacterGT, Value: int64(c)})
	a.link(toLabel(l), idx)
}

func (a *Assembler) CheckCharacterLT(c uint32, l asm.Label) {
	idx := a.emit(Insn{Op: OpCheckCharacterLT, Value: int64(c)})
	a.link(toLabel(l), idx)
}

func (a *Assembler) CheckBitInTable(table [16]byte, l asm.Label) {
	idx := a.emit(Insn{Op: OpCheckBitInTable, Table: table})
	a.link(toLabel(l), idx)
}

func (a *Assembler) CheckSpecialCharacterClass(kind asm.SpecialClass, l asm.Label) bool {
	idx := a.emit(Insn{Op: OpCheckSpecialClass, Class: int(kind)})
	a.link(toLabel(l), idx)
	return true
}

func (a *Assembler) CheckNotBackReference(start int, backward bool, l asm.Label) {
	a.trackReg(start)
	idx := a.emit(Insn{Op: OpCheckNotBackReference, Reg: start, Backward: backward})
	a.link(toLabel(l), idx)
}

func (a *Assembler) CheckNotBackReferenceIgnoreCase(start int, backward, unicode bool, l asm.Label) {
	a.trackReg(start)
	idx := a.emit(Insn{Op: OpCheckNotBackReferenceIC, Reg: start, Backward: backward, Unicode: unicode})
	a.link(toLabel(l), idx)
}

func (a *Assembler) CheckNotInSurrogatePair(cpOffset int, l asm.Label) {
	idx := a.emit(Insn{Op: OpCheckNotInSurrogatePair, CPOffset: cpOffset})
	a.link(toLabel(l), idx)
}

func (a *Assembler) Succeed() { a.emit(Insn{Op: OpSucceed}) }

func (a *Assembler) StackLimitSlack() int { return 64 }
func (a *Assembler) CanReadUnaligned() bool { return true }
func (a *Assembler) MaxRegister() int { return 1 << 20 }
func (a *Assembler) TableSize() int { return 128 }
func (a *Assembler) TableMask() int { return 0x7F }

func (a *Assembler) GetCode(pattern string) (asm.Code, error) {
	if a.aborted {
		return nil, errAborted
	}
	insns := make([]Insn, len(a.insns))
	copy(insns, a.insns)
	return &Program{
		Pattern:       pattern,
		Insns:         insns,
		Mode:          a.mode,
		MaxRegister:   a.maxReg + 1,
	}, nil
}

func (a *Assembler) AbortCodeGeneration() { a.aborted = true }

func (a *Assembler) trackReg(reg int) {
	if reg > a.maxReg {
		a.maxReg = reg
	}
}

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

// Package interp runs a bytecode.Program over a subject, the pure-Go
// execution engine this module ships in place of architecture-specific
// native code generation.
package interp

import (
	"errors"

	"github.com/relang/rex/asm"
	"github.com/relang/rex/asm/bytecode"
)

// ErrRegisterOverflow is returned when a pattern needs more registers
// than the caller provided room for.
var ErrRegisterOverflow = errors.New("interp: register count exceeds buffer")

// Subject is the flattened input the interpreter scans: exactly one of
// OneByte/TwoByte is populated, matching the mode the program was
// assembled for.
type Subject struct {
	OneByte []byte
	TwoByte []uint16
}

// Len returns the subject's length in code units.
func (s Subject) Len() int {
	if s.TwoByte != nil {
		return len(s.TwoByte)
	}
	return len(s.OneByte)
}

// At returns the code unit at i and whether i was in range.
func (s Subject) At(i int) (uint32, bool) {
	if s.TwoByte != nil {
		if i < 0 || i >= len(s.TwoByte) {
			return 0, false
		}
		return uint32(s.TwoByte[i]), true
	}
	if i < 0 || i >= len(s.OneByte) {
		return 0, false
	}
	return uint32(s.OneByte[i]), true
}

// Run executes p against subject starting at cp, using registers as the
// register file (must have at least p.MaxRegister slots). It returns
// whether the program reached OpSucceed, leaving capture registers
// populated on success.
func Run(p *bytecode.Program, subject Subject, cp int, registers []int) (bool, error) {
	if len(registers) < p.MaxRegister {
		return false, ErrRegisterOverflow
	}

	var stack []int64
	var current [4]uint32
	loaded := 0

	pop := func() (int64, bool) {
		if len(stack) == 0 {
			return 0, false
		}
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v, true
	}

	pc := 0
	for {
		if pc < 0 || pc >= len(p.Insns) {
			return false, nil
		}
		in := p.Insns[pc]

		switch in.Op {
		case bytecode.OpGoto:
			pc = in.Target
			continue

		case bytecode.OpPushBacktrack:
			stack = append(stack, int64(in.Target))
			pc++

		case bytecode.OpBacktrack:
			target, ok := pop()
			if !ok {
				return false, nil
			}
			pc = int(target)
			continue

		case bytecode.OpPushRegister:
			stack = append(stack, int64(registers[in.Reg]))
			pc++

		case bytecode.OpPopRegister:
			v, ok := pop()
			if ok {
				registers[in.Reg] = int(v)
			}
			pc++

		case bytecode.OpClearRegisters:
			for r := in.Reg; r <= in.Reg2; r++ {
				registers[r] = -1
			}
			pc++

		case bytecode.OpSetRegister:
			registers[in.Reg] = int(in.Value)
			pc++

		case bytecode.OpAdvanceRegister:
			registers[in.Reg] += int(in.Value)
			pc++

		case bytecode.OpWriteCPToRegister:
			registers[in.Reg] = cp + in.CPOffset
			pc++

		case bytecode.OpReadCPFromRegister:
			cp = registers[in.Reg]
			pc++

		case bytecode.OpWriteSPToRegister:
			registers[in.Reg] = len(stack)
			pc++

		case bytecode.OpReadSPFromRegister:
			sp := registers[in.Reg]
			if sp >= 0 && sp <= len(stack) {
				stack = stack[:sp]
			}
			pc++

		case bytecode.OpIfRegisterLT:
			if registers[in.Reg] < int(in.Value) {
				pc = in.Target
				continue
			}
			pc++

		case bytecode.OpIfRegisterGE:
			if registers[in.Reg] >= int(in.Value) {
				pc = in.Target
				continue
			}
			pc++

		case bytecode.OpIfRegisterEqPosition:
			if registers[in.Reg] == cp {
				pc = in.Target
				continue
			}
			pc++

		case bytecode.OpAdvanceCP:
			cp += int(in.Value)
			pc++

		case bytecode.OpPushCP:
			stack = append(stack, int64(cp))
			pc++

		case bytecode.OpPopCP:
			v, ok := pop()
			if ok {
				cp = int(v)
			}
			pc++

		case bytecode.OpCheckGreedyLoop:
			// Pop-and-jump only when the saved loop entry position equals the
			// current one (no iterations left to give back); otherwise the
			// entry stays for the next retry.
			if len(stack) > 0 && int(stack[len(stack)-1]) == cp {
				stack = stack[:len(stack)-1]
				pc = in.Target
				continue
			}
			pc++

		case bytecode.OpCheckAtStart:
			if cp == 0 {
				pc = in.Target
				continue
			}
			pc++

		case bytecode.OpCheckNotAtStart:
			if cp+in.CPOffset != 0 {
				pc = in.Target
				continue
			}
			pc++

		case bytecode.OpCheckPosition:
			if cp+in.CPOffset < subject.Len() {
				pc = in.Target
				continue
			}
			pc++

		case bytecode.OpLoadCurrentChar:
			ok := true
			for i := 0; i < in.Count; i++ {
				c, inBounds := subject.At(cp + in.CPOffset + i)
				if !inBounds {
					ok = false
					break
				}
				current[i] = c
			}
			loaded = in.Count
			if !ok {
				pc = in.Target
				continue
			}
			pc++

		case bytecode.OpCheckCharacter:
			if loaded > 0 && current[0] == uint32(in.Value) {
				pc = in.Target
				continue
			}
			pc++

		case bytecode.OpCheckNotCharacter:
			if loaded == 0 || current[0] != uint32(in.Value) {
				pc = in.Target
				continue
			}
			pc++

		case bytecode.OpCheckCharacterAfterAnd:
			if loaded > 0 && (current[0]&uint32(in.Reg)) == uint32(in.Value) {
				pc = in.Target
				continue
			}
			pc++

		case bytecode.OpCheckCharacterInRange:
			if loaded > 0 && current[0] >= uint32(in.Value) && current[0] <= uint32(in.Reg) {
				pc = in.Target
				continue
			}
			pc++

		case bytecode.OpCheckCharacterGT:
			if loaded > 0 && current[0] > uint32(in.Value) {
				pc = in.Target
				continue
			}
			pc++

		case bytecode.OpCheckCharacterLT:
			if loaded > 0 && current[0] < uint32(in.Value) {
				pc = in.Target
				continue
			}
			pc++

		case bytecode.OpCheckBitInTable:
			if loaded > 0 && testTable(in.Table, current[0]) {
				pc = in.Target
				continue
			}
			pc++

		case bytecode.OpCheckSpecialClass:
			if loaded == 0 || !testSpecialClass(asm.SpecialClass(in.Class), current[0]) {
				pc = in.Target
				continue
			}
			pc++

		case bytecode.OpCheckNotBackReference:
			if !matchBackReference(subject, registers, in.Reg, in.Backward, false, cp, &cp) {
				pc = in.Target
				continue
			}
			pc++

		case bytecode.OpCheckNotBackReferenceIC:
			if !matchBackReference(subject, registers, in.Reg, in.Backward, true, cp, &cp) {
				pc = in.Target
				continue
			}
			pc++

		case bytecode.OpCheckNotInSurrogatePair:
			if inSurrogatePair(subject, cp+in.CPOffset) {
				pc = in.Target
				continue
			}
			pc++

		case bytecode.OpFail:
			return false, nil

		case bytecode.OpSucceed:
			return true, nil

		default:
			return false, nil
		}
	}
}

func testTable(table [16]byte, c uint32) bool {
	idx := int(c) & 0x7F
	return table[idx/8]&(1<<uint(idx%8)) != 0
}

func testSpecialClass(kind asm.SpecialClass, c uint32) bool {
	switch kind {
	case asm.ClassDigit:
		return c >= '0' && c <= '9'
	case asm.ClassWord:
		return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_'
	case asm.ClassWhitespace:
		switch c {
		case ' ', '\t', '\n', '\r', '\v', '\f':
			return true
		}
		return false
	default:
		return false
	}
}

// matchBackReference compares the captured range [registers[start],
// registers[start+1]) against the subject at cp (or ending at cp when
// backward), advancing *cpOut past the match on success.
func matchBackReference(subject Subject, registers []int, startReg int, backward, ignoreCase bool, cp int, cpOut *int) bool {
	start, end := registers[startReg], registers[startReg+1]
	if start < 0 || end < 0 || end < start {
		return true // unset capture: back-reference to it always "matches" empty.
	}
	n := end - start
	if n == 0 {
		return true
	}
	for i := 0; i < n; i++ {
		var capIdx, subjIdx int
		if backward {
			capIdx = end - 1 - i
			subjIdx = cp - 1 - i
		} else {
			capIdx = start + i
			subjIdx = cp + i
		}
		cc, ok1 := subject.At(capIdx)
		sc, ok2 := subject.At(subjIdx)
		if !ok1 || !ok2 {
			return false
		}
		if cc == sc {
			continue
		}
		if ignoreCase && foldsEqual(cc, sc) {
			continue
		}
		return false
	}
	if backward {
		*cpOut = cp - n
	} else {
		*cpOut = cp + n
	}
	return true
}

func foldsEqual(a, b uint32) bool {
	la, lb := toLower(a), toLower(b)
	return la == lb
}

func toLower(c uint32) uint32 {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

func inSurrogatePair(subject Subject, cp int) bool {
	if cp <= 0 {
		return false
	}
	prev, ok := subject.At(cp - 1)
	if !ok {
		return false
	}
	return prev >= 0xD800 && prev <= 0xDBFF
}

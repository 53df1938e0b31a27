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
	"github.com/relang/rex/charset"
	"github.com/relang/rex/graph"
	"github.com/relang/rex/trace"
)

// textUnit is one code-unit check of a TextNode, flattened out of the
// element list: exactly one of class/atom-char applies.
type textUnit struct {
	off        int // cp offset relative to the real current position
	class      *graph.ClassElement
	ch         uint16
	ignoreCase bool
}

// emitText checks tn one code unit at a time, most distant position
// first, so the single bounds check on that load covers every position
// nearer the current one. Positions a just-performed quick check already
// determined perfectly are skipped.
func (e *Emitter) emitText(tn *graph.TextNode, tr *trace.Trace) error {
	fail := e.failTarget(tr)
	length := tn.Length()

	var units []textUnit
	for _, el := range tn.Elements {
		base := tr.CPOffset + el.CPOffset
		if tn.ReadBackward {
			base = tr.CPOffset - length + el.CPOffset
		}
		if el.Class != nil {
			units = append(units, textUnit{off: base, class: el.Class})
			continue
		}
		for k, c := range el.Atom {
			units = append(units, textUnit{off: base + k, ch: c, ignoreCase: el.IgnoreCase})
		}
	}

	// Most distant first: the last unit for a forward node, the first
	// (most negative offset) for a lookbehind.
	if !tn.ReadBackward {
		for i, j := 0, len(units)-1; i < j; i, j = i+1, j-1 {
			units[i], units[j] = units[j], units[i]
		}
	}

	first := true
	for _, u := range units {
		if !tn.ReadBackward && tr.QuickCheckPerformed != nil {
			rel := u.off - tr.QuickCheckBase
			if rel >= 0 && rel < tr.QuickCheckPerformed.Chars && tr.QuickCheckPerformed.Determined[rel] {
				continue
			}
		}
		e.m.LoadCurrentCharacter(u.off, fail, first, 1)
		first = false
		if u.class != nil {
			e.emitClassCheck(u.class, fail)
			continue
		}
		if u.ignoreCase {
			e.emitIgnoreCaseCheck(u.ch, fail)
		} else {
			e.m.CheckNotCharacter(uint32(u.ch), fail)
		}
	}

	next := tr.Fork()
	if tn.ReadBackward {
		next.CPOffset -= length
	} else {
		next.CPOffset += length
	}
	next.CharactersPreloaded = 0
	next.QuickCheckPerformed = nil
	return e.emit(tn.OnSuccess, next)
}

// emitClassCheck tests the loaded character against c's ranges. On a
// one-byte subject whose accept set fits under the 128-entry table it
// folds to a single bit test; otherwise it falls back to a chain of range
// compares, failing on the complement so the shared backtrack target
// stays correct for both polarities.
func (e *Emitter) emitClassCheck(c *graph.ClassElement, fail asm.Label) {
	maxChar := rune(charset.MaxCodePoint)
	if e.mode == asm.OneByte {
		maxChar = charset.MaxOneByteChar
	}
	ranges := c.Ranges
	if c.Negated {
		ranges = charset.Negate(ranges, maxChar)
	} else {
		ranges = ranges.Clip(maxChar)
	}
	if len(ranges) == 0 {
		e.m.GoTo(fail)
		return
	}
	if ranges.IsEverything(maxChar) {
		return
	}

	if e.mode == asm.OneByte && ranges[len(ranges)-1].To <= rune(e.m.TableMask()) {
		// The accept set lives entirely under the table: one bit test,
		// after ruling out the aliasing upper half of Latin-1.
		bm := charset.ListToBitmap128(ranges)
		var table [16]byte
		packBitmap(&table, bm)
		ok := e.m.NewLabel()
		e.m.CheckCharacterGT(uint32(e.m.TableMask()), fail)
		e.m.CheckBitInTable(table, ok)
		e.m.GoTo(fail)
		e.m.Bind(ok)
		return
	}

	success := e.m.NewLabel()
	for _, r := range ranges {
		if r.From == r.To {
			e.m.CheckCharacter(uint32(r.From), success)
		} else {
			e.m.CheckCharacterInRange(uint32(r.From), uint32(r.To), success)
		}
	}
	e.m.GoTo(fail)
	e.m.Bind(success)
}

func packBitmap(table *[16]byte, bm charset.Bitmap128) {
	for i := 0; i < 128; i++ {
		if bm.Test(byte(i)) {
			table[i/8] |= 1 << uint(i%8)
		}
	}
}

// emitIgnoreCaseCheck expands c's case-equivalence closure via the shared
// folder and checks each variant, following an exact-match fast path when
// the pair differs by a single bit, where one masked compare suffices.
func (e *Emitter) emitIgnoreCaseCheck(c uint16, fail asm.Label) {
	variants := charset.DefaultFolder{}.CaseFold(rune(c), e.mode == asm.OneByte)
	if len(variants) == 0 {
		e.m.CheckNotCharacter(uint32(c), fail)
		return
	}
	all := append([]rune{rune(c)}, variants...)
	if len(all) == 2 {
		diff := uint32(all[0]) ^ uint32(all[1])
		if diff != 0 && diff&(diff-1) == 0 {
			ok := e.m.NewLabel()
			e.m.CheckCharacterAfterAnd(uint32(all[0])&^diff, ^diff&0xFFFF, ok)
			e.m.GoTo(fail)
			e.m.Bind(ok)
			return
		}
	}
	success := e.m.NewLabel()
	for _, v := range all {
		e.m.CheckCharacter(uint32(v), success)
	}
	e.m.GoTo(fail)
	e.m.Bind(success)
}

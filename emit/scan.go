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
	"github.com/relang/rex/boyermoore"
	"github.com/relang/rex/charset"
	"github.com/relang/rex/graph"
)

const (
	maxLookaheadForBoyerMoore    = 8
	patternTooShortForBoyerMoore = 2
)

// isOmnivorousLazyScan reports whether lc is the unanchored-search shape:
// a lazy loop whose body eats any single code unit and feeds straight back
// into the choice. Only that shape lets the scanner advance the position
// freely — a body that rejects some characters would have stopped the
// scan, so skipping past those positions would over-match.
func (e *Emitter) isOmnivorousLazyScan(lc *graph.LoopChoiceNode) bool {
	if len(lc.Alternatives) != 2 || lc.Alternatives[0].Node != lc.ContinueNode {
		return false
	}
	if len(lc.Alternatives[0].Guards) != 0 || len(lc.Alternatives[1].Guards) != 0 {
		return false
	}
	tn, ok := lc.LoopNode.(*graph.TextNode)
	if !ok || tn.OnSuccess != graph.Node(lc) || len(tn.Elements) != 1 {
		return false
	}
	el := tn.Elements[0]
	if el.Class == nil || el.Class.Negated {
		return false
	}
	max := rune(charset.MaxUTF16CodeUnit)
	if e.mode == asm.OneByte {
		max = charset.MaxOneByteChar
	}
	return el.Class.Ranges.IsEverything(max)
}

// emitScanSkip emits a Boyer-Moore pre-loop ahead of the scan choice:
// while the code unit at the chosen lookahead offset cannot occur
// anywhere in the continuation's possible-character window, the position
// advances by the window width without ever entering the alternatives.
// Any position it skips is one where the continuation cannot match, so
// the scan's observable behavior is unchanged. Falls through silently
// when the continuation is too short or too permissive to pay off.
func (e *Emitter) emitScanSkip(lc *graph.LoopChoiceNode) {
	la := boyermoore.New(maxLookaheadForBoyerMoore)
	filled := fillLookahead(lc.ContinueNode, la, 0)
	if filled < patternTooShortForBoyerMoore {
		return
	}
	la.SetRest(filled)

	min, max, score := la.FindWorthwhileInterval(nil)
	if score <= 2 {
		return
	}

	again := e.m.NewLabel()
	cont := e.m.NewLabel()
	e.m.Bind(again)
	e.m.LoadCurrentCharacter(max, cont, true, 1)
	if c, ok := la.SingleCharacter(min, max); ok {
		// The window admits one residue only: anything else at the probe
		// offset rules out a match start across the whole window.
		e.m.CheckCharacterAfterAnd(uint32(c), uint32(charset.TableMask), cont)
	} else {
		bools, _ := boyermoore.SkipTable(la, min, max)
		var table [16]byte
		for i, set := range bools {
			if set {
				table[i/8] |= 1 << uint(i%8)
			}
		}
		e.m.CheckBitInTable(table, cont)
	}
	e.m.AdvanceCurrentPosition(max - min + 1)
	e.m.GoTo(again)
	e.m.Bind(cont)
}

// fillLookahead projects the possible characters of the linear chain
// starting at n onto la, one position per code unit, and returns how many
// positions it could pin down. Anything it cannot see through (a choice,
// a submatch, a back-reference) saturates the rest.
func fillLookahead(n graph.Node, la *boyermoore.Lookahead, offset int) int {
	for n != nil && offset < la.Length {
		switch v := n.(type) {
		case *graph.TextNode:
			if v.ReadBackward {
				la.SetRest(offset)
				return la.Length
			}
			for _, el := range v.Elements {
				if offset >= la.Length {
					return offset
				}
				if el.Class != nil {
					if el.Class.Negated || len(el.Class.Ranges) == 0 {
						la.Positions[offset].SetAll()
					} else {
						for _, r := range el.Class.Ranges {
							if r.To-r.From >= boyermoore.MapSize {
								la.Positions[offset].SetAll()
								break
							}
							la.Positions[offset].SetInterval(r.From, r.To)
						}
					}
					offset++
					continue
				}
				for _, c := range el.Atom {
					if offset >= la.Length {
						return offset
					}
					la.Positions[offset].Set(rune(c))
					if el.IgnoreCase {
						for _, eq := range (charset.DefaultFolder{}).CaseFold(rune(c), false) {
							la.Positions[offset].Set(eq)
						}
					}
					offset++
				}
			}
			n = v.OnSuccess
		case *graph.ActionNode:
			switch v.Kind {
			case graph.SetRegister, graph.IncrementRegister, graph.StorePosition, graph.ClearCaptures:
				n = v.OnSuccess
			default:
				la.SetRest(offset)
				return la.Length
			}
		case *graph.AssertionNode:
			n = v.OnSuccess
		case *graph.EndNode:
			return offset
		default:
			la.SetRest(offset)
			return la.Length
		}
	}
	return offset
}

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

// Package boyermoore builds the per-offset possible-character maps a
// bounded lookahead can use to pick a skip distance longer than one code
// unit before trying a full match.
package boyermoore

import "github.com/relang/rex/charset"

// MapSize mirrors the macro-assembler's table size: a 128-entry boolean
// map.
const MapSize = charset.TableSize

// PositionInfo is the possible-character map for one lookahead offset,
// plus the summary bits the emitter consults before falling back to a
// full 128-entry scan.
type PositionInfo struct {
	Map [2]uint64 // bitset over byte value mod MapSize

	Whitespace bool
	Word       bool
	Digit      bool
	Surrogate  bool
}

func (p *PositionInfo) set(idx int) {
	idx &= charset.TableMask
	p.Map[idx/64] |= 1 << uint(idx%64)
}

// Set ORs cp into the position's map, folding to a single byte mod
// MapSize.
func (p *PositionInfo) Set(cp rune) {
	p.set(int(cp))
	switch {
	case cp == ' ' || cp == '\t' || cp == '\n' || cp == '\r' || cp == '\v' || cp == '\f':
		p.Whitespace = true
	}
	if cp >= '0' && cp <= '9' {
		p.Digit = true
	}
	if (cp >= 'a' && cp <= 'z') || (cp >= 'A' && cp <= 'Z') || (cp >= '0' && cp <= '9') || cp == '_' {
		p.Word = true
	}
	if cp >= 0xD800 && cp <= 0xDFFF {
		p.Surrogate = true
	}
}

// SetInterval marks every code point in [from, to].
func (p *PositionInfo) SetInterval(from, to rune) {
	hi := to
	if hi-from > 0x10000 {
		// Mirrors charset.AddCaseEquivalents' bound: an interval this wide
		// already saturates the 128-entry map, so stop early.
		hi = from + 0x10000
	}
	for cp := from; cp <= hi; cp++ {
		p.Set(cp)
	}
}

// SetAll marks every code point as possible, the least useful position
// (every byte value collides).
func (p *PositionInfo) SetAll() {
	p.Map[0] = ^uint64(0)
	p.Map[1] = ^uint64(0)
	p.Whitespace, p.Word, p.Digit, p.Surrogate = true, true, true, true
}

// PossibleCount returns how many of the map's entries are set: MapSize
// means the position is unconstrained, 1 means it reduces to a single
// residue. The emitter's word-boundary side selection compares the two
// sides' counts to test the more selective one first.
func (p *PositionInfo) PossibleCount() int {
	n := 0
	for b := 0; b < MapSize; b++ {
		if p.Map[b/64]&(1<<uint(b%64)) != 0 {
			n++
		}
	}
	return n
}

// Lookahead holds one PositionInfo per offset in [0, length).
type Lookahead struct {
	Length    int
	Positions []PositionInfo
}

// New returns a Lookahead with length empty position maps.
func New(length int) *Lookahead {
	return &Lookahead{Length: length, Positions: make([]PositionInfo, length)}
}

// SetRest marks every position from 'from' onward as SetAll, used once a
// variable-length construct makes further offsets unpredictable.
func (l *Lookahead) SetRest(from int) {
	for i := from; i < l.Length; i++ {
		l.Positions[i].SetAll()
	}
}

// FindWorthwhileInterval picks the [min, max] slice maximizing
// (max-min+1) * probability_complement over the union of the slice's
// possible characters — the skip test probes one code unit against that
// union, so widening the window only pays while the union stays
// selective. freq is a byte-value frequency collator over a
// representative sample subject; nil treats every byte as equally
// likely.
func (l *Lookahead) FindWorthwhileInterval(freq *[256]float64) (min, max int, bestScore float64) {
	best := -1.0
	bestMin, bestMax := 0, 0
	for i := 0; i < l.Length; i++ {
		var union PositionInfo
		for j := i; j < l.Length; j++ {
			union.Map[0] |= l.Positions[j].Map[0]
			union.Map[1] |= l.Positions[j].Map[1]
			prob := float64(union.PossibleCount()) / float64(MapSize)
			if freq != nil {
				prob = weightedProbability(&union, freq)
			}
			width := float64(j - i + 1)
			score := width * (1 - prob)
			if score > best {
				best = score
				bestMin, bestMax = i, j
			}
		}
	}
	return bestMin, bestMax, best
}

func weightedProbability(p *PositionInfo, freq *[256]float64) float64 {
	var sum float64
	for b := 0; b < 256; b++ {
		if p.Map[(b&charset.TableMask)/64]&(1<<uint((b&charset.TableMask)%64)) != 0 {
			sum += freq[b]
		}
	}
	return sum
}

// SingleCharacter reports whether the interval [min, max] reduces to
// exactly one possible byte value, and returns it — letting the emitter
// generate a tight inner loop that skips lookahead_width code units
// until that character is found.
func (l *Lookahead) SingleCharacter(min, max int) (byte, bool) {
	var found int = -1
	for i := min; i <= max; i++ {
		for b := 0; b < MapSize; b++ {
			if l.Positions[i].Map[b/64]&(1<<uint(b%64)) == 0 {
				continue
			}
			if found != -1 && found != b {
				return 0, false
			}
			found = b
		}
	}
	if found == -1 {
		return 0, false
	}
	return byte(found), true
}

// SkipTable builds the 128-byte boolean skip table and skip distance the
// emitter scans by when the interval doesn't reduce to a single
// character.
func SkipTable(l *Lookahead, min, max int) (table [charset.TableSize]bool, distance int) {
	distance = max - min + 1
	for i := min; i <= max; i++ {
		for b := 0; b < MapSize; b++ {
			if l.Positions[i].Map[b/64]&(1<<uint(b%64)) != 0 {
				table[b] = true
			}
		}
	}
	return table, distance
}

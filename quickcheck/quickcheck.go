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

// Package quickcheck synthesizes the mask/value "preload" tests the
// emitter uses to cheaply reject an alternative before doing the full
// match check.
package quickcheck

import (
	"github.com/relang/rex/charset"
	"github.com/relang/rex/graph"
)

// MaxChars is the most lookahead positions a quick-check covers.
const MaxChars = 4

// Details is the per-position record: a mask/value compare that at
// minimum rejects some non-matches, plus whether each position's test is
// exact. A successful quick check means *possible* match; only positions
// with Determined set are proven and may be skipped by the full check.
type Details struct {
	Chars               int
	Mask, Value         [MaxChars]uint32
	Determined          [MaxChars]bool
	DeterminesPerfectly bool
	CannotMatch         bool
}

// Merge folds two alternatives' details the way a ChoiceNode combines
// them: associative and commutative, so the emitter may fold alternatives
// in any order once a Boyer-Moore skip has reordered them.
func Merge(a, b Details) Details {
	if a.CannotMatch {
		return b
	}
	if b.CannotMatch {
		return a
	}
	n := a.Chars
	if b.Chars < n {
		n = b.Chars
	}
	out := Details{Chars: n}
	for i := 0; i < n; i++ {
		// Intersection of acceptance: a position passes the merged check
		// iff it could have passed either alternative's, so weaken to the
		// bits both masks constrain identically.
		commonMask := a.Mask[i] & b.Mask[i]
		if a.Value[i]&commonMask != b.Value[i]&commonMask {
			continue
		}
		out.Mask[i] = commonMask
		out.Value[i] = a.Value[i] & commonMask
	}
	// A merge never determines a position perfectly: passing the weakened
	// test no longer implies either branch's exact test passed.
	return out
}

// Fill computes a Details record covering n's first MaxChars code-unit
// positions. notAtStart says the position being checked is known to lie
// past the subject's start (the containing loop is only ever entered
// after consumption), which turns a start-anchor assertion into a
// cannot-match verdict.
func Fill(n graph.Node, notAtStart bool) Details {
	switch v := n.(type) {
	case *graph.TextNode:
		if v.ReadBackward {
			return Details{}
		}
		return fillText(v)
	case *graph.ChoiceNode:
		return fillChoice(v.Alternatives, notAtStart)
	case *graph.LoopChoiceNode:
		return fillChoice(v.Alternatives, notAtStart || v.NotAtStart)
	case *graph.AssertionNode:
		if v.Kind == graph.AtStart {
			if notAtStart {
				return Details{CannotMatch: true}
			}
			return Details{}
		}
		return Fill(v.OnSuccess, notAtStart)
	case *graph.ActionNode:
		switch v.Kind {
		case graph.SetRegister, graph.IncrementRegister, graph.StorePosition, graph.ClearCaptures:
			return Fill(v.OnSuccess, notAtStart)
		}
		return Details{}
	case *graph.NullNode:
		return Details{CannotMatch: true}
	default:
		return Details{}
	}
}

func fillText(tn *graph.TextNode) Details {
	d := Details{DeterminesPerfectly: true}
	pos := 0
	for _, el := range tn.Elements {
		if pos >= MaxChars {
			break
		}
		if el.Class != nil {
			if !el.Class.Negated && len(el.Class.Ranges) == 0 {
				return Details{CannotMatch: true}
			}
			mask, value, perfect := classMaskValue(el.Class)
			d.Mask[pos], d.Value[pos] = mask, value
			d.Determined[pos] = perfect
			d.DeterminesPerfectly = d.DeterminesPerfectly && perfect
			pos++
			continue
		}
		for _, c := range el.Atom {
			if pos >= MaxChars {
				break
			}
			mask, value, perfect := atomMaskValue(c, el.IgnoreCase)
			d.Mask[pos], d.Value[pos] = mask, value
			d.Determined[pos] = perfect
			d.DeterminesPerfectly = d.DeterminesPerfectly && perfect
			pos++
		}
	}
	d.Chars = pos
	if d.Chars == 0 {
		d.DeterminesPerfectly = false
	}
	return d
}

// atomMaskValue derives the tightest mask/value pair for a single literal
// code unit. A case-sensitive unit is an exact compare; a case pair
// differing in one bit folds to a masked compare that is still perfect;
// anything wider contributes no constraint.
func atomMaskValue(c uint16, ignoreCase bool) (mask, value uint32, perfect bool) {
	if !ignoreCase {
		return 0xFFFF, uint32(c), true
	}
	variants := charset.DefaultFolder{}.CaseFold(rune(c), false)
	if len(variants) == 0 {
		return 0xFFFF, uint32(c), true
	}
	if len(variants) == 1 {
		diff := uint32(c) ^ uint32(variants[0])
		if diff != 0 && diff&(diff-1) == 0 {
			m := ^diff & 0xFFFF
			return m, uint32(c) & m, true
		}
	}
	return 0, 0, false
}

// classMaskValue derives a mask/value pair that rejects at least the
// complement of the class; it is perfect only when the range reduces to a
// single value or to a power-of-two-aligned trailing bit block.
func classMaskValue(c *graph.ClassElement) (mask, value uint32, perfect bool) {
	if c.Negated || len(c.Ranges) == 0 {
		return 0, 0, false
	}
	if len(c.Ranges) == 1 && c.Ranges[0].From == c.Ranges[0].To {
		return 0xFFFF, uint32(c.Ranges[0].From), true
	}
	if len(c.Ranges) == 1 {
		diff := uint32(c.Ranges[0].From) ^ uint32(c.Ranges[0].To)
		// The differing bits form a trailing 1-block iff diff+1 is a power
		// of two; then the high bits alone decide membership exactly.
		if diff != 0 && (diff&(diff+1)) == 0 && uint32(c.Ranges[0].From)&diff == 0 {
			m := ^diff & 0xFFFF
			return m, uint32(c.Ranges[0].From) & m, true
		}
	}
	return 0, 0, false
}

func fillChoice(alts []graph.GuardedAlternative, notAtStart bool) Details {
	var out Details
	first := true
	for _, a := range alts {
		d := Fill(a.Node, notAtStart)
		if first {
			out = d
			first = false
			continue
		}
		out = Merge(out, d)
	}
	out.DeterminesPerfectly = false
	for i := range out.Determined {
		out.Determined[i] = false
	}
	return out
}

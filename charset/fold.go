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

package charset

import "unicode"

// Folder is the injected case-folding oracle. CaseFold returns the small
// set of code points equivalent to cp under folding, not including cp
// itself.
// oneByte narrows the result to Latin-1 equivalents only, matching the
// one-byte filter's needs.
type Folder interface {
	CaseFold(cp rune, oneByte bool) []rune
}

// DefaultFolder folds using the standard library's simple-fold tables,
// the same source the teacher's NFA builder uses (regexp2's
// nfa.addEdgeRune walks unicode.SimpleFold until it cycles back).
type DefaultFolder struct{}

// CaseFold walks the SimpleFold cycle until it returns to cp, collecting
// up to 4 code points.
func (DefaultFolder) CaseFold(cp rune, oneByte bool) []rune {
	var out []rune
	for c := unicode.SimpleFold(cp); c != cp && len(out) < 4; c = unicode.SimpleFold(c) {
		if oneByte && (c < 0 || c > MaxOneByteChar) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// AddCaseEquivalents expands every range in list with its case-equivalents,
// re-canonicalizing the result. A Folder that returns no equivalents (the
// zero Folder, or one backed by an empty table) behaves as the identity.
func AddCaseEquivalents(list List, oneByte bool, folder Folder) List {
	if folder == nil {
		return list
	}
	extra := make([]Range, 0, len(list))
	for _, r := range list {
		// Bound the per-range expansion: scanning every code point in a huge
		// range would be wasteful, so only ranges narrow enough to plausibly
		// be letters are walked rune-by-rune; CharGroups-sized classes in
		// practice are always small here because TextNode elements are
		// expanded one atom (or one small class) at a time (see analysis.go).
		// Wide ranges (e.g. a negated class spanning most of the code space)
		// hold no interesting case pairs beyond what's already folded in by
		// their narrow complement, so they are left as-is.
		if r.To-r.From > 0x10000 {
			continue
		}
		hi := r.To
		if hi > unicode.MaxRune {
			hi = unicode.MaxRune
		}
		for cp := r.From; cp <= hi; cp++ {
			for _, eq := range folder.CaseFold(cp, oneByte) {
				extra = append(extra, Range{eq, eq})
			}
			if cp == unicode.MaxRune {
				break
			}
		}
	}
	if len(extra) == 0 {
		return list
	}
	return Union(list, Canonicalize(extra, MaxCodePoint))
}

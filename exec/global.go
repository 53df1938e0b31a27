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

package exec

// GlobalCache is the reusable all-matches iterator: it advances by 1 on
// an empty match, or by 2 past a surrogate pair in unicode mode, so a
// caller can walk every non-overlapping match of a pattern against a
// subject to exhaustion. Construct a fresh one per subject.
type GlobalCache struct {
	engine  *Engine
	re      *Regexp
	subject flatSubject
	source  string

	pos      int
	done     bool
	lastInfo *MatchInfo
}

// NewGlobalCache returns a GlobalCache ready to iterate re's matches
// against subject from the start.
func NewGlobalCache(e *Engine, re *Regexp, subject string) *GlobalCache {
	return &GlobalCache{
		engine:  e,
		re:      re,
		subject: flattenSubject(subject),
		source:  subject,
	}
}

// Next advances to the next match, returning (info, true) on a match or
// (nil, false) once iteration is exhausted.
func (g *GlobalCache) Next() (*MatchInfo, bool) {
	if g.done {
		return nil, false
	}
	if g.pos > g.subject.len() {
		g.done = true
		return nil, false
	}

	result, info, err := g.engine.Exec(g.re, g.source, g.pos)
	if err != nil || result != Success {
		g.done = true
		return nil, false
	}

	start, end := info.Capture(0)
	info = SetLastMatchInfo(info, g.re.CaptureCount, g.source, g.source)
	g.lastInfo = info

	if end > start {
		g.pos = end
		return info, true
	}

	// Empty match: advance by 1, or by 2 when the code unit just past
	// the match is a lead surrogate in unicode mode, so the next
	// attempt never starts inside a surrogate pair.
	step := 1
	if g.re.Flags.Unicode {
		if c, ok := g.subject.at(end); ok && isLeadSurrogate(c) {
			step = 2
		}
	}
	g.pos = end + step
	if g.pos > g.subject.len() {
		g.done = true
	}
	return info, true
}

// at returns the code unit at i, matching interp.Subject.At's contract.
func (s flatSubject) at(i int) (uint32, bool) {
	if s.twoByte != nil {
		if i < 0 || i >= len(s.twoByte) {
			return 0, false
		}
		return uint32(s.twoByte[i]), true
	}
	if i < 0 || i >= len(s.oneByte) {
		return 0, false
	}
	return uint32(s.oneByte[i]), true
}

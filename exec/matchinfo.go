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

// MatchInfo is the ordered slot record a match result is reshaped into:
// capture count, last subject/input, then a (start, end) pair per
// capture starting with capture 0, the whole match. All offsets are
// 0-based code-unit indices; -1 denotes a non-participating capture.
type MatchInfo struct {
	NumCaptures int
	LastSubject string
	LastInput   string
	offsets     []int
}

// NewMatchInfo allocates a MatchInfo with room for n captures (capture 0
// is the whole match, so n is captureCount+1).
func NewMatchInfo(n int) *MatchInfo {
	offsets := make([]int, 2*n)
	for i := range offsets {
		offsets[i] = -1
	}
	return &MatchInfo{NumCaptures: n, offsets: offsets}
}

// SetCapture records capture i's [start,end) span. Either bound may be
// -1 to mark the capture as non-participating.
func (m *MatchInfo) SetCapture(i, start, end int) {
	m.grow(i + 1)
	m.offsets[2*i] = start
	m.offsets[2*i+1] = end
}

// Capture returns capture i's [start, end) span, or (-1, -1) if it did
// not participate in the match.
func (m *MatchInfo) Capture(i int) (start, end int) {
	if 2*i+1 >= len(m.offsets) {
		return -1, -1
	}
	return m.offsets[2*i], m.offsets[2*i+1]
}

// grow extends the offsets slice (and NumCaptures) so slot n-1 exists,
// filling new slots with the non-participating sentinel.
func (m *MatchInfo) grow(n int) {
	if n <= m.NumCaptures {
		return
	}
	for len(m.offsets) < 2*n {
		m.offsets = append(m.offsets, -1, -1)
	}
	m.NumCaptures = n
}

// SetLastMatchInfo grows info (if needed) to hold captureCount+1
// captures and stamps the subject/input fields that a subsequent
// backreference or global-iteration call reads back.
func SetLastMatchInfo(info *MatchInfo, captureCount int, subject, input string) *MatchInfo {
	if info == nil {
		info = NewMatchInfo(captureCount + 1)
	} else {
		info.grow(captureCount + 1)
	}
	info.LastSubject = subject
	info.LastInput = input
	return info
}

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

package cache

import (
	"encoding/binary"
	"sync"

	"golang.org/x/crypto/blake2b"
)

// Result is what the ResultsCache stores per (subject, pattern) pair:
// the match-info slots (capture count, last subject/input, then a
// (start, end) pair per capture) plus the last-match array a
// global-iteration caller resumes from.
type Result struct {
	Matches   []int
	LastMatch []int
}

type resultEntry struct {
	valid bool
	key   [16]byte
	value Result
}

type resultBucket struct {
	primary      resultEntry
	displacement resultEntry
}

// ResultsCache maps (subject, pattern-or-array) -> Result, keyed by a
// BLAKE2b-128 digest of the subject bytes plus an identifier for the
// pattern (its fingerprint, or a composite for a pattern array), so
// long subjects never need to be retained as a map key.
type ResultsCache struct {
	mu      sync.Mutex
	buckets []resultBucket
}

// NewResults returns an empty ResultsCache with slots buckets.
func NewResults(slots int) *ResultsCache {
	if slots <= 0 {
		slots = 1
	}
	return &ResultsCache{buckets: make([]resultBucket, slots)}
}

// Key hashes subject and patternFingerprint into the 128-bit digest
// used for bucket placement and collision detection.
func Key(subject []byte, patternFingerprint uint64) [16]byte {
	h, _ := blake2b.New(16, nil)
	h.Write(subject)
	var fpBuf [8]byte
	binary.LittleEndian.PutUint64(fpBuf[:], patternFingerprint)
	h.Write(fpBuf[:])
	var out [16]byte
	copy(out[:], h.Sum(nil))
	return out
}

func (c *ResultsCache) bucketIndex(key [16]byte) int {
	return int(binary.LittleEndian.Uint64(key[:8]) % uint64(len(c.buckets)))
}

// Get returns the cached Result for key, if present.
func (c *ResultsCache) Get(key [16]byte) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := &c.buckets[c.bucketIndex(key)]
	if b.primary.valid && b.primary.key == key {
		return b.primary.value, true
	}
	if b.displacement.valid && b.displacement.key == key {
		return b.displacement.value, true
	}
	return Result{}, false
}

// Put installs value under key, displacing (and zeroing) a stale
// occupant the same way CompilationCache.Put does.
func (c *ResultsCache) Put(key [16]byte, value Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := &c.buckets[c.bucketIndex(key)]
	switch {
	case !b.primary.valid:
		b.primary = resultEntry{valid: true, key: key, value: value}
	case b.primary.key == key:
		b.primary.value = value
	case !b.displacement.valid:
		b.displacement = resultEntry{valid: true, key: key, value: value}
	case b.displacement.key == key:
		b.displacement.value = value
	default:
		b.displacement = b.primary
		b.primary = resultEntry{valid: true, key: key, value: value}
	}
}

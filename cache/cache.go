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

// Package cache implements two fixed-size open-addressed tables: a
// CompilationCache mapping fingerprinted (pattern, flags) pairs to
// compiled programs, and a ResultsCache mapping (subject, pattern) pairs
// to match results. Both tables use the same two-slots-per-bucket
// (primary + displacement) policy.
package cache

import (
	"crypto/rand"
	"encoding/binary"
	"sync"

	"github.com/dchest/siphash"

	"github.com/relang/rex/ast"
	"github.com/relang/rex/compiler"
)

// entry is one slot of a CompilationCache bucket.
type entry struct {
	valid bool
	fp    uint64
	value *compiler.CompiledRegExp
}

// bucket holds a primary slot and its displacement slot, so a second
// entry hashing to the same bucket as an occupied primary still gets a
// home before either is evicted.
type bucket struct {
	primary      entry
	displacement entry
}

// CompilationCache is a process-wide fingerprint(pattern,flags) ->
// compiled-data table. Insert and lookup hold a mutex; callers keep only
// the fetched value across the unlock, never a bucket reference.
type CompilationCache struct {
	mu      sync.Mutex
	buckets []bucket
	k0, k1  uint64
}

// New returns an empty CompilationCache with slots buckets, keyed with
// a process-lifetime random SipHash key.
func New(slots int) *CompilationCache {
	if slots <= 0 {
		slots = 1
	}
	var keyBuf [16]byte
	// crypto/rand failure here would mean the process has no entropy
	// source at all; fall back to a fixed key rather than panicking,
	// since a predictable cache key only affects bucket distribution,
	// not matching correctness.
	if _, err := rand.Read(keyBuf[:]); err != nil {
		keyBuf = [16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	}
	return &CompilationCache{
		buckets: make([]bucket, slots),
		k0:      binary.LittleEndian.Uint64(keyBuf[:8]),
		k1:      binary.LittleEndian.Uint64(keyBuf[8:]),
	}
}

// Fingerprint hashes pattern and flags into the 64-bit key the cache
// uses for both bucket placement and collision detection.
func (c *CompilationCache) Fingerprint(pattern string, flags ast.Flags) uint64 {
	buf := make([]byte, len(pattern)+4)
	copy(buf, pattern)
	binary.LittleEndian.PutUint32(buf[len(pattern):], flags.Pack())
	return siphash.Hash(c.k0, c.k1, buf)
}

func (c *CompilationCache) bucketIndex(fp uint64) int {
	return int(fp % uint64(len(c.buckets)))
}

// Get returns the cached program for fp, if present.
func (c *CompilationCache) Get(fp uint64) (*compiler.CompiledRegExp, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := &c.buckets[c.bucketIndex(fp)]
	if b.primary.valid && b.primary.fp == fp {
		return b.primary.value, true
	}
	if b.displacement.valid && b.displacement.fp == fp {
		return b.displacement.value, true
	}
	return nil, false
}

// Put installs value under fp. An empty slot is preferred; otherwise
// the primary slot is displaced into the displacement slot and the new
// entry takes the primary slot, so the most recently compiled pattern
// for a bucket is always found in one probe.
func (c *CompilationCache) Put(fp uint64, value *compiler.CompiledRegExp) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := &c.buckets[c.bucketIndex(fp)]
	switch {
	case !b.primary.valid:
		b.primary = entry{valid: true, fp: fp, value: value}
	case b.primary.fp == fp:
		b.primary.value = value
	case !b.displacement.valid:
		b.displacement = entry{valid: true, fp: fp, value: value}
	case b.displacement.fp == fp:
		b.displacement.value = value
	default:
		b.displacement = b.primary
		b.primary = entry{valid: true, fp: fp, value: value}
	}
}

// Len reports how many occupied slots the cache currently holds.
func (c *CompilationCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lenLocked()
}

func (c *CompilationCache) lenLocked() int {
	n := 0
	for _, b := range c.buckets {
		if b.primary.valid {
			n++
		}
		if b.displacement.valid {
			n++
		}
	}
	return n
}

// Snapshot captures every occupied slot as a Snapshot, for `cmd/rexc
// dump` and warm-starting a fresh process with a known pattern set.
func (c *CompilationCache) Snapshot() *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := &Snapshot{Entries: make([]SnapshotEntry, 0, c.lenLocked())}
	add := func(e *entry) {
		if !e.valid {
			return
		}
		snap.Entries = append(snap.Entries, SnapshotEntry{
			Pattern:      e.value.Program.Pattern,
			Flags:        e.value.Program.Flags,
			Fingerprint:  e.fp,
			CaptureCount: e.value.CaptureCount,
			ProgramBytes: e.value.Program.Bytes(),
		})
	}
	for i := range c.buckets {
		add(&c.buckets[i].primary)
		add(&c.buckets[i].displacement)
	}
	return snap
}

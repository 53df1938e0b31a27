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

// Package search provides the substring-search primitive the Atom
// execution strategy uses directly, bypassing the node-graph machinery
// entirely for the common case of a plain literal pattern.
package search

import "bytes"

// Primitive is the substring-search dependency the executor is handed,
// injected rather than owned by this package, so callers may supply a
// faster backend (e.g. one that exploits SIMD or a precomputed skip
// table) without touching the executor.
type Primitive interface {
	// Index returns the offset of the first occurrence of needle in
	// haystack at or after start, or -1 if none exists.
	Index(haystack, needle []byte, start int) int
}

// Default is the primitive used when no other is injected: a thin
// wrapper over the standard library's substring search.
type Default struct{}

// Index implements Primitive.
func (Default) Index(haystack, needle []byte, start int) int {
	if start < 0 {
		start = 0
	}
	if start > len(haystack) {
		return -1
	}
	idx := bytes.Index(haystack[start:], needle)
	if idx < 0 {
		return -1
	}
	return idx + start
}

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

// Package compiler lowers a read-only AST into the shared node graph
// and drives the rest of the pipeline (analysis, the one-byte filter,
// and emission) to produce a compiled program.
package compiler

import "fmt"

// MaxRegister is the largest register index the macro-assembler's register
// file can address. Kept equal to config.Default().MaxRegister; Compile
// does not yet take a config.Limits, so a caller-supplied override isn't
// threaded through here.
const MaxRegister = 1 << 20

// ErrRegExpTooBig is returned when register allocation would exceed
// MaxRegister.
var ErrRegExpTooBig = fmt.Errorf("RegExp too big")

// ErrCannotMatchOneByte is returned when the one-byte filter proves a
// pattern can never match a Latin-1 subject at all.
var ErrCannotMatchOneByte = fmt.Errorf("pattern cannot match a one-byte subject")

// Registers allocates register numbers for capture slots and internal
// bookkeeping. Registers 0 and 1 are always capture-0 (the whole match);
// every capture group after that gets a contiguous pair of
// (start, end) registers, even index first.
type Registers struct {
	next int
}

// NewRegisters seeds the allocator with 2*(captureCount+1) registers
// already claimed for capture-0 plus every explicit capture group.
func NewRegisters(captureCount int) *Registers {
	return &Registers{next: 2 * (captureCount + 1)}
}

// CaptureRegisters returns the (start, end) register pair for capture
// index i (0 is the whole match).
func CaptureRegisters(i int) (start, end int) {
	return 2 * i, 2*i + 1
}

// Allocate reserves n fresh registers, returning the first one, or an
// error if the allocator would exceed MaxRegister.
func (r *Registers) Allocate(n int) (int, error) {
	if r.next+n > MaxRegister {
		return 0, ErrRegExpTooBig
	}
	first := r.next
	r.next += n
	return first, nil
}

// Count returns the number of registers claimed so far.
func (r *Registers) Count() int { return r.next }

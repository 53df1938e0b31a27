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

// Bitmap128 is a 128-bit membership set over a single byte value, keyed
// modulo 128 — the same table size the macro-assembler's check-bit-in-table
// op and the Boyer-Moore position maps use.
type Bitmap128 [2]uint64

// TableSize and TableMask mirror the macro-assembler's fixed-size table.
const (
	TableSize = 128
	TableMask = 0x7F
)

// Set marks b (mod TableSize) as a member.
func (bm *Bitmap128) Set(b byte) {
	idx := int(b) & TableMask
	bm[idx/64] |= 1 << uint(idx%64)
}

// Test reports whether b (mod TableSize) is a member.
func (bm Bitmap128) Test(b byte) bool {
	idx := int(b) & TableMask
	return bm[idx/64]&(1<<uint(idx%64)) != 0
}

// ListToBitmap128 projects a range list onto a 128-bit table by folding
// every code point modulo TableSize. Used when a one-byte subject lets the
// emitter replace a full range compare with a single table lookup.
func ListToBitmap128(list List) Bitmap128 {
	var bm Bitmap128
	for _, r := range list {
		hi := r.To
		if hi > MaxOneByteChar {
			hi = MaxOneByteChar
		}
		for cp := r.From; cp <= hi; cp++ {
			bm.Set(byte(cp))
		}
	}
	return bm
}

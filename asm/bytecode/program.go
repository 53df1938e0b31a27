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

package bytecode

import (
	"bytes"
	"encoding/binary"
	"errors"

	"github.com/relang/rex/asm"
)

var errAborted = errors.New("bytecode: code generation was aborted")

// Program is the asm.Code this backend produces: a flat instruction
// stream plus the metadata the executor and compilation cache need
// without re-deriving it from the node graph.
type Program struct {
	Pattern     string
	Insns       []Insn
	Mode        asm.Mode
	MaxRegister int

	CaptureCount  int
	CaptureNames  map[string]int
	Flags         uint32
}

// Bytes serializes the program for the compilation cache's on-disk
// snapshot. The format is a small fixed-width record per instruction
// rather than a self-describing encoding (encoding/gob, JSON): the
// instruction set is small and stable enough that a hand-rolled binary
// layout beats a generic codec.
func (p *Program) Bytes() []byte {
	var buf bytes.Buffer
	var hdr [8]byte
	binary.LittleEndian.PutUint32(hdr[0:4], uint32(len(p.Insns)))
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(p.MaxRegister))
	buf.Write(hdr[:])
	for _, in := range p.Insns {
		var rec [48]byte
		rec[0] = byte(in.Op)
		binary.LittleEndian.PutUint64(rec[1:9], uint64(int64(in.Reg)))
		binary.LittleEndian.PutUint64(rec[9:17], uint64(int64(in.Reg2)))
		binary.LittleEndian.PutUint64(rec[17:25], uint64(in.Value))
		binary.LittleEndian.PutUint32(rec[25:29], uint32(in.CPOffset))
		binary.LittleEndian.PutUint32(rec[29:33], uint32(in.Count))
		binary.LittleEndian.PutUint32(rec[33:37], uint32(in.Target))
		binary.LittleEndian.PutUint32(rec[37:41], uint32(in.Class))
		var flags byte
		if in.CheckBounds {
			flags |= 1
		}
		if in.Backward {
			flags |= 2
		}
		if in.Unicode {
			flags |= 4
		}
		if in.IgnoreCase {
			flags |= 8
		}
		rec[41] = flags
		buf.Write(rec[:])
		if in.Op == OpCheckBitInTable {
			buf.Write(in.Table[:])
		}
	}
	return buf.Bytes()
}

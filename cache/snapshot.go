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
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/exp/slices"
	sigsyaml "sigs.k8s.io/yaml"
)

// SnapshotEntry is one compiled program as it appears in a Snapshot:
// enough to re-seed a CompilationCache without recompiling the pattern
// from scratch, plus the raw instruction bytes for debugging. Flags is
// the bit-packed form bytecode.Program.Flags already carries, not the
// ast.Flags struct, so this package need not depend on compiler.
type SnapshotEntry struct {
	Pattern      string `json:"pattern"`
	Flags        uint32 `json:"flags"`
	Fingerprint  uint64 `json:"fingerprint"`
	CaptureCount int    `json:"captureCount"`
	ProgramBytes []byte `json:"-"`
}

// Snapshot is a compilation cache's compiled-program table, serialized
// for warm-starting a process with a known pattern set.
type Snapshot struct {
	Entries []SnapshotEntry
}

// Save writes the snapshot to w, zstd-compressed: bytecode programs
// are repetitive opcode streams and compress well.
func (s *Snapshot) Save(w io.Writer) error {
	// Sort by fingerprint first so two snapshots of the same cache
	// compress and diff identically regardless of bucket-iteration order.
	slices.SortFunc(s.Entries, func(a, b SnapshotEntry) bool { return a.Fingerprint < b.Fingerprint })

	enc, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("cache: open zstd writer: %w", err)
	}
	defer enc.Close()

	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], uint32(len(s.Entries)))
	if _, err := enc.Write(hdr[:]); err != nil {
		return fmt.Errorf("cache: write snapshot header: %w", err)
	}
	for _, e := range s.Entries {
		if err := writeSnapshotEntry(enc, e); err != nil {
			return err
		}
	}
	return nil
}

func writeSnapshotEntry(w io.Writer, e SnapshotEntry) error {
	var lens [3]uint32
	lens[0] = uint32(len(e.Pattern))
	lens[1] = uint32(e.CaptureCount)
	lens[2] = uint32(len(e.ProgramBytes))
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, lens)
	binary.Write(&buf, binary.LittleEndian, e.Flags)
	binary.Write(&buf, binary.LittleEndian, e.Fingerprint)
	buf.WriteString(e.Pattern)
	buf.Write(e.ProgramBytes)
	_, err := w.Write(buf.Bytes())
	return err
}

// LoadSnapshot reads back a Snapshot written by Save. The caller is
// responsible for recompiling each entry's Pattern (the bytecode
// backend does not expose an instruction decoder, only an encoder
// used for cache invalidation and debugging) and reinstalling it into
// a CompilationCache under its Fingerprint.
func LoadSnapshot(r io.Reader) (*Snapshot, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("cache: open zstd reader: %w", err)
	}
	defer dec.Close()

	var hdr [4]byte
	if _, err := io.ReadFull(dec, hdr[:]); err != nil {
		return nil, fmt.Errorf("cache: read snapshot header: %w", err)
	}
	count := binary.LittleEndian.Uint32(hdr[:])

	snap := &Snapshot{Entries: make([]SnapshotEntry, 0, count)}
	for i := uint32(0); i < count; i++ {
		e, err := readSnapshotEntry(dec)
		if err != nil {
			return nil, fmt.Errorf("cache: read snapshot entry %d: %w", i, err)
		}
		snap.Entries = append(snap.Entries, e)
	}
	return snap, nil
}

func readSnapshotEntry(r io.Reader) (SnapshotEntry, error) {
	var lens [3]uint32
	if err := binary.Read(r, binary.LittleEndian, &lens); err != nil {
		return SnapshotEntry{}, err
	}
	var flags uint32
	if err := binary.Read(r, binary.LittleEndian, &flags); err != nil {
		return SnapshotEntry{}, err
	}
	var fp uint64
	if err := binary.Read(r, binary.LittleEndian, &fp); err != nil {
		return SnapshotEntry{}, err
	}
	patBuf := make([]byte, lens[0])
	if _, err := io.ReadFull(r, patBuf); err != nil {
		return SnapshotEntry{}, err
	}
	progBuf := make([]byte, lens[2])
	if _, err := io.ReadFull(r, progBuf); err != nil {
		return SnapshotEntry{}, err
	}
	return SnapshotEntry{
		Pattern:      string(patBuf),
		Flags:        flags,
		Fingerprint:  fp,
		CaptureCount: int(lens[1]),
		ProgramBytes: progBuf,
	}, nil
}

// debugDump is the JSON-tag-driven view sigs.k8s.io/yaml renders;
// SnapshotEntry already carries json tags for this purpose, with
// ProgramBytes excluded since a debug dump wants pattern/flag metadata,
// not an opaque instruction blob.
type debugDump struct {
	Entries []SnapshotEntry `json:"entries"`
}

// DebugYAML renders the snapshot's metadata (pattern, flags,
// fingerprint, capture count — not the raw instruction bytes) as YAML,
// for `cmd/rexc dump` and ad hoc inspection.
func (s *Snapshot) DebugYAML() ([]byte, error) {
	out, err := sigsyaml.Marshal(debugDump{Entries: s.Entries})
	if err != nil {
		return nil, fmt.Errorf("cache: render debug yaml: %w", err)
	}
	return out, nil
}

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
	"strings"
	"testing"
)

func TestSnapshotSaveLoadRoundTrips(t *testing.T) {
	snap := &Snapshot{Entries: []SnapshotEntry{
		{Pattern: "abc", Flags: 1, Fingerprint: 7, CaptureCount: 1, ProgramBytes: []byte{1, 2, 3}},
		{Pattern: "d+e*", Flags: 0, Fingerprint: 9, CaptureCount: 0, ProgramBytes: []byte{}},
	}}

	var buf bytes.Buffer
	if err := snap.Save(&buf); err != nil {
		t.Fatal(err)
	}

	got, err := LoadSnapshot(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(got.Entries))
	}
	if got.Entries[0].Pattern != "abc" || got.Entries[0].Fingerprint != 7 {
		t.Fatalf("entry 0 = %+v", got.Entries[0])
	}
	if got.Entries[1].Pattern != "d+e*" || len(got.Entries[1].ProgramBytes) != 0 {
		t.Fatalf("entry 1 = %+v", got.Entries[1])
	}
}

func TestSnapshotDebugYAMLOmitsProgramBytes(t *testing.T) {
	snap := &Snapshot{Entries: []SnapshotEntry{
		{Pattern: "abc", Fingerprint: 7, ProgramBytes: []byte{9, 9, 9}},
	}}
	out, err := snap.DebugYAML()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "abc") {
		t.Fatalf("expected pattern in debug yaml, got %s", out)
	}
}

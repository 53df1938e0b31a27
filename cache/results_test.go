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

import "testing"

func TestResultsCacheRoundTrips(t *testing.T) {
	rc := NewResults(8)
	key := Key([]byte("the quick brown fox"), 42)
	want := Result{Matches: []int{1, -1, -1, 0, 5}, LastMatch: []int{0, 5}}

	rc.Put(key, want)
	got, ok := rc.Get(key)
	if !ok {
		t.Fatal("expected hit after Put")
	}
	if len(got.Matches) != len(want.Matches) || got.Matches[3] != 0 || got.Matches[4] != 5 {
		t.Fatalf("Get = %+v, want %+v", got, want)
	}
}

func TestKeyDiffersPerSubject(t *testing.T) {
	k1 := Key([]byte("abc"), 1)
	k2 := Key([]byte("abd"), 1)
	if k1 == k2 {
		t.Fatal("expected distinct keys for distinct subjects")
	}
}

func TestResultsCacheMissReportsFalse(t *testing.T) {
	rc := NewResults(8)
	if _, ok := rc.Get(Key([]byte("nope"), 0)); ok {
		t.Fatal("expected miss on empty cache")
	}
}

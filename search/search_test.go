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

package search

import "testing"

func TestDefaultIndexFindsMatchAfterStart(t *testing.T) {
	d := Default{}
	if got := d.Index([]byte("abcabc"), []byte("abc"), 1); got != 3 {
		t.Fatalf("Index = %d, want 3", got)
	}
}

func TestDefaultIndexNoMatch(t *testing.T) {
	d := Default{}
	if got := d.Index([]byte("abc"), []byte("xyz"), 0); got != -1 {
		t.Fatalf("Index = %d, want -1", got)
	}
}

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
	"testing"

	"github.com/relang/rex/ast"
	"github.com/relang/rex/compiler"
)

func TestPutThenGetRoundTrips(t *testing.T) {
	c := New(8)
	fp := c.Fingerprint("abc", ast.Flags{})
	want := &compiler.CompiledRegExp{CaptureCount: 1}
	c.Put(fp, want)

	got, ok := c.Get(fp)
	if !ok || got != want {
		t.Fatalf("Get = %v, %v, want %v, true", got, ok, want)
	}
}

func TestGetMissReportsFalse(t *testing.T) {
	c := New(8)
	fp := c.Fingerprint("abc", ast.Flags{})
	if _, ok := c.Get(fp); ok {
		t.Fatal("expected miss on empty cache")
	}
}

func TestPutDisplacesOlderEntryOnCollision(t *testing.T) {
	c := New(1) // force every fingerprint into the same bucket.
	a := c.Fingerprint("a", ast.Flags{})
	b := c.Fingerprint("b", ast.Flags{})
	valueA := &compiler.CompiledRegExp{CaptureCount: 1}
	valueB := &compiler.CompiledRegExp{CaptureCount: 2}

	c.Put(a, valueA)
	c.Put(b, valueB)

	if got, ok := c.Get(a); !ok || got != valueA {
		t.Fatalf("displaced entry a should still be reachable, got %v, %v", got, ok)
	}
	if got, ok := c.Get(b); !ok || got != valueB {
		t.Fatalf("primary entry b should be reachable, got %v, %v", got, ok)
	}
	if got := c.Len(); got != 2 {
		t.Fatalf("Len = %d, want 2", got)
	}
}

func TestFingerprintDistinguishesFlags(t *testing.T) {
	c := New(8)
	fp1 := c.Fingerprint("abc", ast.Flags{IgnoreCase: true})
	fp2 := c.Fingerprint("abc", ast.Flags{IgnoreCase: false})
	if fp1 == fp2 {
		t.Fatal("expected distinct fingerprints for distinct flag sets")
	}
}

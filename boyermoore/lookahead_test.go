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

package boyermoore

import "testing"

func TestSingleCharacterInterval(t *testing.T) {
	l := New(3)
	l.Positions[0].Set('x')
	l.Positions[1].Set('x')
	c, ok := l.SingleCharacter(0, 1)
	if !ok || c != 'x' {
		t.Fatalf("SingleCharacter = %v, %v, want 'x', true", c, ok)
	}
}

func TestSingleCharacterFalseOnMultipleValues(t *testing.T) {
	l := New(1)
	l.Positions[0].Set('x')
	l.Positions[0].Set('y')
	if _, ok := l.SingleCharacter(0, 0); ok {
		t.Fatal("expected SingleCharacter to fail with two possible values")
	}
}

func TestSetAllMarksEveryPosition(t *testing.T) {
	l := New(2)
	l.SetRest(0)
	if l.Positions[0].PossibleCount() != MapSize {
		t.Fatalf("PossibleCount = %d, want %d", l.Positions[0].PossibleCount(), MapSize)
	}
}

func TestSkipTableWidth(t *testing.T) {
	l := New(4)
	l.Positions[0].Set('a')
	l.Positions[1].Set('b')
	_, distance := SkipTable(l, 0, 1)
	if distance != 2 {
		t.Fatalf("distance = %d, want 2", distance)
	}
}

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

package exec

import (
	"unicode/utf16"
	"unicode/utf8"

	"github.com/relang/rex/asm"
	"github.com/relang/rex/interp"
	"github.com/relang/rex/search"
)

// flatSubject is the executor's own flattened view of a Go string:
// exactly one of oneByte/twoByte is populated.
type flatSubject struct {
	oneByte []byte
	twoByte []uint16
}

// flattenSubject decodes s's runes into whichever representation is
// narrowest: every rune fitting in a single Latin-1 byte yields a
// one-byte subject (one code unit per byte), otherwise a full UTF-16
// subject (surrogate-pairing runes above the BMP, as ast.FromSyntax's
// encodeRune does for patterns).
func flattenSubject(s string) flatSubject {
	oneByte := true
	for _, r := range s {
		if r > 0xFF {
			oneByte = false
			break
		}
	}
	if oneByte {
		buf := make([]byte, 0, len(s))
		for _, r := range s {
			buf = append(buf, byte(r))
		}
		return flatSubject{oneByte: buf}
	}
	buf := make([]uint16, 0, utf8.RuneCountInString(s))
	for _, r := range s {
		buf = utf16.AppendRune(buf, r)
	}
	return flatSubject{twoByte: buf}
}

func (s flatSubject) mode() asm.Mode {
	if s.twoByte != nil {
		return asm.TwoByte
	}
	return asm.OneByte
}

func (s flatSubject) len() int {
	if s.twoByte != nil {
		return len(s.twoByte)
	}
	return len(s.oneByte)
}

func (s flatSubject) toInterp() interp.Subject {
	return interp.Subject{OneByte: s.oneByte, TwoByte: s.twoByte}
}

// indexOf finds needle (a literal's UTF-16 code units) in s at or after
// fromIndex. One-byte subjects delegate to the injected search.Primitive;
// two-byte subjects are scanned directly, since search.Primitive's
// interface is byte-oriented and a two-byte-subject primitive variant is
// out of this module's scope.
func (s flatSubject) indexOf(needle []uint16, fromIndex int, primitive search.Primitive) int {
	if s.twoByte != nil {
		return indexUTF16(s.twoByte, needle, fromIndex)
	}
	nb := make([]byte, len(needle))
	for i, c := range needle {
		if c > 0xFF {
			return -1 // cannot occur in a one-byte subject.
		}
		nb[i] = byte(c)
	}
	return primitive.Index(s.oneByte, nb, fromIndex)
}

func indexUTF16(haystack, needle []uint16, from int) int {
	if from < 0 {
		from = 0
	}
	if len(needle) == 0 || from+len(needle) > len(haystack) {
		return -1
	}
	for i := from; i+len(needle) <= len(haystack); i++ {
		match := true
		for j, c := range needle {
			if haystack[i+j] != c {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// isLeadSurrogate reports whether c is a UTF-16 lead (high) surrogate,
// used by GlobalCache to step the right number of code units past a
// surrogate pair in unicode mode.
func isLeadSurrogate(c uint32) bool { return c >= 0xD800 && c <= 0xDBFF }

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

// Package config collects the compiler's numeric tunables into one
// struct, with defaults matching the engine's bit-exact-for-compatibility
// constants, optionally overridden from a YAML document.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Limits holds every size/count/recursion bound the compiler and cache
// obey. The zero value is not useful; use Default() or Load.
type Limits struct {
	// MaxRegister is the highest register index the assembler will
	// allocate before a compile fails with "regexp too big".
	MaxRegister int `yaml:"max_register"`

	// MaxRecursion bounds the emitter's own call depth; beyond this a
	// node is pushed to the worklist and a jump is emitted instead of
	// recursing further.
	MaxRecursion int `yaml:"max_recursion"`

	// MaxCopiesCodeGenerated caps per-node specializations before the
	// trace-based emitter falls back to a single generic copy.
	MaxCopiesCodeGenerated int `yaml:"max_copies_code_generated"`

	// TableSize and TableMask size the bit-tables CheckBitInTable
	// tests against; both are bit-exact, not independently tunable,
	// but are kept as fields so config.Limits is the single source a
	// caller inspects.
	TableSize int `yaml:"table_size"`
	TableMask int `yaml:"table_mask"`

	// MaxOneByteChar, MaxUTF16CodeUnit, and MaxCodePoint bound the
	// three representations a code point travels through.
	MaxOneByteChar   int `yaml:"max_one_byte_char"`
	MaxUTF16CodeUnit int `yaml:"max_utf16_code_unit"`
	MaxCodePoint     int `yaml:"max_code_point"`

	// MaxLookaheadForBoyerMoore bounds how many positions the
	// Boyer-Moore analysis considers; PatternTooShortForBoyerMoore is
	// the minimum pattern length below which it isn't attempted.
	MaxLookaheadForBoyerMoore    int `yaml:"max_lookahead_for_boyer_moore"`
	PatternTooShortForBoyerMoore int `yaml:"pattern_too_short_for_boyer_moore"`

	// StaticOffsetsVectorSize is the number of capture slots kept in a
	// fixed buffer before register storage spills to the heap.
	StaticOffsetsVectorSize int `yaml:"static_offsets_vector_size"`

	// MaxBackSearchLimit bounds how far an end-anchored backwards scan
	// is allowed to walk.
	MaxBackSearchLimit int `yaml:"max_back_search_limit"`

	// CacheTableSlots is the number of buckets in each of the two
	// fixed-size open-addressed cache tables (compilation and
	// results), each bucket holding a primary and a displacement slot.
	CacheTableSlots int `yaml:"cache_table_slots"`

	// AutomatonNodeBudget documents the node-graph size ceiling
	// analysis.Analyze enforces as its own maxDepth constant; exposed
	// here so a future caller-supplied override has a home without
	// changing Analyze's signature today.
	AutomatonNodeBudget int `yaml:"automaton_node_budget"`
}

// Default returns the built-in limits.
func Default() Limits {
	return Limits{
		MaxRegister:                  1 << 20,
		MaxRecursion:                 2000,
		MaxCopiesCodeGenerated:       10,
		TableSize:                    128,
		TableMask:                    0x7F,
		MaxOneByteChar:               0xFF,
		MaxUTF16CodeUnit:             0xFFFF,
		MaxCodePoint:                 0x10FFFF,
		MaxLookaheadForBoyerMoore:    8,
		PatternTooShortForBoyerMoore: 2,
		StaticOffsetsVectorSize:      128,
		MaxBackSearchLimit:           1024,
		CacheTableSlots:              1024,
		AutomatonNodeBudget:          1 << 16,
	}
}

// Load reads a YAML document overriding a subset of Default's fields.
// Fields absent from the document keep their default value.
func Load(path string) (Limits, error) {
	l := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Limits{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &l); err != nil {
		return Limits{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return l, nil
}

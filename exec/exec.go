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

// Package exec is the execution orchestrator: the thin layer that picks
// between the Atom (plain substring) strategy and the full Irregexp
// matcher, manages the compilation cache, prepares per-match register
// buffers, invokes the compiled program, and reshapes captures into a
// MatchInfo record.
package exec

import (
	"fmt"
	"log"

	"golang.org/x/exp/maps"

	"github.com/relang/rex/ast"
	"github.com/relang/rex/asm"
	"github.com/relang/rex/cache"
	"github.com/relang/rex/compiler"
	"github.com/relang/rex/config"
	"github.com/relang/rex/interp"
	"github.com/relang/rex/search"
)

// Strategy names which of the two execution paths a compiled pattern
// takes.
type Strategy int

const (
	// StrategyIrregexp runs the full compiled node-graph matcher.
	StrategyIrregexp Strategy = iota
	// StrategyAtom runs a plain substring search, bypassing the node
	// graph entirely.
	StrategyAtom
)

func (s Strategy) String() string {
	if s == StrategyAtom {
		return "atom"
	}
	return "irregexp"
}

// Regexp is the compiled artifact Engine.Compile hands back: everything
// Exec needs to run a pattern against a subject, without re-deriving the
// strategy decision or re-walking the AST.
type Regexp struct {
	Source       string
	Flags        ast.Flags
	CaptureCount int
	CaptureNames map[string]int
	Strategy     Strategy

	// atomNeedle holds the literal's UTF-16 code units when
	// Strategy == StrategyAtom.
	atomNeedle []uint16

	// tree and fingerprint let the engine lazily compile the
	// representation-specific (one-byte/two-byte) bytecode.Program the
	// first time a subject of that width is seen, rather than eagerly
	// compiling both up front.
	tree        ast.Node
	fingerprint uint64
}

// Engine owns the process-wide caches and the injected substring-search
// primitive. A nil Engine is not valid; use NewEngine.
type Engine struct {
	limits    config.Limits
	oneByte   *cache.CompilationCache
	twoByte   *cache.CompilationCache
	results   *cache.ResultsCache
	primitive search.Primitive
	logger    *log.Logger
}

// NewEngine returns an Engine with caches sized per limits.CacheTableSlots
// and the default substring-search primitive.
func NewEngine(limits config.Limits) *Engine {
	return &Engine{
		limits:    limits,
		oneByte:   cache.New(limits.CacheTableSlots),
		twoByte:   cache.New(limits.CacheTableSlots),
		results:   cache.NewResults(limits.CacheTableSlots),
		primitive: search.Default{},
		logger:    log.Default(),
	}
}

// SetPrimitive overrides the substring-search primitive the atom strategy
// uses, e.g. to inject one backed by SIMD or a precomputed skip table.
func (e *Engine) SetPrimitive(p search.Primitive) { e.primitive = p }

// ResultsCache exposes the engine's results cache to GlobalCache, which
// needs to read and populate it directly.
func (e *Engine) ResultsCache() *cache.ResultsCache { return e.results }

// Compile looks the (pattern, flags) pair up in the compilation cache;
// on a miss it decides between the atom and irregexp strategies and
// builds a Regexp wrapping whichever applies.
func (e *Engine) Compile(pattern string, tree ast.Node, flags ast.Flags, captureCount int, names map[string]int) (*Regexp, error) {
	fp := e.oneByte.Fingerprint(pattern, flags)
	// Clone the caller's name map: CompiledRegExp.CaptureNames is handed
	// out of the cache by reference to every subsequent caller, so it
	// must not alias a map the original caller might still mutate.
	ownNames := maps.Clone(names)

	if needle, ok := atomNeedle(tree, flags); ok {
		return &Regexp{
			Source:       pattern,
			Flags:        flags,
			CaptureCount: captureCount,
			CaptureNames: ownNames,
			Strategy:     StrategyAtom,
			atomNeedle:   needle,
			tree:         tree,
			fingerprint:  fp,
		}, nil
	}

	return &Regexp{
		Source:       pattern,
		Flags:        flags,
		CaptureCount: captureCount,
		CaptureNames: ownNames,
		Strategy:     StrategyIrregexp,
		tree:         tree,
		fingerprint:  fp,
	}, nil
}

// maxAtomAlphabet bounds how many distinct code units a literal may
// contain and still qualify for the atom strategy.
const maxAtomAlphabet = 4

// atomNeedle reports whether tree is eligible for the atom strategy: a
// single literal, case-sensitive, non-sticky, with few enough distinct
// code units that straight substring search beats the compiled matcher's
// overhead.
func atomNeedle(tree ast.Node, flags ast.Flags) ([]uint16, bool) {
	atom, ok := tree.(ast.Atom)
	if !ok || flags.IgnoreCase || flags.Sticky || len(atom.Chars) == 0 {
		return nil, false
	}
	seen := map[uint16]bool{}
	for _, c := range atom.Chars {
		seen[c] = true
		if len(seen) > maxAtomAlphabet {
			return nil, false
		}
	}
	return atom.Chars, true
}

// compiledFor returns (compiling on first use) the bytecode program for
// mode, caching it keyed by fingerprint in the mode-specific table since
// a pattern's one-byte and two-byte programs differ.
func (e *Engine) compiledFor(r *Regexp, mode asm.Mode) (*compiler.CompiledRegExp, error) {
	c := e.tableFor(mode)
	if got, ok := c.Get(r.fingerprint); ok {
		return got, nil
	}
	compiled, err := compiler.Compile(r.Source, r.tree, r.Flags, r.CaptureCount, mode)
	if err != nil {
		return nil, err
	}
	c.Put(r.fingerprint, compiled)
	e.logger.Printf("exec: compiled %q mode=%v registers=%d", r.Source, mode, compiled.RegisterCount)
	return compiled, nil
}

func (e *Engine) tableFor(mode asm.Mode) *cache.CompilationCache {
	if mode == asm.TwoByte {
		return e.twoByte
	}
	return e.oneByte
}

// MatchResult is the tri-state result of an Exec call: a match, a plain
// non-match, or a host-level error during matching.
type MatchResult int

const (
	Success MatchResult = iota
	Failure
	Exception
)

// Exec runs r against subject starting no earlier than fromIndex (0-based
// code-unit index), returning a populated MatchInfo on Success. On
// Failure the subject simply has no match at-or-after fromIndex; on
// Exception a host-level error occurred during matching and info is not
// meaningful.
func (e *Engine) Exec(r *Regexp, subject string, fromIndex int) (MatchResult, *MatchInfo, error) {
	sub := flattenSubject(subject)
	if r.Strategy == StrategyAtom {
		return e.execAtom(r, sub, fromIndex)
	}
	return e.execIrregexp(r, sub, fromIndex)
}

func (e *Engine) execAtom(r *Regexp, sub flatSubject, fromIndex int) (MatchResult, *MatchInfo, error) {
	idx := sub.indexOf(r.atomNeedle, fromIndex, e.primitive)
	if idx < 0 {
		return Failure, nil, nil
	}
	info := NewMatchInfo(1)
	info.SetCapture(0, idx, idx+len(r.atomNeedle))
	return Success, info, nil
}

// execIrregexp prepares a register buffer, ensures a compiled variant
// exists for the subject's representation, and invokes the interpreter.
func (e *Engine) execIrregexp(r *Regexp, sub flatSubject, fromIndex int) (MatchResult, *MatchInfo, error) {
	mode := sub.mode()

	compiled, err := e.compiledFor(r, mode)
	if err != nil {
		return Exception, nil, fmt.Errorf("exec: compile %v variant: %w", mode, err)
	}

	registers := make([]int, compiled.RegisterCount)
	for i := range registers {
		registers[i] = -1
	}

	ok, err := interp.Run(compiled.Program, sub.toInterp(), fromIndex, registers)
	if err != nil {
		return Exception, nil, fmt.Errorf("exec: %w", err)
	}
	if !ok {
		return Failure, nil, nil
	}

	info := NewMatchInfo(r.CaptureCount + 1)
	for i := 0; i <= r.CaptureCount; i++ {
		info.SetCapture(i, registers[2*i], registers[2*i+1])
	}
	return Success, info, nil
}

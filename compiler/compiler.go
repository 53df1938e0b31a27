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

package compiler

import (
	"github.com/google/uuid"

	"github.com/relang/rex/analysis"
	"github.com/relang/rex/asm"
	"github.com/relang/rex/asm/bytecode"
	"github.com/relang/rex/ast"
	"github.com/relang/rex/charset"
	"github.com/relang/rex/emit"
	"github.com/relang/rex/graph"
	"github.com/relang/rex/onebyte"
)

// defaultFlushBudget bounds how many times a single pattern's emission may
// flush the trace before the emitter is guaranteed to make progress.
const defaultFlushBudget = 10000

// CompiledRegExp is the artifact Compile hands back: the assembled
// program plus the metadata the executor needs without re-deriving it
// from the graph.
type CompiledRegExp struct {
	ID           uuid.UUID
	Program      *bytecode.Program
	Flags        ast.Flags
	CaptureCount int
	RegisterCount int
}

// Compile builds the node graph for pattern (wrapping it in the implicit
// capture-0 and, unless sticky, an unanchored lazy prefix), analyzes it,
// applies the one-byte filter when mode is asm.OneByte, and emits a
// bytecode.Program: AST + flags flow through lowering, analysis, the
// one-byte filter, and assembly to produce the compiled program.
func Compile(source string, pattern ast.Node, flags ast.Flags, captureCount int, mode asm.Mode) (*CompiledRegExp, error) {
	regs := NewRegisters(captureCount)
	lw := newLowerer(flags, regs)

	accept := &graph.EndNode{Kind: graph.Accept}
	storeEnd := &graph.ActionNode{Kind: graph.StorePosition, Register: 1, IsCapture: true, OnSuccess: accept}
	body, err := lw.Lower(pattern, storeEnd)
	if err != nil {
		return nil, err
	}
	storeStart := &graph.ActionNode{Kind: graph.StorePosition, Register: 0, IsCapture: true, OnSuccess: body}

	var root graph.Node = storeStart
	if !flags.Sticky && !isAnchored(pattern, flags) {
		root, err = prependUnanchoredPrefix(lw, root)
		if err != nil {
			return nil, err
		}
	}

	if err := analysis.Analyze(root); err != nil {
		return nil, err
	}

	if mode == asm.OneByte {
		root = onebyte.Filter(root)
		if root == nil {
			return nil, ErrCannotMatchOneByte
		}
	}

	assembler := bytecode.New(mode)
	backtrack := assembler.NewLabel()
	e := emit.New(assembler, mode, flags.Unicode)
	if err := e.Run(root, backtrack, defaultFlushBudget); err != nil {
		assembler.AbortCodeGeneration()
		return nil, err
	}
	assembler.Bind(backtrack)
	assembler.Backtrack()

	code, err := assembler.GetCode(source)
	if err != nil {
		return nil, err
	}
	program := code.(*bytecode.Program)
	program.CaptureCount = captureCount
	program.Flags = flags.Pack()

	id, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}

	return &CompiledRegExp{
		ID:            id,
		Program:       program,
		Flags:         flags,
		CaptureCount:  captureCount,
		RegisterCount: regs.Count(),
	}, nil
}

// isAnchored reports whether pattern is already pinned to the start of
// the subject, in which case no unanchored `.*?` prefix is needed. A
// multiline `^` anchors to line starts, not the subject start, so it
// doesn't count.
func isAnchored(pattern ast.Node, flags ast.Flags) bool {
	switch v := pattern.(type) {
	case ast.Assertion:
		return v.Kind == ast.AtStart && !flags.Multiline
	case ast.Sequence:
		return len(v.Elements) > 0 && isAnchored(v.Elements[0], flags)
	case ast.Capture:
		return isAnchored(v.Body, flags)
	case ast.Alternation:
		if len(v.Alternatives) == 0 {
			return false
		}
		for _, alt := range v.Alternatives {
			if !isAnchored(alt, flags) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// prependUnanchoredPrefix wraps root in a lazily-repeated "any character"
// scan, the way an unanchored search is implemented without the executor
// retrying the whole program at every start offset.
func prependUnanchoredPrefix(lw *lowerer, root graph.Node) (graph.Node, error) {
	prefix := ast.Quantifier{
		Min:    0,
		Max:    -1,
		Greedy: false,
		Body:   ast.CharClass{Ranges: charset.List{{From: 0, To: charset.MaxCodePoint}}, DotClass: true},
	}
	return lw.Lower(prefix, root)
}

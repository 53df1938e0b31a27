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

package graph

// ActionKind tags an ActionNode's payload.
type ActionKind int

const (
	SetRegister ActionKind = iota
	IncrementRegister
	StorePosition
	ClearCaptures
	BeginSubmatch
	PositiveSubmatchSuccess
	EmptyMatchCheck
)

// ActionNode performs a register edit or submatch bookkeeping step, then
// falls through to OnSuccess.
type ActionNode struct {
	Base

	Kind ActionKind

	Register int // SET_REGISTER, INCREMENT_REGISTER, STORE_POSITION
	Value    int // SET_REGISTER's value, INCREMENT_REGISTER's delta

	IsCapture bool // STORE_POSITION: true if this register is a capture slot

	RangeFrom, RangeTo int // CLEAR_CAPTURES

	StackRegister, PositionRegister int // BEGIN_SUBMATCH, POSITIVE_SUBMATCH_SUCCESS
	ClearRangeFrom, ClearRangeTo    int // POSITIVE_SUBMATCH_SUCCESS

	StartRegister, RepetitionRegister int // EMPTY_MATCH_CHECK
	Limit                             int // EMPTY_MATCH_CHECK: minimum repeat count

	OnSuccess Node
}

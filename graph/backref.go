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

// BackReferenceFlags carries match-mode bits relevant only to a
// back-reference comparison.
type BackReferenceFlags struct {
	IgnoreCase bool
	Unicode    bool
}

// BackReferenceNode matches exactly the text previously captured between
// StartRegister and EndRegister, where EndRegister must equal
// StartRegister+1.
type BackReferenceNode struct {
	Base

	StartRegister, EndRegister int
	Flags                      BackReferenceFlags
	ReadBackward               bool

	OnSuccess Node
}

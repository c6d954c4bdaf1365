/*
 *  Copyright (c) 2025, WSO2 LLC. (http://www.wso2.org) All Rights Reserved.
 *
 *  Licensed under the Apache License, Version 2.0 (the "License");
 *  you may not use this file except in compliance with the License.
 *  You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 *  Unless required by applicable law or agreed to in writing, software
 *  distributed under the License is distributed on an "AS IS" BASIS,
 *  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *  See the License for the specific language governing permissions and
 *  limitations under the License.
 *
 */

package model

// WitType describes a WebAssembly component interface type, as reported by
// the execution engine for a function's parameters and results. It is a
// closed tagged variant mirroring the component model's type grammar, used
// by the Value Bridge to generate JSON Schema.
type WitType struct {
	Kind Kind // primitive kinds, or KindList/Record/Tuple/Variant/Enum/Option/Result/Flags/Resource

	// List
	Elem *WitType

	// Record
	Fields []WitField

	// Tuple
	Elems []WitType

	// Variant
	Cases []WitCase

	// Enum
	Names []string

	// Option / Result
	Some *WitType // Option's payload type
	Ok   *WitType // Result's Ok payload type, nil if Ok carries nothing
	Err  *WitType // Result's Err payload type, nil if Err carries nothing
	HasOk  bool   // Result only: whether Ok case carries a payload at all
	HasErr bool   // Result only: whether Err case carries a payload at all

	// Flags
	FlagNames []string

	// Resource
	ResourceName string
}

type WitField struct {
	Name string
	Type WitType
}

// WitCase is one arm of a Variant: a tag name and an optional payload type.
type WitCase struct {
	Name string
	Type *WitType // nil if this case carries no payload
}

// FunctionSignature is what the execution engine reports for one exported
// function: its ordered parameters and ordered results. The Invoker uses it
// to materialize JSON arguments into typed values and to allocate result
// slots.
type FunctionSignature struct {
	Name    string
	Params  []WitField
	Results []WitType
}

// reactor.go - a reactor reboot simulator over disjoint cuboid sets.
// Copyright (C) 2021 Daniel C. Brotsky.
//
// This program is free software; you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation; either version 2 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License along
// with this program; if not, write to the Free Software Foundation, Inc.,
// 51 Franklin Street, Fifth Floor, Boston, MA 02110-1301 USA.
// Licensed under the LGPL v3.  See the LICENSE file for details

package reactor

import (
	"fmt"
)

/*

Errors

*/

// An Error describes a problem with an instruction, a region, or
// a requested operation.  It can produce an error message in
// English, but its main function is to let clients (including
// web clients, which receive it as JSON) tell exactly which
// thing failed to meet which condition.
type Error struct {
	Scope     ErrorScope     `json:"scope"`
	Structure ErrorStructure `json:"structure,omitempty"`
	Condition ErrorCondition `json:"condition,omitempty"`
	Attribute ErrorAttribute `json:"attribute,omitempty"`
	Values    ErrorData      `json:"values,omitempty"`
	Message   string         `json:"message,omitempty"` // custom message
}

// An ErrorScope explains what type of thing the error is
// referring to.  Instruction-scoped errors carry the (1-based)
// input line number as their first value.
type ErrorScope int

// Constants for the various error scopes.
const (
	UnknownScope ErrorScope = iota
	RequestScope
	ArgumentScope
	InstructionScope
	RegionScope
	InternalScope
	MaxScope
)

// The ErrorStructure denotes whether the problem is in the
// overall Scope, an Attribute of the Scope, or the value of an
// Attribute of the Scope.
type ErrorStructure int

// Constants for the various structure codes.
const (
	UnknownStructure ErrorStructure = iota
	ScopeStructure
	AttributeStructure
	AttributeValueStructure
	MaxStructure
)

// The ErrorCondition is the predicate that the
// scope/attribute/value failed to satisfy.
type ErrorCondition int

// Constants for the various error conditions
const (
	UnknownCondition ErrorCondition = iota
	GeneralCondition
	EmptyArgumentCondition
	NotAnIntegerCondition
	MissingPrefixCondition
	MissingSeparatorCondition
	WrongFieldCountCondition
	UnknownKeywordCondition
	InvertedSpanCondition
	UnknownModeCondition
	NoMoreInstructionsCondition
	OutOfRangeCondition
	OverlapCondition
	MaxCondition
)

// An ErrorAttribute names the attribute that has a problem.
type ErrorAttribute int

// Constants for the various attribute codes.
const (
	UnknownAttribute ErrorAttribute = iota
	DecodeAttribute
	EncodeAttribute
	URLAttribute
	LocationAttribute
	NamedAttribute
	KeywordAttribute
	AxisAttribute
	SpanAttribute
	BoundAttribute
	RegionAttribute
	ModeAttribute
	StepAttribute
	SnapshotAttribute
	MaxAttribute
)

// The ErrorData provides details about the thing that failed to
// meet the predicate (such as the value of an attribute) as well
// as the predicate itself (such as the expected prefix).
//
// Every item in the slice of ErrorData must be
// JSON-serializable, so it can be returned to web clients.
type ErrorData []interface{}

// Return an error string from an Error.  If the Error has a
// pre-canned message, this will use it, otherwise it will
// produce an appropriate (English, non-localized) message.
func (e Error) Error() string {
	es := e.Message
	if len(es) > 0 {
		return es
	}
	values := e.Values
	nextVal := func() interface{} {
		if len(values) == 0 {
			return "<unknown>"
		}
		val := values[0]
		values = values[1:]
		return val
	}
	switch e.Scope {
	case RequestScope:
		es = "Invalid request: "
	case ArgumentScope:
		es = "Invalid argument: "
	case InstructionScope:
		es = fmt.Sprintf("Problem in instruction on line %v: ", nextVal())
	case RegionScope:
		es = "Invalid region: "
	case InternalScope:
		es = "Internal logic error: "
	default:
		es = "Unknown error: "
	}
	if e.Structure == AttributeStructure || e.Structure == AttributeValueStructure {
		switch e.Attribute {
		case DecodeAttribute:
			es += "JSON Decode error"
		case EncodeAttribute:
			es += "JSON Encode error"
		case URLAttribute:
			es += "Resource path"
		case NamedAttribute:
			es += fmt.Sprint(nextVal())
		case KeywordAttribute:
			es += "Keyword"
		case AxisAttribute:
			es += "Axis"
		case SpanAttribute:
			es += "Span"
		case BoundAttribute:
			es += "Bound"
		case RegionAttribute:
			es += "Region"
		case ModeAttribute:
			es += "Mode"
		case StepAttribute:
			es += "Step"
		case SnapshotAttribute:
			es += "Snapshot"
		case LocationAttribute:
			es += fmt.Sprintf("In reactor.%v", nextVal())
		default:
			es += "<Unknown attribute>"
		}
		if e.Structure == AttributeValueStructure {
			es += " (" + fmt.Sprint(nextVal()) + ")"
		}
		es += ": "
	}
	switch e.Condition {
	case GeneralCondition:
		es += fmt.Sprint(nextVal())
	case EmptyArgumentCondition:
		es += "Required value was missing"
	case NotAnIntegerCondition:
		es += "Not a decimal integer"
	case MissingPrefixCondition:
		es += fmt.Sprintf("Must start with %q", nextVal())
	case MissingSeparatorCondition:
		es += fmt.Sprintf("Must contain %q", nextVal())
	case WrongFieldCountCondition:
		es += fmt.Sprintf("Must have exactly %v comma-separated fields", nextVal())
	case UnknownKeywordCondition:
		es += "Must be 'on' or 'off'"
	case InvertedSpanCondition:
		es += "Low bound is greater than high bound"
	case UnknownModeCondition:
		es += "Must be 'init' or 'full'"
	case NoMoreInstructionsCondition:
		es += fmt.Sprintf("All %v instructions have been processed", nextVal())
	case OutOfRangeCondition:
		es += fmt.Sprintf("Must be between 0 and %v", nextVal())
	case OverlapCondition:
		es += fmt.Sprintf("Regions %v and %v overlap", nextVal(), nextVal())
	default:
		es += fmt.Sprintf("Supplemental data is %v", values)
	}
	return es
}

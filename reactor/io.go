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
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

/*

Parsing instructions

*/

const (
	onKeyword      = "on"
	offKeyword     = "off"
	spanSeparator  = ".."
	fieldSeparator = ","
)

var axisPrefixes = []string{"x=", "y=", "z="}

// ParseRegion parses the text form of a region, such as
// "x=1..10,y=11..20,z=-21..30".  Axes must appear in x, y, z
// order.
func ParseRegion(s string) (Region, error) {
	fields := strings.Split(strings.TrimSpace(s), fieldSeparator)
	if len(fields) != len(axisPrefixes) {
		return Region{}, Error{
			Scope:     ArgumentScope,
			Structure: AttributeValueStructure,
			Attribute: RegionAttribute,
			Condition: WrongFieldCountCondition,
			Values:    ErrorData{s, len(axisPrefixes)},
		}
	}
	var spans [3]Span
	for i, f := range fields {
		span, err := parseSpan(axisPrefixes[i], strings.TrimSpace(f))
		if err != nil {
			return Region{}, err
		}
		spans[i] = span
	}
	return Region{spans[0], spans[1], spans[2]}, nil
}

func parseSpan(prefix, field string) (Span, error) {
	rest, ok := strings.CutPrefix(field, prefix)
	if !ok {
		return Span{}, Error{
			Scope:     ArgumentScope,
			Structure: AttributeValueStructure,
			Attribute: AxisAttribute,
			Condition: MissingPrefixCondition,
			Values:    ErrorData{field, prefix},
		}
	}
	los, his, ok := strings.Cut(rest, spanSeparator)
	if !ok {
		return Span{}, Error{
			Scope:     ArgumentScope,
			Structure: AttributeValueStructure,
			Attribute: SpanAttribute,
			Condition: MissingSeparatorCondition,
			Values:    ErrorData{rest, spanSeparator},
		}
	}
	lo, err := parseBound(los)
	if err != nil {
		return Span{}, err
	}
	hi, err := parseBound(his)
	if err != nil {
		return Span{}, err
	}
	return NewSpan(lo, hi)
}

func parseBound(s string) (int64, error) {
	if s == "" {
		return 0, Error{
			Scope:     ArgumentScope,
			Structure: AttributeStructure,
			Attribute: BoundAttribute,
			Condition: EmptyArgumentCondition,
		}
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, Error{
			Scope:     ArgumentScope,
			Structure: AttributeValueStructure,
			Attribute: BoundAttribute,
			Condition: NotAnIntegerCondition,
			Values:    ErrorData{s},
		}
	}
	return v, nil
}

// ParseInstruction parses one line of a reboot procedure, such
// as "on x=10..12,y=10..12,z=10..12".
func ParseInstruction(line string) (Instruction, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Instruction{}, Error{
			Scope:     ArgumentScope,
			Structure: ScopeStructure,
			Condition: EmptyArgumentCondition,
		}
	}
	keyword, rest, _ := strings.Cut(line, " ")
	var on bool
	switch keyword {
	case onKeyword:
		on = true
	case offKeyword:
		on = false
	default:
		return Instruction{}, Error{
			Scope:     ArgumentScope,
			Structure: AttributeValueStructure,
			Attribute: KeywordAttribute,
			Condition: UnknownKeywordCondition,
			Values:    ErrorData{keyword},
		}
	}
	region, err := ParseRegion(rest)
	if err != nil {
		return Instruction{}, err
	}
	return Instruction{On: on, Region: region}, nil
}

// ReadInstructions parses a whole reboot procedure, one
// instruction per line.  Blank lines are ignored.  A line that
// doesn't parse stops the read, and the returned Error is
// scoped to that line.
func ReadInstructions(r io.Reader) ([]Instruction, error) {
	var instrs []Instruction
	scanner := bufio.NewScanner(r)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		instr, err := ParseInstruction(line)
		if err != nil {
			return nil, lineError(lineNo, err)
		}
		instrs = append(instrs, instr)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return instrs, nil
}

// ParseInstructions is ReadInstructions on a string.
func ParseInstructions(text string) ([]Instruction, error) {
	return ReadInstructions(strings.NewReader(text))
}

// lineError re-scopes an argument error to the given input line.
func lineError(lineNo int, err error) error {
	e, ok := err.(Error)
	if !ok {
		return err
	}
	e.Scope = InstructionScope
	e.Values = append(ErrorData{lineNo}, e.Values...)
	return e
}

/*

Print forms

*/

// String gives the same form that ParseRegion accepts.
func (r Region) String() string {
	return fmt.Sprintf("x=%v,y=%v,z=%v", r.X, r.Y, r.Z)
}

// String gives the same form that ParseInstruction accepts.
func (i Instruction) String() string {
	if i.On {
		return onKeyword + " " + i.Region.String()
	}
	return offKeyword + " " + i.Region.String()
}

// FormatInstructions renders a procedure in the form
// ReadInstructions accepts, one instruction per line.
func FormatInstructions(instrs []Instruction) string {
	var sb strings.Builder
	for _, instr := range instrs {
		sb.WriteString(instr.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

// String gives a one-line summary of the state.
func (s State) String() string {
	result := fmt.Sprintf("mode %s, step %d of %d, %d regions, volume %d",
		s.Mode, s.Step, s.Steps, s.Regions, s.Volume)
	if s.Done {
		result += " (done)"
	}
	return result
}

// String gives a pretty-printed view of a reactor, for
// debugging and the CLI.
func (r *Reactor) String() string {
	if r == nil {
		return ""
	}
	return r.State().String() + "\n" + r.RegionsString()
}

// RegionsString lists the on space, one region per line, with
// each region's volume.
func (r *Reactor) RegionsString() (result string) {
	if r == nil {
		return
	}
	for i, m := range r.Regions() {
		result += fmt.Sprintf("  #%d: %v (%d)\n", i+1, m, m.Volume())
	}
	return
}

/*

Markdown-formatted tables, for documentation

*/

// RegionsMarkdown returns a markdown-format table of the on
// space, with a closing total row.
func (r *Reactor) RegionsMarkdown() (result string) {
	if r == nil {
		return
	}
	result += "|     |  x  |  y  |  z  | volume |\n"
	result += "|:---:|:---:|:---:|:---:|---:|\n"
	for i, m := range r.Regions() {
		result += fmt.Sprintf("|**%d**| %v | %v | %v | %d |\n",
			i+1, m.X, m.Y, m.Z, m.Volume())
	}
	result += fmt.Sprintf("|**total**| | | | %d |\n", r.Volume())
	return
}

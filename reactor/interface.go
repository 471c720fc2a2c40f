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

// Package reactor simulates the reboot of a reactor core made of
// integer-coordinate cubes.
//
// A reboot procedure is a sequence of instructions, each of which
// turns on or off every cube in an axis-aligned cuboid (a
// Region).  The coordinate ranges are far too large to track
// cubes individually, so the "on" space is kept as a RegionSet: a
// set of regions no two of which overlap.  Turning a region on
// or off splits each overlapping member into at most seven
// pieces, keeps the pieces that lie outside the instruction's
// region, and (for "on") adds the region itself.  The volume of
// the on space is then just the sum of the members' volumes.
//
// A Reactor replays a procedure against a RegionSet, either in
// full or (in InitMode) restricted to the instructions whose
// region lies inside the 101-cube initialization region around
// the origin.  Reactors can be stepped one instruction at a
// time, and their state can be saved and restored as a Snapshot,
// which is how sessions support undo.
package reactor

import (
	"strings"
)

// A Mode says which instructions of a procedure are applied.
type Mode int

const (
	// InitMode applies only instructions inside InitRegion.
	InitMode Mode = iota
	// FullMode applies every instruction.
	FullMode
)

// Mode names, as used in JSON, storage, and the CLI.
const (
	InitModeName = "init"
	FullModeName = "full"
)

func (m Mode) String() string {
	if m == InitMode {
		return InitModeName
	}
	return FullModeName
}

// ParseMode returns the mode with the given name.  The empty
// name means FullMode.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(name) {
	case InitModeName:
		return InitMode, nil
	case FullModeName, "":
		return FullMode, nil
	}
	return FullMode, Error{
		Scope:     ArgumentScope,
		Structure: AttributeValueStructure,
		Attribute: ModeAttribute,
		Condition: UnknownModeCondition,
		Values:    ErrorData{name},
	}
}

// An Instruction turns a region on or off.
type Instruction struct {
	On     bool   `json:"on"`
	Region Region `json:"region"`
}

// appliesIn reports whether the instruction is used in mode.
func (i Instruction) appliesIn(m Mode) bool {
	return m == FullMode || i.Region.IsContainedBy(InitRegion)
}

// A Summary is the transportable form of a reactor's procedure:
// everything needed to make a fresh Reactor.
type Summary struct {
	Mode         string        `json:"mode"`
	Instructions []Instruction `json:"instructions"`
}

// The State of a reactor gives its position in the procedure and
// the current on volume.
type State struct {
	Mode    string `json:"mode"`
	Step    int    `json:"step"`
	Steps   int    `json:"steps"`
	Done    bool   `json:"done"`
	Volume  int64  `json:"volume"`
	Regions int    `json:"regions"`
}

// A Snapshot captures the on space of a reactor after some
// number of steps, so it can be restored later without
// replaying the procedure.
type Snapshot struct {
	Step    int      `json:"step"`
	Regions []Region `json:"regions"`
}

// An Update is the result of one step: the instruction that was
// consumed, whether the reactor's mode applied it, and the
// state afterwards.
type Update struct {
	Instruction Instruction `json:"instruction"`
	Applied     bool        `json:"applied"`
	State       State       `json:"state"`
}

// Volumes are the two terminal readouts of a procedure.
type Volumes struct {
	Init int64 `json:"init"`
	Full int64 `json:"full"`
}

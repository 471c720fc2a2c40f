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

/*

Replaying a reboot procedure

A reactor holds a procedure (its instructions, in input order),
a mode, and the on space built so far.  Each step consumes the
next instruction: if the mode applies it, the region is added to
or subtracted from the on space; if not, the step is skipped but
still counts.  Nothing is ever reordered or retried, so a run is
one pass over the procedure.

The two readouts of a procedure (init-only and full) come from
two independent replays, each starting from an empty on space.

*/

// A Reactor replays one procedure in one mode.  It is not safe
// for concurrent use; each session owns its own.
type Reactor struct {
	instructions []Instruction
	mode         Mode
	regions      *RegionSet
	step         int

	// Debug makes every applied step verify that the on space
	// is still disjoint, and panic with the Error if it isn't.
	Debug bool
}

// New makes a reactor at step 0 (nothing on) for the given
// procedure and mode.  The instructions are copied.
func New(instructions []Instruction, mode Mode) *Reactor {
	return &Reactor{
		instructions: append([]Instruction(nil), instructions...),
		mode:         mode,
		regions:      NewRegionSet(),
	}
}

// NewFromSummary makes a fresh reactor from a Summary.
func NewFromSummary(s *Summary) (*Reactor, error) {
	if s == nil {
		return nil, Error{
			Scope:     ArgumentScope,
			Structure: ScopeStructure,
			Condition: EmptyArgumentCondition,
		}
	}
	mode, err := ParseMode(s.Mode)
	if err != nil {
		return nil, err
	}
	return New(s.Instructions, mode), nil
}

// ComputeVolumes replays the procedure once in each mode and
// returns both readouts.
func ComputeVolumes(instructions []Instruction) Volumes {
	return Volumes{
		Init: New(instructions, InitMode).Run(),
		Full: New(instructions, FullMode).Run(),
	}
}

// Mode is the reactor's mode.
func (r *Reactor) Mode() Mode {
	return r.mode
}

// Done is true when every instruction has been consumed.
func (r *Reactor) Done() bool {
	return r.step >= len(r.instructions)
}

// Step consumes the next instruction, applying it if the mode
// allows.  Stepping a reactor that is done returns an Error.
func (r *Reactor) Step() (*Update, error) {
	if r.Done() {
		return nil, Error{
			Scope:     RequestScope,
			Structure: ScopeStructure,
			Condition: NoMoreInstructionsCondition,
			Values:    ErrorData{len(r.instructions)},
		}
	}
	instr := r.instructions[r.step]
	applied := instr.appliesIn(r.mode)
	if applied {
		if instr.On {
			r.regions.Add(instr.Region)
		} else {
			r.regions.Subtract(instr.Region)
		}
		if r.Debug {
			if err := r.regions.CheckDisjoint(); err != nil {
				panic(err)
			}
		}
	}
	r.step++
	return &Update{Instruction: instr, Applied: applied, State: r.State()}, nil
}

// Run consumes every remaining instruction and returns the
// resulting on volume.
func (r *Reactor) Run() int64 {
	for !r.Done() {
		r.Step()
	}
	return r.Volume()
}

// Reset returns the reactor to step 0 with nothing on.
func (r *Reactor) Reset() {
	r.regions = NewRegionSet()
	r.step = 0
}

// Volume is the current on volume.
func (r *Reactor) Volume() int64 {
	return r.regions.TotalVolume()
}

// Regions lists the current on space.
func (r *Reactor) Regions() []Region {
	return r.regions.Regions()
}

// Check verifies that the on space is pairwise disjoint.
func (r *Reactor) Check() error {
	return r.regions.CheckDisjoint()
}

// Instructions returns a copy of the procedure.
func (r *Reactor) Instructions() []Instruction {
	return append([]Instruction(nil), r.instructions...)
}

// State summarizes where the reactor is.
func (r *Reactor) State() State {
	return State{
		Mode:    r.mode.String(),
		Step:    r.step,
		Steps:   len(r.instructions),
		Done:    r.Done(),
		Volume:  r.regions.TotalVolume(),
		Regions: r.regions.Len(),
	}
}

// Summary returns the procedure and mode, from which an
// equivalent fresh reactor can be made.
func (r *Reactor) Summary() *Summary {
	return &Summary{Mode: r.mode.String(), Instructions: r.Instructions()}
}

// Snapshot captures the current step and on space.
func (r *Reactor) Snapshot() *Snapshot {
	return &Snapshot{Step: r.step, Regions: r.regions.Regions()}
}

// Restore puts the reactor back into a previously captured
// state.  Snapshots usually come back from a cache, so they are
// checked: the step must be in range and the regions must be
// disjoint.  On error the reactor is unchanged.
func (r *Reactor) Restore(s *Snapshot) error {
	if s == nil {
		return Error{
			Scope:     ArgumentScope,
			Structure: AttributeStructure,
			Attribute: SnapshotAttribute,
			Condition: EmptyArgumentCondition,
		}
	}
	if s.Step < 0 || s.Step > len(r.instructions) {
		return Error{
			Scope:     ArgumentScope,
			Structure: AttributeValueStructure,
			Attribute: StepAttribute,
			Condition: OutOfRangeCondition,
			Values:    ErrorData{s.Step, len(r.instructions)},
		}
	}
	rs := NewRegionSet()
	for _, m := range s.Regions {
		if _, err := NewRegion(m.X, m.Y, m.Z); err != nil {
			return err
		}
		rs.regions[m] = struct{}{}
	}
	if err := rs.CheckDisjoint(); err != nil {
		return err
	}
	r.regions, r.step = rs, s.Step
	return nil
}

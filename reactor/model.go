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
	"slices"
)

// A RegionSet is the "on" space of the reactor, kept as a set of
// regions no two of which overlap.  Every public mutation keeps
// that invariant, which is what lets TotalVolume be a plain sum.
//
// The zero value is not usable; make one with NewRegionSet.
type RegionSet struct {
	regions map[Region]struct{}
}

// NewRegionSet returns an empty set.
func NewRegionSet() *RegionSet {
	return &RegionSet{regions: make(map[Region]struct{})}
}

// Len is the number of member regions (not their volume).
func (rs *RegionSet) Len() int {
	return len(rs.regions)
}

// Has reports whether r is itself a member of the set.
func (rs *RegionSet) Has(r Region) bool {
	_, ok := rs.regions[r]
	return ok
}

// Add turns on every cell of r.
func (rs *RegionSet) Add(r Region) {
	for m := range rs.regions {
		if r.IsContainedBy(m) {
			// already on
			return
		}
	}

	var toRemove, toAdd []Region
	for m := range rs.regions {
		if !m.Overlaps(r) {
			continue
		}
		// m was disjoint from every other member, so its pieces
		// are too; only the pieces outside r need to go back in.
		toRemove = append(toRemove, m)
		for _, piece := range r.SplitAgainst(m) {
			if !piece.Overlaps(r) {
				toAdd = append(toAdd, piece)
			}
		}
	}
	toAdd = append(toAdd, r)
	rs.replace(toRemove, toAdd)
}

// Subtract turns off every cell of r.
func (rs *RegionSet) Subtract(r Region) {
	var toRemove, toAdd []Region
	for m := range rs.regions {
		if !m.Overlaps(r) {
			continue
		}
		toRemove = append(toRemove, m)
		for _, piece := range r.SplitAgainst(m) {
			if !piece.Overlaps(r) {
				toAdd = append(toAdd, piece)
			}
		}
	}
	rs.replace(toRemove, toAdd)
}

func (rs *RegionSet) replace(toRemove, toAdd []Region) {
	for _, m := range toRemove {
		delete(rs.regions, m)
	}
	for _, m := range toAdd {
		rs.regions[m] = struct{}{}
	}
}

// TotalVolume is the number of cells that are on.
func (rs *RegionSet) TotalVolume() int64 {
	var total int64
	for m := range rs.regions {
		total += m.Volume()
	}
	return total
}

// CheckDisjoint compares every pair of members and returns an
// internal Error naming the first overlapping pair it finds.
// It's quadratic, so it's for tests and debugging only.
func (rs *RegionSet) CheckDisjoint() error {
	members := rs.Regions()
	for i, r := range members {
		for _, s := range members[i+1:] {
			if r.Overlaps(s) {
				return Error{
					Scope:     InternalScope,
					Structure: ScopeStructure,
					Condition: OverlapCondition,
					Values:    ErrorData{r.String(), s.String()},
				}
			}
		}
	}
	return nil
}

// Regions returns the members in a stable order.  The returned
// slice doesn't share storage with the set.
func (rs *RegionSet) Regions() []Region {
	members := make([]Region, 0, len(rs.regions))
	for m := range rs.regions {
		members = append(members, m)
	}
	slices.SortFunc(members, compareRegions)
	return members
}

// Copy returns an independent set with the same members.
func (rs *RegionSet) Copy() *RegionSet {
	c := &RegionSet{regions: make(map[Region]struct{}, len(rs.regions))}
	for m := range rs.regions {
		c.regions[m] = struct{}{}
	}
	return c
}

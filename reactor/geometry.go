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
	"cmp"
	"fmt"
)

/*

Spans

*/

// A Span is a closed interval of integer coordinates on one
// axis.  Both bounds are inclusive, and Lo never exceeds Hi.
type Span struct {
	Lo int64 `json:"lo"`
	Hi int64 `json:"hi"`
}

// NewSpan returns the span from lo to hi, or an Error if lo is
// greater than hi.
func NewSpan(lo, hi int64) (Span, error) {
	if lo > hi {
		return Span{}, Error{
			Scope:     RegionScope,
			Structure: AttributeValueStructure,
			Attribute: SpanAttribute,
			Condition: InvertedSpanCondition,
			Values:    ErrorData{fmt.Sprintf("%d..%d", lo, hi)},
		}
	}
	return Span{lo, hi}, nil
}

// length is the number of integer coordinates in the span.
func (s Span) length() int64 {
	return s.Hi - s.Lo + 1
}

func (s Span) overlaps(o Span) bool {
	return s.Lo <= o.Hi && s.Hi >= o.Lo
}

func (s Span) contains(o Span) bool {
	return s.Lo <= o.Lo && o.Hi <= s.Hi
}

func (s Span) String() string {
	return fmt.Sprintf("%d..%d", s.Lo, s.Hi)
}

/*

Regions

*/

// A Region is an axis-aligned cuboid: one Span per axis.
// Regions are values; they are compared and stored by value and
// never changed once made.
type Region struct {
	X Span `json:"x"`
	Y Span `json:"y"`
	Z Span `json:"z"`
}

// InitRegion is the bounding cube that restricts which
// instructions are applied in InitMode.
var InitRegion = Region{Span{-50, 50}, Span{-50, 50}, Span{-50, 50}}

// NewRegion makes a region from its three spans, checking that
// each of them is well formed.
func NewRegion(x, y, z Span) (Region, error) {
	for _, s := range []Span{x, y, z} {
		if _, err := NewSpan(s.Lo, s.Hi); err != nil {
			return Region{}, err
		}
	}
	return Region{x, y, z}, nil
}

// Overlaps is true when the two regions share at least one
// coordinate.  It is symmetric.
func (r Region) Overlaps(o Region) bool {
	return r.X.overlaps(o.X) && r.Y.overlaps(o.Y) && r.Z.overlaps(o.Z)
}

// IsContainedBy is true when every coordinate of r is also in o.
func (r Region) IsContainedBy(o Region) bool {
	return o.X.contains(r.X) && o.Y.contains(r.Y) && o.Z.contains(r.Z)
}

// Volume is the number of unit cells in the region.
func (r Region) Volume() int64 {
	return r.X.length() * r.Y.length() * r.Z.length()
}

// compareRegions orders regions by x, then y, then z, low bound
// before high bound.  It gives listings a stable order.
func compareRegions(a, b Region) int {
	for _, pair := range [][2]Span{{a.X, b.X}, {a.Y, b.Y}, {a.Z, b.Z}} {
		if c := cmp.Compare(pair[0].Lo, pair[1].Lo); c != 0 {
			return c
		}
		if c := cmp.Compare(pair[0].Hi, pair[1].Hi); c != 0 {
			return c
		}
	}
	return 0
}

/*

Splitting

*/

type axis int

const (
	xAxis axis = iota
	yAxis
	zAxis
)

var allAxes = []axis{xAxis, yAxis, zAxis}

func (r Region) span(a axis) Span {
	switch a {
	case xAxis:
		return r.X
	case yAxis:
		return r.Y
	}
	return r.Z
}

func (r Region) withSpan(a axis, s Span) Region {
	switch a {
	case xAxis:
		r.X = s
	case yAxis:
		r.Y = s
	default:
		r.Z = s
	}
	return r
}

// splitPoints cuts the cut span by the clip span.  It returns
// the part of cut below clip, the part overlapping clip, and the
// part above clip, omitting any that are empty.  A cut that lies
// inside clip, or misses it entirely, comes back whole.
func splitPoints(clip, cut Span) []Span {
	if clip.contains(cut) || !clip.overlaps(cut) {
		return []Span{cut}
	}
	var parts []Span
	if cut.Lo < clip.Lo {
		parts = append(parts, Span{cut.Lo, clip.Lo - 1})
	}
	parts = append(parts, Span{max(cut.Lo, clip.Lo), min(cut.Hi, clip.Hi)})
	if cut.Hi > clip.Hi {
		parts = append(parts, Span{clip.Hi + 1, cut.Hi})
	}
	return parts
}

// SplitAgainst decomposes other into disjoint pieces whose union
// is exactly other, such that every piece is either contained by
// r or doesn't overlap r at all.
//
// The cut is made one axis at a time (x, then y, then z).  After
// each axis, only the piece still overlapping r is cut again, so
// there are at most two pieces per axis outside r plus the one
// inside it: never more than seven in all.
func (r Region) SplitAgainst(other Region) []Region {
	pieces := []Region{other}
	for _, a := range allAxes {
		next := make([]Region, 0, len(pieces)+2)
		for _, p := range pieces {
			if !r.Overlaps(p) {
				next = append(next, p)
				continue
			}
			for _, s := range splitPoints(r.span(a), p.span(a)) {
				next = append(next, p.withSpan(a, s))
			}
		}
		pieces = next
	}
	return pieces
}

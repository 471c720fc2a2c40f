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
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/*

helpers

*/

// cube makes a region with the same span on every axis.
func cube(lo, hi int64) Region {
	return Region{Span{lo, hi}, Span{lo, hi}, Span{lo, hi}}
}

func box(xlo, xhi, ylo, yhi, zlo, zhi int64) Region {
	return Region{Span{xlo, xhi}, Span{ylo, yhi}, Span{zlo, zhi}}
}

func sorted(regions []Region) []Region {
	result := slices.Clone(regions)
	slices.SortFunc(result, compareRegions)
	return result
}

// randomRegion makes a small region inside -lim..lim on each axis.
func randomRegion(rng *rand.Rand, lim int64) Region {
	span := func() Span {
		a := rng.Int64N(2*lim+1) - lim
		b := rng.Int64N(2*lim+1) - lim
		return Span{min(a, b), max(a, b)}
	}
	return Region{span(), span(), span()}
}

// cellsOf lists every unit cell of a region.
func cellsOf(r Region) [][3]int64 {
	var cells [][3]int64
	for x := r.X.Lo; x <= r.X.Hi; x++ {
		for y := r.Y.Lo; y <= r.Y.Hi; y++ {
			for z := r.Z.Lo; z <= r.Z.Hi; z++ {
				cells = append(cells, [3]int64{x, y, z})
			}
		}
	}
	return cells
}

/*

spans and regions

*/

func TestNewSpan(t *testing.T) {
	s, err := NewSpan(-3, 4)
	require.NoError(t, err)
	assert.Equal(t, Span{-3, 4}, s)
	assert.EqualValues(t, 8, s.length())

	s, err = NewSpan(5, 5)
	require.NoError(t, err)
	assert.EqualValues(t, 1, s.length())

	_, err = NewSpan(6, 5)
	require.Error(t, err)
	e, ok := err.(Error)
	require.True(t, ok, "error is a reactor Error")
	assert.Equal(t, RegionScope, e.Scope)
	assert.Equal(t, InvertedSpanCondition, e.Condition)
	assert.Equal(t, "Invalid region: Span (6..5): Low bound is greater than high bound", e.Error())
}

func TestNewRegion(t *testing.T) {
	r, err := NewRegion(Span{1, 2}, Span{3, 4}, Span{5, 6})
	require.NoError(t, err)
	assert.Equal(t, box(1, 2, 3, 4, 5, 6), r)

	_, err = NewRegion(Span{1, 2}, Span{4, 3}, Span{5, 6})
	assert.Error(t, err)
}

func TestRegionVolume(t *testing.T) {
	tests := []struct {
		r      Region
		volume int64
	}{
		{cube(0, 0), 1},
		{cube(1, 2), 8},
		{box(1, 10, 1, 1, 1, 1), 10},
		{cube(-50, 50), 101 * 101 * 101},
		{box(-100000, 100000, -100000, 100000, -100000, 100000), 200001 * 200001 * 200001},
	}
	for _, test := range tests {
		assert.Equal(t, test.volume, test.r.Volume(), "volume of %v", test.r)
	}
}

func TestRegionOverlaps(t *testing.T) {
	tests := []struct {
		a, b     Region
		overlaps bool
	}{
		{cube(1, 2), cube(2, 3), true},
		{cube(1, 2), cube(3, 4), false},
		{cube(1, 5), cube(2, 3), true},
		{box(1, 5, 1, 5, 1, 1), box(1, 5, 1, 5, 2, 2), false},
		{box(1, 5, 1, 5, 1, 5), box(5, 9, 5, 9, 5, 9), true},
		{box(0, 0, 0, 9, 0, 9), box(1, 1, 0, 9, 0, 9), false},
	}
	for _, test := range tests {
		assert.Equal(t, test.overlaps, test.a.Overlaps(test.b), "%v overlaps %v", test.a, test.b)
		assert.Equal(t, test.overlaps, test.b.Overlaps(test.a), "%v overlaps %v", test.b, test.a)
	}
}

func TestRegionIsContainedBy(t *testing.T) {
	assert.True(t, cube(2, 3).IsContainedBy(cube(1, 5)))
	assert.True(t, cube(1, 5).IsContainedBy(cube(1, 5)))
	assert.False(t, cube(1, 5).IsContainedBy(cube(2, 3)))
	assert.False(t, cube(1, 3).IsContainedBy(cube(2, 5)))
	assert.True(t, cube(-50, 50).IsContainedBy(InitRegion))
	assert.False(t, cube(-51, 50).IsContainedBy(InitRegion))
	assert.False(t, box(0, 0, 0, 0, 0, 51).IsContainedBy(InitRegion))
}

/*

splitting

*/

func TestSplitPoints(t *testing.T) {
	tests := []struct {
		clip, cut Span
		parts     []Span
	}{
		{Span{1, 10}, Span{3, 4}, []Span{{3, 4}}},
		{Span{1, 10}, Span{20, 30}, []Span{{20, 30}}},
		{Span{5, 10}, Span{1, 20}, []Span{{1, 4}, {5, 10}, {11, 20}}},
		{Span{5, 10}, Span{1, 7}, []Span{{1, 4}, {5, 7}}},
		{Span{5, 10}, Span{7, 20}, []Span{{7, 10}, {11, 20}}},
		{Span{5, 5}, Span{5, 6}, []Span{{5, 5}, {6, 6}}},
	}
	for _, test := range tests {
		assert.Equal(t, test.parts, splitPoints(test.clip, test.cut), "cut %v by %v", test.cut, test.clip)
	}
}

func TestSplitAgainstCorner(t *testing.T) {
	r1, r3 := cube(1, 2), cube(2, 3)
	expected := []Region{
		box(3, 3, 2, 3, 2, 3),
		box(2, 2, 3, 3, 2, 3),
		box(2, 2, 2, 2, 3, 3),
		box(2, 2, 2, 2, 2, 2),
	}
	pieces := r1.SplitAgainst(r3)
	if diff := cmp.Diff(sorted(expected), sorted(pieces)); diff != "" {
		t.Errorf("pieces of %v split against %v (-want +got):\n%s", r3, r1, diff)
	}
}

func TestSplitAgainstTrivial(t *testing.T) {
	// disjoint and contained regions come back whole
	assert.Equal(t, []Region{cube(5, 6)}, cube(1, 2).SplitAgainst(cube(5, 6)))
	assert.Equal(t, []Region{cube(2, 3)}, cube(1, 5).SplitAgainst(cube(2, 3)))
	assert.Equal(t, []Region{cube(1, 5)}, cube(1, 5).SplitAgainst(cube(1, 5)))
}

func TestSplitAgainstCentre(t *testing.T) {
	// a region strictly inside another cuts it into the most pieces
	pieces := cube(2, 2).SplitAgainst(cube(1, 3))
	assert.Len(t, pieces, 7)
	var total int64
	for _, p := range pieces {
		total += p.Volume()
	}
	assert.EqualValues(t, 27, total)
	assert.Contains(t, pieces, cube(2, 2))
}

// Every piece lies inside the split region, pieces don't overlap
// each other, they cover it exactly, there are at most seven of
// them, and each is inside or outside the splitter.
func TestSplitAgainstProperties(t *testing.T) {
	rng := rand.New(rand.NewPCG(22, 2021))
	for i := 0; i < 500; i++ {
		r, other := randomRegion(rng, 6), randomRegion(rng, 6)
		pieces := r.SplitAgainst(other)
		require.NotEmpty(t, pieces)
		require.LessOrEqual(t, len(pieces), 7, "%v split against %v", other, r)

		var total int64
		for j, p := range pieces {
			assert.True(t, p.IsContainedBy(other), "piece %v inside %v", p, other)
			assert.True(t, p.IsContainedBy(r) || !p.Overlaps(r),
				"piece %v is either inside or outside %v", p, r)
			for _, q := range pieces[j+1:] {
				assert.False(t, p.Overlaps(q), "pieces %v and %v overlap", p, q)
			}
			total += p.Volume()
		}
		assert.Equal(t, other.Volume(), total, "%v split against %v", other, r)
	}
}

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

package dbprep

import (
	"testing"

	"github.com/ancientHacker/reactor.go/reactor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleData(t *testing.T) {
	names := make(map[string]bool)
	ids := make(map[string]bool)
	for _, s := range Samples {
		assert.False(t, names[s.Name], "duplicate sample name %q", s.Name)
		names[s.Name] = true
		id := ProcedureID(s.Body)
		assert.False(t, ids[id], "duplicate sample id for %q", s.Name)
		ids[id] = true
		assert.Equal(t, id, ProcedureID(s.Body), "ids are stable")

		instrs, err := reactor.ParseInstructions(s.Body)
		require.NoError(t, err, "sample %q", s.Name)
		assert.NotEmpty(t, instrs, "sample %q", s.Name)
	}
	assert.True(t, names[DefaultProcedureName])
}

func TestSampleVolumes(t *testing.T) {
	expected := map[string]reactor.Volumes{
		"reboot-sample":   {Init: 39, Full: 39},
		"corner-cubes":    {Init: 46, Full: 46},
		"flat-slabs":      {Init: 21, Full: 21},
		"hollow-square":   {Init: 8, Full: 8},
		"init-and-beyond": {Init: 139590 - 17*16*11, Full: 139590 - 17*16*11 + 21049844681660},
	}
	for _, s := range Samples {
		instrs, err := reactor.ParseInstructions(s.Body)
		require.NoError(t, err)
		assert.Equal(t, expected[s.Name], reactor.ComputeVolumes(instrs), "sample %q", s.Name)
	}
}

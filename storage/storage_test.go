//go:build integration

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

package storage

import (
	"testing"

	"github.com/ancientHacker/reactor.go/dbprep"
	"github.com/ancientHacker/reactor.go/internal/testutil/containers"
	"github.com/ancientHacker/reactor.go/reactor"
	"github.com/gomodule/redigo/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	containers.Main(m)
}

func connect(t *testing.T) {
	t.Helper()
	require.NoError(t, dbprep.ReinitializeAll())
	_, _, err := Connect()
	require.NoError(t, err)
	t.Cleanup(Close)
}

/*

connection, procedures, runs

*/

func TestConnect(t *testing.T) {
	connect(t)
	assert.Equal(t, dbprep.RedisURL(), rdUrl)
	assert.Equal(t, dbprep.DatabaseURL(), pgUrl)
}

func TestLoadProcedure(t *testing.T) {
	connect(t)
	byName, err := LoadProcedure("corner-cubes")
	require.NoError(t, err)
	assert.Len(t, byName.Instructions, 3)

	// second load comes from the cache
	byName2, err := LoadProcedure("corner-cubes")
	require.NoError(t, err)
	assert.Equal(t, byName.Instructions, byName2.Instructions)

	byID, err := LoadProcedure(byName.ProcedureID)
	require.NoError(t, err)
	assert.Equal(t, "corner-cubes", byID.Name)

	_, err = LoadProcedure("no-such-procedure")
	assert.ErrorIs(t, err, ErrNoProcedure)
}

func TestSaveAndListProcedures(t *testing.T) {
	connect(t)
	_, err := SaveProcedure("broken", "on x=1..2\n")
	assert.Error(t, err)

	p, err := SaveProcedure("tiny", "on x=1..1,y=1..1,z=1..1\n")
	require.NoError(t, err)
	loaded, err := LoadProcedure("tiny")
	require.NoError(t, err)
	assert.Equal(t, p.ProcedureID, loaded.ProcedureID)

	// replacing the body under the same name
	p2, err := SaveProcedure("tiny", "on x=1..2,y=1..1,z=1..1\n")
	require.NoError(t, err)
	assert.NotEqual(t, p.ProcedureID, p2.ProcedureID)
	loaded, err = LoadProcedure("tiny")
	require.NoError(t, err)
	assert.Equal(t, p2.ProcedureID, loaded.ProcedureID)

	infos, err := ListProcedures()
	require.NoError(t, err)
	assert.Len(t, infos, len(dbprep.Samples)+1)
	for i := 1; i < len(infos); i++ {
		assert.Less(t, infos[i-1].Name, infos[i].Name)
	}
}

func TestSaveExistingBody(t *testing.T) {
	connect(t)
	sample, err := LoadProcedure(dbprep.DefaultProcedureName)
	require.NoError(t, err)

	// the same body under another name is refused
	_, err = SaveProcedure("mine", sample.Body)
	assert.ErrorIs(t, err, ErrDuplicateProcedure)
	require.NoError(t, dbprep.ClearCache())
	loaded, err := LoadProcedure(dbprep.DefaultProcedureName)
	require.NoError(t, err)
	assert.Equal(t, sample.ProcedureID, loaded.ProcedureID)
	_, err = LoadProcedure("mine")
	assert.ErrorIs(t, err, ErrNoProcedure)

	// re-saving unchanged keeps the procedure and its runs
	require.NoError(t, RecordRun(sample.ProcedureID, reactor.FullMode, 39, 5))
	again, err := SaveProcedure(sample.Name, sample.Body)
	require.NoError(t, err)
	assert.Equal(t, sample.ProcedureID, again.ProcedureID)
	assert.True(t, sample.Created.Equal(again.Created))
	runs, err := LatestRuns(sample.ProcedureID, 5)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestRuns(t *testing.T) {
	connect(t)
	p, err := LoadProcedure("flat-slabs")
	require.NoError(t, err)
	require.NoError(t, RecordRun(p.ProcedureID, reactor.InitMode, 21, 2))
	require.NoError(t, RecordRun(p.ProcedureID, reactor.FullMode, 21, 3))

	runs, err := LatestRuns(p.ProcedureID, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "full", runs[0].Mode)
	assert.EqualValues(t, 21, runs[1].Volume)

	runs, err = LatestRuns(p.ProcedureID, 1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

/*

sessions

*/

func TestNewSession(t *testing.T) {
	connect(t)
	s, err := LoadSession("fresh session")
	require.NoError(t, err)
	assert.Equal(t, dbprep.DefaultProcedureName, s.Procedure.Name)
	assert.Equal(t, "full", s.Mode)
	assert.Equal(t, 0, s.Step)
	assert.NotEmpty(t, s.Created)
}

func TestSessionSteps(t *testing.T) {
	connect(t)
	sid := "session with steps"
	s, err := LoadSession(sid)
	require.NoError(t, err)

	volumes := []int64{27, 46, 38, 39}
	for i, v := range volumes {
		u, err := s.AddStep()
		require.NoError(t, err, "step %d", i+1)
		assert.Equal(t, v, u.State.Volume, "step %d", i+1)
	}
	_, err = s.AddStep()
	assert.Error(t, err, "stepping past the end")

	runs, err := LatestRuns(s.PID, 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.EqualValues(t, 39, runs[0].Volume)

	// a reloaded session picks up where this one left off
	s2, err := LoadSession(sid)
	require.NoError(t, err)
	assert.Equal(t, 4, s2.Step)
	assert.EqualValues(t, 39, s2.Reactor.Volume())

	require.NoError(t, s2.RemoveStep())
	require.NoError(t, s2.RemoveStep())
	assert.Equal(t, 2, s2.Step)
	assert.EqualValues(t, 46, s2.Reactor.Volume())

	s3, err := LoadSession(sid)
	require.NoError(t, err)
	assert.Equal(t, 2, s3.Step)
	assert.EqualValues(t, 46, s3.Reactor.Volume())

	require.NoError(t, s3.Reset())
	assert.Equal(t, 0, s3.Step)
	assert.NoError(t, s3.RemoveStep(), "going back from step 0 does nothing")
	assert.EqualValues(t, 0, s3.Reactor.Volume())
}

func TestSessionStartProcedure(t *testing.T) {
	connect(t)
	s, err := LoadSession("session switching procedures")
	require.NoError(t, err)
	require.NoError(t, s.StartProcedure("init-and-beyond", reactor.InitMode))
	assert.Equal(t, "init", s.Mode)
	for !s.Reactor.Done() {
		_, err := s.AddStep()
		require.NoError(t, err)
	}
	assert.EqualValues(t, 139590-2992, s.Reactor.Volume())

	assert.Error(t, s.StartProcedure("no-such-procedure", reactor.FullMode))
}

func TestSessionProcedureReplaced(t *testing.T) {
	connect(t)
	_, err := SaveProcedure("scratch", "on x=1..2,y=1..2,z=1..2\n")
	require.NoError(t, err)
	sid := "session on a replaced procedure"
	s, err := LoadSession(sid)
	require.NoError(t, err)
	require.NoError(t, s.StartProcedure("scratch", reactor.InitMode))
	_, err = s.AddStep()
	require.NoError(t, err)

	_, err = SaveProcedure("scratch", "on x=1..3,y=1..3,z=1..3\n")
	require.NoError(t, err)

	s2, err := LoadSession(sid)
	require.NoError(t, err)
	assert.Equal(t, dbprep.DefaultProcedureName, s2.Procedure.Name)
	assert.Equal(t, "full", s2.Mode)
	assert.Equal(t, 0, s2.Step)

	// and the restarted session is usable
	require.NoError(t, s2.StartProcedure("scratch", reactor.FullMode))
	u, err := s2.AddStep()
	require.NoError(t, err)
	assert.EqualValues(t, 27, u.State.Volume)
}

func TestSessionBadMode(t *testing.T) {
	connect(t)
	sid := "session with a bad mode"
	s, err := LoadSession(sid)
	require.NoError(t, err)
	_, err = s.AddStep()
	require.NoError(t, err)
	rdExecute(func(tx redis.Conn) error {
		_, err := tx.Do("HSET", s.key(), "Mode", "sideways")
		return err
	})

	s2, err := LoadSession(sid)
	require.NoError(t, err)
	assert.Equal(t, "full", s2.Mode)
	assert.Equal(t, 0, s2.Step)
	assert.Equal(t, dbprep.DefaultProcedureName, s2.Procedure.Name)
}

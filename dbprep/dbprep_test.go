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

package dbprep

import (
	"context"
	"testing"

	"github.com/ancientHacker/reactor.go/internal/testutil/containers"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	containers.Main(m)
}

func countProcedures(t *testing.T) int {
	t.Helper()
	ctx := context.Background()
	conn, err := pgx.Connect(ctx, DatabaseURL())
	require.NoError(t, err)
	defer conn.Close(ctx)
	var count int
	require.NoError(t, conn.QueryRow(ctx, "SELECT COUNT(*) FROM procedures").Scan(&count))
	return count
}

func TestClearCache(t *testing.T) {
	assert.NoError(t, ClearCache())
}

func TestSchemaUpDown(t *testing.T) {
	require.NoError(t, SchemaUp())
	version, err := SchemaVersion()
	require.NoError(t, err)
	assert.EqualValues(t, 2, version)
	require.NoError(t, SchemaDown())
	version, err = SchemaVersion()
	require.NoError(t, err)
	assert.EqualValues(t, 0, version)
}

func TestSchemaDoubleUpDown(t *testing.T) {
	require.NoError(t, SchemaUp())
	assert.NoError(t, SchemaUp(), "second up")
	require.NoError(t, SchemaDown())
	assert.NoError(t, SchemaDown(), "second down")
}

func TestDataDoubleUpDown(t *testing.T) {
	require.NoError(t, SchemaUp())
	require.NoError(t, DataUp())
	require.NoError(t, DataUp(), "second up")
	assert.Equal(t, len(Samples), countProcedures(t))

	require.NoError(t, DataDown())
	require.NoError(t, DataDown(), "second down")
	assert.Equal(t, 0, countProcedures(t))
	require.NoError(t, SchemaDown())
}

func TestEnsureAndRemoveData(t *testing.T) {
	inVersion, err := SchemaVersion()
	require.NoError(t, err)
	require.EqualValues(t, 0, inVersion)

	require.NoError(t, EnsureData())
	outVersion, err := SchemaVersion()
	require.NoError(t, err)
	assert.NotEqual(t, inVersion, outVersion)
	assert.Equal(t, len(Samples), countProcedures(t))

	require.NoError(t, RemoveData())
	outVersion, err = SchemaVersion()
	require.NoError(t, err)
	assert.EqualValues(t, 0, outVersion)
}

func TestReinitializeAll(t *testing.T) {
	require.NoError(t, ReinitializeAll())
	assert.Equal(t, len(Samples), countProcedures(t))
	require.NoError(t, RemoveData())
}

//go:build integration

package main

import (
	"testing"

	"github.com/ancientHacker/reactor.go/dbprep"
	"github.com/ancientHacker/reactor.go/internal/testutil/containers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	containers.Main(m)
}

func TestClearStorage(t *testing.T) {
	require.NoError(t, clearStorage())
	version, err := dbprep.SchemaVersion()
	require.NoError(t, err)
	assert.NotZero(t, version)

	// clearing twice is fine
	require.NoError(t, clearStorage())
}

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

func TestPrepareStorage(t *testing.T) {
	require.NoError(t, dbprep.RemoveData())
	version, err := prepareStorage()
	require.NoError(t, err)
	assert.NotZero(t, version)

	again, err := prepareStorage()
	require.NoError(t, err)
	assert.Equal(t, version, again, "preparing is idempotent")
}

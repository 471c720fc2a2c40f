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

// Package containers starts throwaway Postgres and Redis servers
// for integration tests, and points the storage environment
// variables at them.
package containers

import (
	"context"
	"os"
	"testing"

	"github.com/pkg/errors"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// Storage is a running Postgres and Redis pair.
type Storage struct {
	Postgres    *tcpostgres.PostgresContainer
	Redis       *tcredis.RedisContainer
	DatabaseURL string
	RedisURL    string
}

// Start runs both containers and sets DATABASE_URL and
// REDIS_URL to reach them.  It's meant for TestMain, so it
// returns an error rather than taking a *testing.T.
func Start(ctx context.Context) (*Storage, error) {
	s := &Storage{}
	pg, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("reactor"),
		tcpostgres.WithUsername("reactor"),
		tcpostgres.WithPassword("reactor"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, errors.Wrap(err, "start postgres container")
	}
	s.Postgres = pg
	if s.DatabaseURL, err = pg.ConnectionString(ctx, "sslmode=disable"); err != nil {
		s.Terminate(ctx)
		return nil, errors.Wrap(err, "get postgres connection string")
	}

	rd, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		s.Terminate(ctx)
		return nil, errors.Wrap(err, "start redis container")
	}
	s.Redis = rd
	if s.RedisURL, err = rd.ConnectionString(ctx); err != nil {
		s.Terminate(ctx)
		return nil, errors.Wrap(err, "get redis connection string")
	}

	os.Setenv("DATABASE_URL", s.DatabaseURL)
	os.Setenv("REDIS_URL", s.RedisURL)
	return s, nil
}

// Terminate stops whichever containers were started.
func (s *Storage) Terminate(ctx context.Context) {
	var running []testcontainers.Container
	if s.Postgres != nil {
		running = append(running, s.Postgres)
	}
	if s.Redis != nil {
		running = append(running, s.Redis)
	}
	for _, c := range running {
		_ = c.Terminate(ctx)
	}
}

// Main is a TestMain body: it runs the package's tests against
// fresh storage and exits with their status.
func Main(m *testing.M) {
	ctx := context.Background()
	s, err := Start(ctx)
	if err != nil {
		panic(err)
	}
	code := m.Run()
	s.Terminate(ctx)
	os.Exit(code)
}

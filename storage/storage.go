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

// Package storage keeps reboot procedures and run records in
// Postgres, and caches procedures and per-session reactor steps
// in Redis.
//
// Internally, the cache and database helpers panic on failure,
// so bodies can be written as straight-line code; every exported
// function recovers those panics and returns them as errors.
package storage

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/ancientHacker/reactor.go/dbprep"
	"github.com/gomodule/redigo/redis"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Connect makes sure the database schema and samples are in
// place, then opens the cache and database pools.  It returns
// the URLs it connected to.
func Connect() (cacheId, databaseId string, err error) {
	if err = dbprep.EnsureData(); err != nil {
		err = errors.Wrap(err, "couldn't initialize database")
		return
	}

	connMutex.Lock()
	defer connMutex.Unlock()
	cacheId, err = rdConnect()
	if err != nil {
		return
	}
	databaseId, err = pgConnect()
	if err != nil {
		rdClose()
		return
	}
	return
}

// Close releases both pools.
func Close() {
	connMutex.Lock()
	defer connMutex.Unlock()
	pgClose()
	rdClose()
}

var connMutex sync.Mutex // guards connect and close

// catch turns a panic raised by a storage helper into an error
// return.  Use it as `defer catch(&err)` in exported functions.
func catch(err *error) {
	if r := recover(); r != nil {
		if e, ok := r.(error); ok {
			*err = e
		} else {
			*err = errors.Errorf("caught panic in storage: %v", r)
		}
	}
}

/*

cache using Redis

*/

// Redis connection data
var (
	rdPool *redis.Pool // open pool, if any
	rdUrl  string      // URL for the open pool
	rdEnv  string      // key prefix, so environments can share a server
)

// rdConnect opens a pool against the configured Redis URL, and
// checks that a connection can be made.
func rdConnect() (string, error) {
	rdUrl = dbprep.RedisURL()
	rdEnv = os.Getenv("APPLICATION_ENV")
	if rdEnv == "" {
		rdEnv = "local"
	}
	pool := &redis.Pool{
		MaxIdle:     4,
		IdleTimeout: 4 * time.Minute,
		Dial: func() (redis.Conn, error) {
			return redis.DialURL(rdUrl)
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}
	conn := pool.Get()
	defer conn.Close()
	if _, err := conn.Do("PING"); err != nil {
		pool.Close()
		return "", errors.Wrapf(err, "couldn't connect to cache at %q", rdUrl)
	}
	rdPool = pool
	return rdUrl, nil
}

func rdClose() {
	if rdPool != nil {
		rdPool.Close()
		rdPool = nil
	}
}

// rdExecute runs the body with a pooled connection.  Errors
// returned or raised by the body panic back to the exported
// caller.
func rdExecute(body func(tx redis.Conn) error) {
	if rdPool == nil {
		panic(errors.New("cache is not connected"))
	}
	conn := rdPool.Get()
	defer conn.Close()
	if err := body(conn); err != nil {
		panic(err)
	}
}

/*

persistence using Postgres

*/

// Postgres connection data
var (
	pgPool *pgxpool.Pool // open pool, if any
	pgUrl  string        // URL for the open pool
)

// pgConnect opens a pool against the configured database.
func pgConnect() (string, error) {
	pgUrl = dbprep.DatabaseURL()
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, pgUrl)
	if err != nil {
		return "", errors.Wrapf(err, "parse failure on Postgres URL %q", pgUrl)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return "", errors.Wrapf(err, "couldn't connect to db at %q", pgUrl)
	}
	pgPool = pool
	return pgUrl, nil
}

func pgClose() {
	if pgPool != nil {
		pgPool.Close()
		pgPool = nil
	}
}

// pgExecute runs the body inside a single transaction, which is
// committed if the body succeeds and rolled back if it doesn't.
// Failures panic back to the exported caller.
func pgExecute(body func(ctx context.Context, tx pgx.Tx) error) {
	if pgPool == nil {
		panic(errors.New("database is not connected"))
	}
	ctx := context.Background()
	if err := pgx.BeginFunc(ctx, pgPool, func(tx pgx.Tx) error {
		return body(ctx, tx)
	}); err != nil {
		log.WithError(err).Warn("Database transaction rolled back")
		panic(err)
	}
}

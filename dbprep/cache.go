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
	"os"

	"github.com/gomodule/redigo/redis"
	"github.com/pkg/errors"
)

// DefaultRedisURL is used when REDIS_URL isn't set.
const DefaultRedisURL = "redis://localhost:6379/"

// RedisURL looks up the cache URL from the environment.
func RedisURL() string {
	if url := os.Getenv("REDIS_URL"); url != "" {
		return url
	}
	return DefaultRedisURL
}

// ClearCache removes every cached procedure and session step.
func ClearCache() error {
	conn, err := redis.DialURL(RedisURL())
	if err != nil {
		return errors.Wrapf(err, "connect to cache at %q", RedisURL())
	}
	defer conn.Close()
	if _, err := conn.Do("FLUSHALL"); err != nil {
		return errors.Wrap(err, "flush cache")
	}
	return nil
}

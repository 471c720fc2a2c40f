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

// Package dbprep manages the storage the reactor service runs
// against: the Postgres schema, the sample procedures, and the
// Redis cache.
package dbprep

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// EnsureData brings the schema up to date, and loads the sample
// procedures if the schema changed.
func EnsureData() error {
	inVersion, err := SchemaVersion()
	if err != nil {
		return errors.Wrap(err, "couldn't get initial schema version")
	}
	if err := SchemaUp(); err != nil {
		return errors.Wrap(err, "couldn't install schema")
	}
	outVersion, err := SchemaVersion()
	if err != nil {
		return errors.Wrap(err, "couldn't get final schema version")
	}
	if outVersion == 0 {
		return errors.New("database schema still at version 0, shouldn't be")
	}
	if inVersion != outVersion {
		log.Infof("Schema moved from version %d to %d; loading samples.", inVersion, outVersion)
		if err := DataUp(); err != nil {
			return errors.Wrap(err, "couldn't load data")
		}
	}
	return nil
}

// RemoveData tears down the schema, and everything in it.
func RemoveData() error {
	version, err := SchemaVersion()
	if err != nil {
		return errors.Wrap(err, "couldn't get initial schema version")
	}
	if version > 0 {
		if err := SchemaDown(); err != nil {
			return errors.Wrap(err, "couldn't remove tables")
		}
	}
	return nil
}

// ReinitializeAll clears the cache, tears down the database, and
// reloads it from scratch.
func ReinitializeAll() error {
	if err := ClearCache(); err != nil {
		return errors.Wrap(err, "couldn't clear cache")
	}
	if err := RemoveData(); err != nil {
		return errors.Wrap(err, "couldn't clear database")
	}
	if err := EnsureData(); err != nil {
		return errors.Wrap(err, "couldn't load database")
	}
	return nil
}

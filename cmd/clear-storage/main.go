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


// Clear and re-initialize the reactor storage system
package main

import (
	"github.com/ancientHacker/reactor.go/dbprep"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

func main() {
	log.Printf("Removing existing data storage and cache...")
	if err := clearStorage(); err != nil {
		log.Fatalf("Couldn't clear storage: %v", err)
	}
	log.Printf("Database re-initialized.")
}

func clearStorage() error {
	if err := dbprep.ClearCache(); err != nil {
		return errors.Wrap(err, "couldn't clear cache")
	}
	if err := dbprep.RemoveData(); err != nil {
		return errors.Wrap(err, "couldn't remove database")
	}
	version, err := dbprep.SchemaVersion()
	if err != nil {
		return errors.Wrap(err, "couldn't get cleared schema version")
	}
	if version != 0 {
		return errors.Errorf("database schema still at version %d after teardown", version)
	}
	if err := dbprep.EnsureData(); err != nil {
		return errors.Wrap(err, "couldn't reload database")
	}
	return nil
}

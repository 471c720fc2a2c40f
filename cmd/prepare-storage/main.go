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


// Bring the reactor storage system up to date, loading the
// sample procedures into a fresh database
package main

import (
	"github.com/ancientHacker/reactor.go/dbprep"
	log "github.com/sirupsen/logrus"
)

func main() {
	log.Printf("Preparing data storage at %s...", dbprep.DatabaseURL())
	version, err := prepareStorage()
	if err != nil {
		log.Fatalf("Couldn't prepare storage: %v", err)
	}
	log.Printf("Database ready at schema version %d.", version)
}

func prepareStorage() (uint, error) {
	if err := dbprep.EnsureData(); err != nil {
		return 0, err
	}
	return dbprep.SchemaVersion()
}

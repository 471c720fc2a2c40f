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
	"database/sql"
	"embed"
	"os"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DefaultDatabaseURL is used when DATABASE_URL isn't set.
const DefaultDatabaseURL = "postgres://localhost/reactor?sslmode=disable"

// DatabaseURL looks up the Postgres URL from the environment.
func DatabaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	return DefaultDatabaseURL
}

// withMigrate runs body against a migrator for the embedded
// schema, closing both the migrator and its database after.
func withMigrate(body func(m *migrate.Migrate) error) error {
	db, err := sql.Open("pgx", DatabaseURL())
	if err != nil {
		return errors.Wrap(err, "open database for migration")
	}
	defer db.Close()
	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		return errors.Wrap(err, "create migration driver")
	}
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return errors.Wrap(err, "read embedded migrations")
	}
	m, err := migrate.NewWithInstance("iofs", source, "pgx5", driver)
	if err != nil {
		return errors.Wrap(err, "create migrator")
	}
	m.Log = migrateLogger{}
	defer m.Close()
	return body(m)
}

// SchemaUp creates the tables, or brings them up to date.
func SchemaUp() error {
	return withMigrate(func(m *migrate.Migrate) error {
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return errors.Wrap(err, "table creation failed")
		}
		return nil
	})
}

// SchemaDown tears down all the tables.
func SchemaDown() error {
	return withMigrate(func(m *migrate.Migrate) error {
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return errors.Wrap(err, "table deletion failed")
		}
		return nil
	})
}

// SchemaVersion returns the version of the database, which is 0
// when no tables have been created.
func SchemaVersion() (version uint, err error) {
	err = withMigrate(func(m *migrate.Migrate) error {
		v, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "read schema version")
		}
		if dirty {
			return errors.Errorf("schema version %d is dirty", v)
		}
		version = v
		return nil
	})
	return
}

type migrateLogger struct{}

func (migrateLogger) Printf(format string, v ...interface{}) {
	log.Debugf("[migrate] "+format, v...)
}

func (migrateLogger) Verbose() bool {
	return log.IsLevelEnabled(log.DebugLevel)
}

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

package storage

import (
	"context"
	"time"

	"github.com/ancientHacker/reactor.go/reactor"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// A Run records the outcome of replaying a whole procedure in
// one mode.
type Run struct {
	ProcedureID string    `json:"procedureId"`
	Mode        string    `json:"mode"`
	Volume      int64     `json:"volume"`
	Regions     int       `json:"regions"`
	Finished    time.Time `json:"finished"`
}

// RecordRun saves the outcome of a completed run.
func RecordRun(procedureID string, mode reactor.Mode, volume int64, regions int) (err error) {
	defer catch(&err)
	pgExecute(func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			"INSERT INTO runs (procedure_id, mode, volume, regions, finished) "+
				"VALUES ($1, $2, $3, $4, $5)",
			procedureID, mode.String(), volume, regions, time.Now())
		return errors.Wrapf(err, "database error recording run of %q", procedureID)
	})
	return nil
}

// LatestRuns returns up to limit runs of a procedure, most
// recent first.
func LatestRuns(procedureID string, limit int) (runs []Run, err error) {
	defer catch(&err)
	pgExecute(func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx,
			"SELECT procedure_id, mode, volume, regions, finished FROM runs "+
				"WHERE procedure_id = $1 ORDER BY finished DESC, run_id DESC LIMIT $2",
			procedureID, limit)
		if err != nil {
			return errors.Wrapf(err, "list runs of %q", procedureID)
		}
		runs, err = pgx.CollectRows(rows, pgx.RowToStructByPos[Run])
		return errors.Wrapf(err, "scan runs of %q", procedureID)
	})
	return runs, nil
}

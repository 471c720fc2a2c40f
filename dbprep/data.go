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
	"context"
	"time"

	"github.com/ancientHacker/reactor.go/reactor"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

/*

entries

*/

type dataFunction func(ctx context.Context, tx pgx.Tx) error

var (
	upFunctions = []dataFunction{
		insertSamples,
	}
	downFunctions = []dataFunction{
		deleteSamples,
	}
)

// DataUp loads the sample procedures into the database.  Do
// this after the schema is up!
func DataUp() error {
	return applyFunctions(upFunctions)
}

// DataDown removes the sample procedures (and their runs) from
// the database.  Do this before tearing the schema down!
func DataDown() error {
	return applyFunctions(downFunctions)
}

// apply dataFunctions to the database.  Each is applied in a
// separate transaction, so later ones can rely on the effect of
// earlier ones having been committed.
func applyFunctions(fns []dataFunction) error {
	ctx := context.Background()
	conn, err := pgx.Connect(ctx, DatabaseURL())
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer conn.Close(ctx)

	for i, fn := range fns {
		if err := pgx.BeginFunc(ctx, conn, func(tx pgx.Tx) error {
			return fn(ctx, tx)
		}); err != nil {
			return errors.Wrapf(err, "data function %d failed", i)
		}
	}
	return nil
}

/*

sample procedures

*/

// A Sample is a named reboot procedure that ships with the
// database.
type Sample struct {
	Name string
	Body string
}

// DefaultProcedureName names the sample that new sessions start
// with.
const DefaultProcedureName = "reboot-sample"

// sampleNamespace seeds the content-derived IDs of procedures.
var sampleNamespace = uuid.MustParse("6f1d2a0e-2c55-4d8b-9b0b-6a1f3c7d2e21")

// Samples are loaded by DataUp.
var Samples = []Sample{
	{DefaultProcedureName, `on x=10..12,y=10..12,z=10..12
on x=11..13,y=11..13,z=11..13
off x=9..11,y=9..11,z=9..11
on x=10..10,y=10..10,z=10..10
`},
	{"corner-cubes", `on x=1..2,y=1..2,z=1..2
on x=2..3,y=2..3,z=2..3
on x=1..2,y=1..2,z=1..10
`},
	{"flat-slabs", `on x=1..3,y=1..3,z=1..1
on x=1..6,y=2..4,z=1..1
`},
	{"hollow-square", `on x=1..3,y=1..3,z=1..1
off x=2..2,y=2..2,z=1..1
`},
	{"init-and-beyond", `on x=-20..26,y=-36..17,z=-47..7
on x=967..23432,y=45373..81175,z=27513..53682
off x=-10..6,y=-20..-5,z=-30..-20
`},
}

// ProcedureID is the stored ID of a procedure with the given
// body.  Equal bodies get equal IDs.
func ProcedureID(body string) string {
	return uuid.NewSHA1(sampleNamespace, []byte(body)).String()
}

// insertSamples is idempotent: samples already present are left
// alone.
func insertSamples(ctx context.Context, tx pgx.Tx) error {
	now := time.Now()
	for _, s := range Samples {
		instrs, err := reactor.ParseInstructions(s.Body)
		if err != nil {
			return errors.Wrapf(err, "sample %q doesn't parse", s.Name)
		}
		_, err = tx.Exec(ctx,
			"INSERT INTO procedures (procedure_id, name, body, steps, created) "+
				"VALUES ($1, $2, $3, $4, $5) ON CONFLICT DO NOTHING",
			ProcedureID(s.Body), s.Name, s.Body, len(instrs), now)
		if err != nil {
			return errors.Wrapf(err, "save sample procedure %q", s.Name)
		}
	}
	return nil
}

func deleteSamples(ctx context.Context, tx pgx.Tx) error {
	ids := make([]string, len(Samples))
	for i, s := range Samples {
		ids[i] = ProcedureID(s.Body)
	}
	_, err := tx.Exec(ctx, "DELETE FROM procedures WHERE procedure_id = ANY($1)", ids)
	if err != nil {
		return errors.Wrap(err, "delete sample procedures")
	}
	return nil
}

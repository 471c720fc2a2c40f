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
	"encoding/json"
	"time"

	"github.com/ancientHacker/reactor.go/dbprep"
	"github.com/ancientHacker/reactor.go/reactor"
	"github.com/gomodule/redigo/redis"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// ErrNoProcedure is returned when no stored procedure has the
// requested ID or name.
var ErrNoProcedure = errors.New("no such procedure")

// ErrDuplicateProcedure is returned when saving a body that is
// already stored under a different name.
var ErrDuplicateProcedure = errors.New("procedure already saved under another name")

// A Procedure is a stored reboot procedure.  It is JSON
// serializable so it can go into the cache as well as the
// database.
type Procedure struct {
	ProcedureID  string                `json:"procedureId"`
	Name         string                `json:"name"`
	Body         string                `json:"body"`
	Instructions []reactor.Instruction `json:"instructions"`
	Created      time.Time             `json:"created"`
}

// A ProcedureInfo lists a procedure without its instructions.
type ProcedureInfo struct {
	ProcedureID string    `json:"procedureId"`
	Name        string    `json:"name"`
	Steps       int       `json:"steps"`
	Created     time.Time `json:"created"`
}

// LoadProcedure finds a procedure by ID or by name.  It checks
// the cache first; on a miss it loads from the database and
// caches the result.
func LoadProcedure(idOrName string) (p *Procedure, err error) {
	defer catch(&err)
	p = &Procedure{}
	if p.cacheLoad(idOrName) {
		return p, nil
	}
	if !p.databaseLoad(idOrName) {
		return nil, errors.Wrapf(ErrNoProcedure, "%q", idOrName)
	}
	p.cacheInsert(idOrName)
	return p, nil
}

// SaveProcedure parses and stores a procedure under a name.
// Saving a new body under an existing name replaces it (and any
// runs recorded against the old body).  Saving a body that is
// already stored under another name fails with
// ErrDuplicateProcedure, and re-saving a procedure unchanged
// leaves it alone.  Parse failures are returned as reactor
// Errors.
func SaveProcedure(name, body string) (p *Procedure, err error) {
	instrs, err := reactor.ParseInstructions(body)
	if err != nil {
		return nil, err
	}
	defer catch(&err)
	p = &Procedure{
		ProcedureID:  dbprep.ProcedureID(body),
		Name:         name,
		Body:         body,
		Instructions: instrs,
		Created:      time.Now().UTC().Truncate(time.Microsecond),
	}
	if p.databaseInsert(len(instrs)) {
		p.cacheForget()
	}
	return p, nil
}

// ListProcedures returns every stored procedure, by name.
func ListProcedures() (infos []ProcedureInfo, err error) {
	defer catch(&err)
	pgExecute(func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx,
			"SELECT procedure_id, name, steps, created FROM procedures ORDER BY name")
		if err != nil {
			return errors.Wrap(err, "list procedures")
		}
		infos, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (ProcedureInfo, error) {
			var pi ProcedureInfo
			err := row.Scan(&pi.ProcedureID, &pi.Name, &pi.Steps, &pi.Created)
			return pi, err
		})
		return errors.Wrap(err, "scan procedures")
	})
	return infos, nil
}

/*

cache

*/

func procedureKey(idOrName string) string {
	return rdEnv + ":PRC:" + idOrName
}

// cacheLoad loads an already cached procedure.  Returns whether
// it was found.
func (p *Procedure) cacheLoad(idOrName string) bool {
	var bytes []byte
	rdExecute(func(tx redis.Conn) (err error) {
		bytes, err = redis.Bytes(tx.Do("GET", procedureKey(idOrName)))
		if err == redis.ErrNil {
			return nil
		}
		return errors.Wrapf(err, "cache failure loading procedure %q", idOrName)
	})
	if len(bytes) == 0 {
		return false
	}
	if err := json.Unmarshal(bytes, p); err != nil {
		panic(errors.Wrapf(err, "failed to unmarshal procedure %q", idOrName))
	}
	if p.ProcedureID != idOrName && p.Name != idOrName {
		panic(errors.Errorf("cached procedure %q (%s) found for %q", p.Name, p.ProcedureID, idOrName))
	}
	return true
}

// cacheInsert caches the procedure under the key it was looked
// up by.  Replaces any existing entry.
func (p *Procedure) cacheInsert(idOrName string) {
	bytes, err := json.Marshal(p)
	if err != nil {
		panic(errors.Wrapf(err, "failed to marshal procedure %q", p.Name))
	}
	rdExecute(func(tx redis.Conn) error {
		_, err := tx.Do("SET", procedureKey(idOrName), bytes)
		return errors.Wrapf(err, "cache failure saving procedure %q", p.Name)
	})
}

// cacheForget drops any cached copies of the procedure, which
// may have been cached by either ID or name.
func (p *Procedure) cacheForget() {
	rdExecute(func(tx redis.Conn) error {
		_, err := tx.Do("DEL", procedureKey(p.ProcedureID), procedureKey(p.Name))
		return errors.Wrapf(err, "cache failure dropping procedure %q", p.Name)
	})
}

/*

database

*/

// databaseLoad loads a procedure by ID or name.  Returns whether
// it was found.
func (p *Procedure) databaseLoad(idOrName string) (found bool) {
	pgExecute(func(ctx context.Context, tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			"SELECT procedure_id, name, body, created FROM procedures "+
				"WHERE procedure_id = $1 OR name = $1", idOrName)
		err := row.Scan(&p.ProcedureID, &p.Name, &p.Body, &p.Created)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "failure looking up procedure %q", idOrName)
		}
		found = true
		return nil
	})
	if !found {
		return false
	}
	instrs, err := reactor.ParseInstructions(p.Body)
	if err != nil {
		panic(errors.Wrapf(err, "stored procedure %q doesn't parse", p.Name))
	}
	p.Instructions = instrs
	return true
}

// databaseInsert saves the procedure, replacing any procedure
// with the same name.  Returns whether anything changed.  If the
// procedure is already stored, its stored creation time is
// loaded instead.
func (p *Procedure) databaseInsert(steps int) (changed bool) {
	var replacedID string
	pgExecute(func(ctx context.Context, tx pgx.Tx) error {
		var existing string
		var created time.Time
		err := tx.QueryRow(ctx,
			"SELECT name, created FROM procedures WHERE procedure_id = $1",
			p.ProcedureID).Scan(&existing, &created)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
		case err != nil:
			return errors.Wrapf(err, "look up procedure %s", p.ProcedureID)
		case existing == p.Name:
			p.Created = created
			return nil
		default:
			return errors.Wrapf(ErrDuplicateProcedure, "%q is saved as %q", p.Name, existing)
		}

		err = tx.QueryRow(ctx,
			"DELETE FROM procedures WHERE name = $1 RETURNING procedure_id", p.Name).Scan(&replacedID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return errors.Wrapf(err, "replace procedure %q", p.Name)
		}
		_, err = tx.Exec(ctx,
			"INSERT INTO procedures (procedure_id, name, body, steps, created) "+
				"VALUES ($1, $2, $3, $4, $5)",
			p.ProcedureID, p.Name, p.Body, steps, p.Created)
		if err != nil {
			return errors.Wrapf(err, "database error saving procedure %q", p.Name)
		}
		changed = true
		return nil
	})
	if replacedID != "" {
		rdExecute(func(tx redis.Conn) error {
			_, err := tx.Do("DEL", procedureKey(replacedID))
			return errors.Wrapf(err, "cache failure dropping procedure %s", replacedID)
		})
	}
	return
}

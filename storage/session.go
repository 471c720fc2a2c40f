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
	"encoding/json"
	"time"

	"github.com/ancientHacker/reactor.go/dbprep"
	"github.com/ancientHacker/reactor.go/reactor"
	"github.com/gomodule/redigo/redis"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// A Session tracks a user's progress stepping through one
// procedure.  Behind the scenes, we cache a snapshot of the
// reactor after every step, so the user can go back (undo)
// steps without replaying the procedure.
type Session struct {
	// these elements are persisted as part of the session hash
	SID     string // session ID
	PID     string // ID of the procedure being stepped
	Mode    string // reactor mode name
	Step    int    // current step
	Created string // RFC3339 time when the session was created
	Saved   string // RFC3339 time when the session was last saved

	// these are rebuilt from the procedure and the cached steps
	Procedure *Procedure       `redis:"-"`
	Reactor   *reactor.Reactor `redis:"-"`
}

// LoadSession finds the session with the given ID.  A session
// that isn't in the cache starts on the default procedure in
// full mode, and so does one whose procedure has since been
// replaced or whose cached state is unusable.
func LoadSession(sid string) (s *Session, err error) {
	defer catch(&err)
	s = &Session{SID: sid}
	if !s.lookup() {
		s.Created = time.Now().Format(time.RFC3339)
		s.start(dbprep.DefaultProcedureName, reactor.FullMode)
		return s, nil
	}
	mode, err := reactor.ParseMode(s.Mode)
	if err != nil {
		log.WithError(err).Warnf("Session %v has a bad cached mode; restarting.", sid)
		s.start(dbprep.DefaultProcedureName, reactor.FullMode)
		return s, nil
	}
	p, err := LoadProcedure(s.PID)
	if errors.Is(err, ErrNoProcedure) {
		log.Warnf("Session %v procedure %s is gone; restarting.", sid, s.PID)
		s.start(dbprep.DefaultProcedureName, reactor.FullMode)
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	s.Procedure = p
	s.Reactor = reactor.New(p.Instructions, mode)
	if err := s.Reactor.Restore(s.loadLastStep()); err != nil {
		log.WithError(err).Warnf("Session %v has a bad cached step; restarting.", sid)
		s.start(s.PID, mode)
	}
	return s, nil
}

// StartProcedure switches the session to the given procedure
// (by ID or name) and mode, at step 0.  An empty ID means the
// session's current procedure.
func (s *Session) StartProcedure(idOrName string, mode reactor.Mode) (err error) {
	defer catch(&err)
	if idOrName == "" {
		idOrName = s.PID
	}
	s.start(idOrName, mode)
	return nil
}

// Reset restarts the session's procedure from step 0.
func (s *Session) Reset() error {
	return s.StartProcedure(s.PID, s.Reactor.Mode())
}

// AddStep steps the reactor and caches the new state.  When the
// step finishes the procedure, the run is recorded.  Stepping a
// finished reactor returns the reactor's Error and changes
// nothing.
func (s *Session) AddStep() (update *reactor.Update, err error) {
	update, err = s.Reactor.Step()
	if err != nil {
		return nil, err
	}
	defer catch(&err)
	s.Step = update.State.Step
	s.Saved = time.Now().Format(time.RFC3339)
	bytes := marshalStep(s.Reactor.Snapshot())
	rdExecute(func(tx redis.Conn) error {
		tx.Send("MULTI")
		tx.Send("HSET", redis.Args{}.Add(s.key()).AddFlat(s)...)
		tx.Send("RPUSH", s.stepsKey(), bytes)
		_, err := tx.Do("EXEC")
		return errors.Wrapf(err, "cache failure saving session %v step %d", s.SID, s.Step)
	})
	if update.State.Done {
		if err := RecordRun(s.PID, s.Reactor.Mode(), update.State.Volume, update.State.Regions); err != nil {
			log.WithError(err).Warnf("Couldn't record run of %q for session %v", s.PID, s.SID)
		}
	}
	log.Debugf("Session %v: %v", s.SID, update.Instruction)
	return update, nil
}

// RemoveStep goes back one step.  At step 0 it does nothing.
func (s *Session) RemoveStep() (err error) {
	if s.Step == 0 {
		return nil
	}
	defer catch(&err)
	s.Saved = time.Now().Format(time.RFC3339)
	var bytes []byte
	rdExecute(func(tx redis.Conn) (err error) {
		tx.Send("LTRIM", s.stepsKey(), 0, -2)
		bytes, err = redis.Bytes(tx.Do("LINDEX", s.stepsKey(), -1))
		return errors.Wrapf(err, "cache failure removing session %v step %d", s.SID, s.Step)
	})
	if err := s.Reactor.Restore(unmarshalStep(bytes)); err != nil {
		panic(err)
	}
	s.Step = s.Reactor.State().Step
	rdExecute(func(tx redis.Conn) error {
		_, err := tx.Do("HSET", redis.Args{}.Add(s.key()).AddFlat(s)...)
		return errors.Wrapf(err, "cache failure saving session %v", s.SID)
	})
	log.Debugf("Session %v reverted to step %d", s.SID, s.Step)
	return nil
}

/*

session manipulation

*/

// lookup reads the session hash.  Returns whether it was found.
func (s *Session) lookup() (found bool) {
	rdExecute(func(tx redis.Conn) error {
		vals, err := redis.Values(tx.Do("HGETALL", s.key()))
		if err != nil {
			return errors.Wrapf(err, "cache failure loading session %v", s.SID)
		}
		if len(vals) == 0 {
			return nil
		}
		if err := redis.ScanStruct(vals, s); err != nil {
			return errors.Wrapf(err, "failed to parse saved session %v", s.SID)
		}
		found = true
		return nil
	})
	return
}

func (s *Session) loadProcedure(idOrName string) {
	p, err := LoadProcedure(idOrName)
	if err != nil {
		panic(err)
	}
	s.Procedure, s.PID = p, p.ProcedureID
}

// start puts the session at step 0 of a procedure, and resets
// its cached steps to just that one.
func (s *Session) start(idOrName string, mode reactor.Mode) {
	s.loadProcedure(idOrName)
	s.Reactor = reactor.New(s.Procedure.Instructions, mode)
	s.Mode, s.Step = mode.String(), 0
	s.Saved = time.Now().Format(time.RFC3339)
	bytes := marshalStep(s.Reactor.Snapshot())
	rdExecute(func(tx redis.Conn) error {
		tx.Send("MULTI")
		tx.Send("HSET", redis.Args{}.Add(s.key()).AddFlat(s)...)
		tx.Send("DEL", s.stepsKey())
		tx.Send("RPUSH", s.stepsKey(), bytes)
		_, err := tx.Do("EXEC")
		return errors.Wrapf(err, "cache failure resetting session %v", s.SID)
	})
	log.Infof("Session %v started procedure %q (%s) in %v mode", s.SID, s.Procedure.Name, s.PID, mode)
}

// loadLastStep returns the snapshot for the session's current
// step, or nil if no steps are cached.
func (s *Session) loadLastStep() *reactor.Snapshot {
	var bytes []byte
	rdExecute(func(tx redis.Conn) (err error) {
		bytes, err = redis.Bytes(tx.Do("LINDEX", s.stepsKey(), -1))
		if err == redis.ErrNil {
			return nil
		}
		return errors.Wrapf(err, "cache failure loading session %v step %d", s.SID, s.Step)
	})
	if bytes == nil {
		return nil
	}
	return unmarshalStep(bytes)
}

/*

serialization of reactor state into and out of the cache

*/

func marshalStep(snap *reactor.Snapshot) []byte {
	bytes, err := json.Marshal(snap)
	if err != nil {
		panic(errors.Wrapf(err, "failed to marshal snapshot of step %d", snap.Step))
	}
	return bytes
}

func unmarshalStep(bytes []byte) *reactor.Snapshot {
	var snap reactor.Snapshot
	if err := json.Unmarshal(bytes, &snap); err != nil {
		panic(errors.Wrap(err, "failed to unmarshal cached step"))
	}
	return &snap
}

/*

session key generation

*/

func (s *Session) key() string {
	return rdEnv + ":SID:" + s.SID
}

func (s *Session) stepsKey() string {
	return s.key() + ":Steps"
}

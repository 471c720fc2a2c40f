package main

import (
	"github.com/ancientHacker/reactor.go/reactor"
	"github.com/ancientHacker/reactor.go/storage"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// A cliSession is the user's reactor and its history.  Unlike
// the web server's sessions, it lives only in memory; storage is
// used only to fetch and save procedures.
type cliSession struct {
	SID       string
	source    string // where the procedure came from
	reactor   *reactor.Reactor
	history   []*reactor.Snapshot // state before each step
	markdown  bool
	debug     bool
	connected bool
}

func newSession(mode reactor.Mode, debug bool) *cliSession {
	s := &cliSession{SID: uuid.NewString(), source: "(none)", debug: debug}
	s.start(nil, mode)
	log.Debugf("Started CLI session %s.", s.SID)
	return s
}

// start runs a procedure from step 0, forgetting any history.
func (s *cliSession) start(instrs []reactor.Instruction, mode reactor.Mode) {
	s.reactor = reactor.New(instrs, mode)
	s.reactor.Debug = s.debug
	s.history = nil
}

func (s *cliSession) step() (*reactor.Update, error) {
	before := s.reactor.Snapshot()
	update, err := s.reactor.Step()
	if err != nil {
		return nil, err
	}
	s.history = append(s.history, before)
	return update, nil
}

// back undoes the last step, reporting whether there was one.
func (s *cliSession) back() bool {
	if len(s.history) == 0 {
		return false
	}
	last := s.history[len(s.history)-1]
	if err := s.reactor.Restore(last); err != nil {
		panic(err)
	}
	s.history = s.history[:len(s.history)-1]
	return true
}

// append adds an instruction to the end of the procedure,
// keeping the current progress and history.
func (s *cliSession) append(instr reactor.Instruction) {
	snap := s.reactor.Snapshot()
	r := reactor.New(append(s.reactor.Instructions(), instr), s.reactor.Mode())
	r.Debug = s.debug
	if err := r.Restore(snap); err != nil {
		panic(err)
	}
	s.reactor = r
}

func (s *cliSession) openStorage() error {
	if s.connected {
		return nil
	}
	cacheID, databaseID, err := storage.Connect()
	if err != nil {
		return err
	}
	log.Printf("Connected to cache %s and database %s.", cacheID, databaseID)
	s.connected = true
	return nil
}

func (s *cliSession) closeStorage() {
	if s.connected {
		storage.Close()
		s.connected = false
	}
}

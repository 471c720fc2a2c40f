package main

import (
	"net/http"
	"strings"
	"sync"

	"github.com/ancientHacker/reactor.go/storage"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const cookieName = "reactorID"
const cookiePath = "/"

// A sessionLock serializes requests for one session.  It is
// dropped from sessionLocks when nobody holds or waits for it.
type sessionLock struct {
	sync.Mutex
	holders int // guarded by sessionMutex
}

var (
	sessionLocks = make(map[string]*sessionLock)
	sessionMutex sync.Mutex
)

// getCookie gets the session cookie, or sets a new one.  It
// returns the session ID associated with the cookie.
//
// Behind a proxy that terminates TLS, the same server sees both
// HTTP and HTTPS traffic, and browsers will send an HTTP cookie
// to the HTTPS endpoint.  So session IDs carry the protocol they
// were issued for, and a cookie from the other protocol starts a
// new session.
func getCookie(w http.ResponseWriter, r *http.Request) string {
	proto := "httpx" // absent other indicators, protocol is unknown
	if forwarded := r.Header.Get("X-Forwarded-Proto"); forwarded != "" {
		proto = forwarded
	}

	if sc, e := r.Cookie(cookieName); e == nil {
		if id, found := strings.CutPrefix(sc.Value, proto+"-"); found {
			if _, e := uuid.Parse(id); e == nil {
				return sc.Value
			}
		}
	}

	sid := proto + "-" + uuid.NewString()
	http.SetCookie(w, &http.Cookie{Name: cookieName, Value: sid, Path: cookiePath, HttpOnly: true})
	log.Debugf("Issued new session cookie %v.", sid)
	return sid
}

// lockSession waits for exclusive use of the given session, and
// returns the function that gives it up.  Sessions live in the
// cache, so two requests from one browser would otherwise race
// on its steps.
func lockSession(sid string) (unlock func()) {
	sessionMutex.Lock()
	lock, ok := sessionLocks[sid]
	if !ok {
		lock = new(sessionLock)
		sessionLocks[sid] = lock
	}
	lock.holders++
	sessionMutex.Unlock()

	lock.Lock()
	return func() {
		lock.Unlock()
		sessionMutex.Lock()
		defer sessionMutex.Unlock()
		lock.holders--
		if lock.holders == 0 {
			delete(sessionLocks, sid)
		}
	}
}

// sessionHandler is a handler that works on the requester's
// session.
type sessionHandler func(s *storage.Session, w http.ResponseWriter, r *http.Request)

// withSession loads the requester's session, holding its lock
// for the duration of the request.  Failures to load go to
// onError.
func withSession(handler sessionHandler, onError func(w http.ResponseWriter, r *http.Request, err error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid := getCookie(w, r)
		unlock := lockSession(sid)
		defer unlock()
		s, err := storage.LoadSession(sid)
		if err != nil {
			log.WithError(err).Errorf("Couldn't load session %v.", sid)
			onError(w, r, err)
			return
		}
		handler(s, w, r)
	}
}

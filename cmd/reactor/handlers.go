package main

import (
	"encoding/json"
	"net/http"

	"github.com/ancientHacker/reactor.go/client"
	"github.com/ancientHacker/reactor.go/reactor"
	"github.com/ancientHacker/reactor.go/storage"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// runsListed is how many recent runs /api/runs returns.
const runsListed = 10

type server struct {
	metrics *serverMetrics
}

/*

API handlers

*/

func (srv *server) volumesHandler(w http.ResponseWriter, r *http.Request) {
	v, err := reactor.VolumesHandler(w, r)
	srv.metrics.recordVolumes(err)
	if err != nil {
		log.Printf("Volume request failed: %v", err)
		return
	}
	log.Debugf("Computed volumes %+v.", *v)
}

func (srv *server) stateHandler(s *storage.Session, w http.ResponseWriter, r *http.Request) {
	srv.check("state", s.Reactor.StateHandler(w, r))
}

func (srv *server) regionsHandler(s *storage.Session, w http.ResponseWriter, r *http.Request) {
	srv.check("regions", s.Reactor.RegionsHandler(w, r))
}

func (srv *server) summaryHandler(s *storage.Session, w http.ResponseWriter, r *http.Request) {
	srv.check("summary", s.Reactor.SummaryHandler(w, r))
}

func (srv *server) stepHandler(s *storage.Session, w http.ResponseWriter, r *http.Request) {
	update, err := s.AddStep()
	if err == nil {
		srv.metrics.recordStep(update)
		log.Debugf("Session %v stepped: %v", s.SID, update.State)
	}
	srv.check("step", reactor.SendUpdate(update, err, w, r))
}

func (srv *server) backHandler(s *storage.Session, w http.ResponseWriter, r *http.Request) {
	if err := s.RemoveStep(); err != nil {
		srv.check("back", reactor.SendError("RemoveStep", err, w, r))
		return
	}
	srv.check("back", s.Reactor.StateHandler(w, r))
}

// resetHandler restarts the session, on the procedure named in
// the path (or the current one) and the mode in the query (or
// the current one).
func (srv *server) resetHandler(s *storage.Session, w http.ResponseWriter, r *http.Request) {
	mode := s.Reactor.Mode()
	if name := r.URL.Query().Get("mode"); name != "" {
		var err error
		if mode, err = reactor.ParseMode(name); err != nil {
			srv.check("reset", reactor.SendError("ParseMode", err, w, r))
			return
		}
	}
	if err := s.StartProcedure(chi.URLParam(r, "id"), mode); err != nil {
		srv.check("reset", reactor.SendError("StartProcedure", procedureError(r, err), w, r))
		return
	}
	log.Printf("Session %v started procedure %q in %v mode.", s.SID, s.PID, mode)
	srv.check("reset", s.Reactor.StateHandler(w, r))
}

func (srv *server) runsHandler(s *storage.Session, w http.ResponseWriter, r *http.Request) {
	runs, err := storage.LatestRuns(s.PID, runsListed)
	if err != nil {
		srv.check("runs", reactor.SendError("LatestRuns", err, w, r))
		return
	}
	if runs == nil {
		runs = []storage.Run{}
	}
	srv.check("runs", writeJSON(w, runs))
}

func (srv *server) listProceduresHandler(w http.ResponseWriter, r *http.Request) {
	infos, err := storage.ListProcedures()
	if err != nil {
		srv.check("procedures", reactor.SendError("ListProcedures", err, w, r))
		return
	}
	if infos == nil {
		infos = []storage.ProcedureInfo{}
	}
	srv.check("procedures", writeJSON(w, infos))
}

// saveProcedureHandler stores the instruction text in the body
// under the name in the path.
func (srv *server) saveProcedureHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	body, err := reactor.ReadProcedureBody(w, r)
	if err != nil {
		srv.check("procedures", err)
		return
	}
	p, err := storage.SaveProcedure(name, body)
	if err != nil {
		srv.check("procedures", reactor.SendError("SaveProcedure", procedureError(r, err), w, r))
		return
	}
	log.Printf("Saved procedure %q as %v.", name, p.ProcedureID)
	srv.check("procedures", writeJSON(w, storage.ProcedureInfo{
		ProcedureID: p.ProcedureID,
		Name:        p.Name,
		Steps:       len(p.Instructions),
		Created:     p.Created,
	}))
}

/*

page handlers

*/

func (srv *server) reactorPageHandler(s *storage.Session, w http.ResponseWriter, r *http.Request) {
	writeHTML(w, http.StatusOK, client.ReactorPage(s.SID, s.Procedure, s.Reactor))
}

func (srv *server) homePageHandler(s *storage.Session, w http.ResponseWriter, r *http.Request) {
	infos, err := storage.ListProcedures()
	if err != nil {
		pageError(w, r, err)
		return
	}
	writeHTML(w, http.StatusOK, client.HomePage(s.SID, s.PID, infos))
}

func staticHandler(w http.ResponseWriter, r *http.Request) {
	if !client.StaticHandler(w, r) {
		http.NotFound(w, r)
	}
}

/*

utilities

*/

// check logs and counts a failed API response.  The handler that
// failed has already sent the error to the client.
func (srv *server) check(endpoint string, err error) {
	if err != nil {
		srv.metrics.recordError(endpoint)
		log.Printf("API %s request failed: %v", endpoint, err)
	}
}

// procedureError turns a missing or duplicate procedure into a
// request error that names it.
func procedureError(r *http.Request, err error) error {
	var problem string
	switch {
	case errors.Is(err, storage.ErrNoProcedure):
		problem = "No such procedure"
	case errors.Is(err, storage.ErrDuplicateProcedure):
		problem = "Procedure already saved under another name"
	default:
		return err
	}
	return reactor.Error{
		Scope:     reactor.RequestScope,
		Structure: reactor.AttributeValueStructure,
		Attribute: reactor.URLAttribute,
		Condition: reactor.GeneralCondition,
		Values:    reactor.ErrorData{r.URL.Path, problem},
	}
}

func apiError(w http.ResponseWriter, r *http.Request, err error) {
	reactor.SendError("LoadSession", err, w, r)
}

func pageError(w http.ResponseWriter, r *http.Request, err error) {
	writeHTML(w, http.StatusInternalServerError, client.ErrorPage(err))
}

func writeHTML(w http.ResponseWriter, status int, body string) {
	w.Header().Add("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

func writeJSON(w http.ResponseWriter, obj interface{}) error {
	bytes, err := json.Marshal(obj)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return errors.Wrap(err, "encode response")
	}
	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(bytes)
	return nil
}

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

package reactor

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pkg/errors"
)

/*

Reactor Creation

*/

// NewHandler is a POST handler that reads a JSON-encoded Summary
// from the request body and makes a Reactor from it.  The new
// reactor's State is sent as a 200 response, and the reactor
// itself is returned to the golang caller.  A Summary that can't
// be decoded, or that names an unknown mode, gets a 400 response
// and the error is returned to the caller.
func NewHandler(w http.ResponseWriter, req *http.Request) (*Reactor, error) {
	var summary Summary
	if e := json.NewDecoder(req.Body).Decode(&summary); e != nil {
		return nil, writeError(requestDecodingError, ErrorData{e.Error()}, w, req)
	}
	r, e := NewFromSummary(&summary)
	if e != nil {
		return nil, writeDomainError("NewHandler", e, w, req)
	}
	return r, r.StateHandler(w, req)
}

// VolumesHandler is a POST handler that reads a reboot procedure
// as plain text from the request body and responds with both of
// its Volumes.  It needs no reactor, and keeps no state.
func VolumesHandler(w http.ResponseWriter, req *http.Request) (*Volumes, error) {
	body, e := ReadProcedureBody(w, req)
	if e != nil {
		return nil, e
	}
	instrs, e := ParseInstructions(body)
	if e != nil {
		return nil, writeDomainError("VolumesHandler", e, w, req)
	}
	v := ComputeVolumes(instrs)
	return &v, writeJSON(v, http.StatusOK, w, req)
}

// MaxProcedureBytes limits the size of procedure text posted to
// the handlers.
const MaxProcedureBytes = 1 << 20

// ReadProcedureBody reads plain-text procedure from the request
// body.  A body over MaxProcedureBytes gets a 413 response, and
// any other read failure a 400; either way the error is returned.
func ReadProcedureBody(w http.ResponseWriter, req *http.Request) (string, error) {
	body, e := io.ReadAll(http.MaxBytesReader(w, req.Body, MaxProcedureBytes))
	if e != nil {
		var tooBig *http.MaxBytesError
		if errors.As(e, &tooBig) {
			return "", writeError(requestTooLargeError,
				ErrorData{fmt.Sprintf("Body exceeds %d bytes", tooBig.Limit)}, w, req)
		}
		return "", writeError(requestDecodingError, ErrorData{e.Error()}, w, req)
	}
	return string(body), nil
}

/*

Reactor Download Methods

*/

// SummaryHandler responds with the reactor's Summary.
func (r *Reactor) SummaryHandler(w http.ResponseWriter, req *http.Request) error {
	if r == nil {
		return writeError(noReactorError, ErrorData{req.URL.Path, "No reactor"}, w, req)
	}
	return writeJSON(r.Summary(), http.StatusOK, w, req)
}

// StateHandler responds with the reactor's State.
func (r *Reactor) StateHandler(w http.ResponseWriter, req *http.Request) error {
	if r == nil {
		return writeError(noReactorError, ErrorData{req.URL.Path, "No reactor"}, w, req)
	}
	return writeJSON(r.State(), http.StatusOK, w, req)
}

// RegionsHandler responds with the reactor's on space.
func (r *Reactor) RegionsHandler(w http.ResponseWriter, req *http.Request) error {
	if r == nil {
		return writeError(noReactorError, ErrorData{req.URL.Path, "No reactor"}, w, req)
	}
	regions := r.Regions()
	if regions == nil {
		regions = []Region{}
	}
	return writeJSON(regions, http.StatusOK, w, req)
}

/*

Reactor Updates

*/

// StepHandler is a POST handler that consumes the next
// instruction.  The poster and the caller both get the Update
// (or the error).  Stepping a reactor that's done is a 400.
func (r *Reactor) StepHandler(w http.ResponseWriter, req *http.Request) (*Update, error) {
	if r == nil {
		return nil, writeError(noReactorError, ErrorData{req.URL.Path, "No reactor"}, w, req)
	}
	update, e := r.Step()
	if e != nil {
		return nil, writeDomainError("StepHandler", e, w, req)
	}
	return update, writeJSON(update, http.StatusOK, w, req)
}

// SendUpdate responds with the outcome of a step taken outside
// the reactor's own handlers, such as by a stored session: the
// Update if there is one, otherwise the error.
func SendUpdate(update *Update, e error, w http.ResponseWriter, req *http.Request) error {
	if e != nil {
		return SendError("SendUpdate", e, w, req)
	}
	return writeJSON(update, http.StatusOK, w, req)
}

// SendError responds with a reactor Error as a 400.  Other
// errors are reported as internal failures at where.
func SendError(where string, e error, w http.ResponseWriter, req *http.Request) error {
	return writeDomainError(where, e, w, req)
}

/*

Utilities

*/

type handlerError int

const (
	requestDecodingError handlerError = iota
	requestTooLargeError
	responseEncodingError
	noReactorError
	errorFormatError
)

// writeDomainError sends a reactor Error as a 400 response.  Any
// other kind of error is a bug in the named location.
func writeDomainError(where string, e error, w http.ResponseWriter, req *http.Request) error {
	err, ok := e.(Error)
	if !ok {
		return writeError(errorFormatError, ErrorData{where, e.Error()}, w, req)
	}
	err.Message = err.Error()
	return writeJSON(err, http.StatusBadRequest, w, req)
}

// writeError sends back a server error of the given type, sort
// of like http.Error, but it sends the JSON form of an
// appropriate Error.
func writeError(et handlerError, ed ErrorData, w http.ResponseWriter, req *http.Request) error {
	var err Error
	var status int
	switch et {
	case requestDecodingError:
		status = http.StatusBadRequest
		err = Error{
			Scope:     RequestScope,
			Structure: AttributeStructure,
			Attribute: DecodeAttribute,
			Condition: GeneralCondition,
			Values:    ed,
		}
	case requestTooLargeError:
		status = http.StatusRequestEntityTooLarge
		err = Error{
			Scope:     RequestScope,
			Structure: ScopeStructure,
			Condition: GeneralCondition,
			Values:    ed,
		}
	case responseEncodingError:
		status = http.StatusInternalServerError
		err = Error{
			Scope:     InternalScope,
			Structure: AttributeStructure,
			Attribute: EncodeAttribute,
			Condition: GeneralCondition,
			Values:    ed,
		}
	case noReactorError:
		status = http.StatusNotFound
		err = Error{
			Scope:     RequestScope,
			Structure: AttributeValueStructure,
			Attribute: URLAttribute,
			Condition: GeneralCondition,
			Values:    ed,
		}
	case errorFormatError:
		status = http.StatusInternalServerError
		err = Error{
			Scope:     InternalScope,
			Structure: AttributeStructure,
			Attribute: LocationAttribute,
			Condition: GeneralCondition,
			Values:    ed,
		}
	default:
		status = http.StatusInternalServerError
		err = Error{
			Scope:     InternalScope,
			Structure: AttributeStructure,
			Attribute: LocationAttribute,
			Condition: GeneralCondition,
			Values: ErrorData{
				"writeError",
				fmt.Sprintf("Unknown handler error type (%v)", et),
			},
		}
	}
	err.Message = err.Error()
	return writeJSON(err, status, w, req)
}

// writeJSON encodes and sends the client response.  It returns
// the Error it sent, if it sent one (including an encoding
// failure of its own), and nil otherwise.
func writeJSON(obj interface{}, status int, w http.ResponseWriter, req *http.Request) error {
	err, isErr := obj.(Error)
	bytes, e := json.Marshal(obj)
	if e != nil {
		if isErr && err.Scope == InternalScope && err.Attribute == EncodeAttribute {
			// failed to encode an encoding error: send its text
			status = http.StatusInternalServerError
			bytes = []byte(fmt.Sprintf("%q", err.Error()))
		} else {
			return writeError(responseEncodingError, ErrorData{e.Error()}, w, req)
		}
	}
	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(bytes)
	if isErr {
		return err
	}
	return nil
}

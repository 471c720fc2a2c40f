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

// Command reactor serves the reactor stepping UI and its JSON
// API.
package main

import (
	"net/http"
	"os"
	"time"

	"github.com/ancientHacker/reactor.go/client"
	"github.com/ancientHacker/reactor.go/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// newRouter wires the server's routes.  Metrics are registered
// with reg and served from it.
func newRouter(reg *prometheus.Registry) http.Handler {
	srv := &server{metrics: newMetrics(reg)}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	for _, path := range client.StaticPaths() {
		r.Get(path, staticHandler)
	}
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/volumes", srv.volumesHandler)
		r.Get("/procedures", srv.listProceduresHandler)
		r.Put("/procedures/{name}", srv.saveProcedureHandler)
		r.Get("/state", withSession(srv.stateHandler, apiError))
		r.Get("/regions", withSession(srv.regionsHandler, apiError))
		r.Get("/summary", withSession(srv.summaryHandler, apiError))
		r.Get("/runs", withSession(srv.runsHandler, apiError))
		r.Post("/step", withSession(srv.stepHandler, apiError))
		r.Post("/back/", withSession(srv.backHandler, apiError))
		r.Post("/reset/", withSession(srv.resetHandler, apiError))
		r.Post("/reset/{id}", withSession(srv.resetHandler, apiError))
	})
	r.Get("/reactor/", withSession(srv.reactorPageHandler, pageError))
	r.Get("/home/", withSession(srv.homePageHandler, pageError))
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/reactor/", http.StatusFound)
	})
	return r
}

// requestLogger logs each request at debug level.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.WithFields(log.Fields{
			"request": middleware.GetReqID(r.Context()),
			"status":  ww.Status(),
			"elapsed": time.Since(start),
		}).Debugf("Handled %s %s", r.Method, r.URL.Path)
	})
}

func setLogLevel() {
	if name := os.Getenv("LOG_LEVEL"); name != "" {
		level, err := log.ParseLevel(name)
		if err != nil {
			log.Fatalf("Bad LOG_LEVEL %q: %v", name, err)
		}
		log.SetLevel(level)
	}
}

func main() {
	setLogLevel()
	if err := client.VerifyResources(); err != nil {
		log.Fatalf("Missing client resources: %v", err)
	}
	cacheID, databaseID, err := storage.Connect()
	if err != nil {
		log.Fatalf("Couldn't connect to storage: %v", err)
	}
	defer storage.Close()
	log.Printf("Connected to cache %s and database %s.", cacheID, databaseID)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Heroku environment port sensing
	port := os.Getenv("PORT")
	if port == "" {
		// running locally in dev mode
		port = "localhost:8080"
	} else {
		// running as a true server
		port = ":" + port
	}

	log.Printf("Listening on %s...", port)
	if err := http.ListenAndServe(port, newRouter(reg)); err != nil {
		log.Fatal("Listener failure: ", err)
	}
}

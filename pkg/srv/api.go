/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

// go-daric debug bridge API
//
// # RESTful APIs to inspect a simulated Daric SoC while it boots
//
// Schemes: http
// Host: localhost:8010
// Version: 1.0.0
//
//	Consumes:
//	- application/json
//
//	Produces:
//	- application/json
//
// swagger:meta
package srv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"jinr.ru/greenlab/go-daric/pkg/config"
	"jinr.ru/greenlab/go-daric/pkg/log"
	"jinr.ru/greenlab/go-daric/pkg/report"
	"jinr.ru/greenlab/go-daric/pkg/sim"
	"jinr.ru/greenlab/go-daric/pkg/store"
)

// Success response
// swagger:response okResp
type RespOk struct {
	// in:body
	Body struct {
		// HTTP status code 200 - OK
		Code int `json:"code"`
	}
}

// Error Bad Request
// swagger:response badReq
type ReqBadRequest struct {
	// in:body
	Body struct {
		// HTTP status code 400 -  Bad Request
		Code int `json:"code"`
	}
}

// RegHex is a bus word, both fields hexadecimal with 0x prefix.
type RegHex struct {
	Addr  string `json:"addr"`
	Value string `json:"value"`
}

// StatusResp is one decoded self-test outcome.
type StatusResp struct {
	Kind     string `json:"kind"`
	TestID   string `json:"test-id"`
	Value    string `json:"value,omitempty"`
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
	Source   int    `json:"source,omitempty"`
}

type ReportResp struct {
	Words    []string     `json:"words"`
	Statuses []StatusResp `json:"statuses"`
}

// Bridge is the debug port of the SoC. Accesses bypass the data cache.
type Bridge interface {
	Peek(addr uint32) (uint32, error)
	Poke(addr, value uint32) error
	Clock() sim.Clock
	Trace() []sim.Access
}

type ApiServer struct {
	context.Context
	*config.Config
	*mux.Router
	bridge   Bridge
	recorder *report.Recorder
	store    *store.Store
}

// NewApiServer serves bridge. Recorder and store may be nil, the matching
// routes then answer 404.
func NewApiServer(ctx context.Context, cfg *config.Config, bridge Bridge, recorder *report.Recorder, st *store.Store) *ApiServer {
	s := &ApiServer{
		Context:  ctx,
		Config:   cfg,
		bridge:   bridge,
		recorder: recorder,
		store:    st,
	}
	s.configureRouter()
	return s
}

func hex32(v uint32) string {
	return fmt.Sprintf("0x%08x", v)
}

func parseHex32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, ErrBadHex{Value: s}
	}
	return uint32(v), nil
}

// Handler wraps the router with panic recovery and an access log.
func (s *ApiServer) Handler() http.Handler {
	recovery := handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))
	return handlers.LoggingHandler(log.Writer(), recovery(s.Router))
}

// Run serves until the context is done.
func (s *ApiServer) Run() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Api.Address, s.Config.Api.Port)
	log.Info("Starting API server: address: %s", addr)
	httpServer := &http.Server{
		Handler: s.Handler(),
		Addr:    addr,
	}
	go func() {
		<-s.Context.Done()
		if err := httpServer.Shutdown(context.Background()); err != nil {
			log.Error("Error while shutting down API server: %s", err)
		}
	}()
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *ApiServer) configureRouter() {
	s.Router = mux.NewRouter()
	subRouter := s.Router.PathPrefix("/api").Subrouter()
	// swagger:operation GET /reg/r/{addr} read bus word
	// ---
	// summary: read a 32-bit word bypassing the data cache
	// responses:
	//   "200":
	//     "$ref": "#/responses/okResp"
	//   "400":
	//     "$ref": "#/responses/badReq"
	subRouter.HandleFunc("/reg/r/{addr:0x[0-9a-fA-F]{1,8}}", s.handleRegRead()).Methods("GET")
	// swagger:operation POST /reg/w write bus word
	// ---
	// summary: write a 32-bit word bypassing the data cache
	// responses:
	//   "200":
	//     "$ref": "#/responses/okResp"
	//   "400":
	//     "$ref": "#/responses/badReq"
	subRouter.HandleFunc("/reg/w", s.handleRegWrite()).Methods("POST")
	// swagger:operation GET /report report stream
	// ---
	// summary: words written to the report sink so far and their decoding
	// responses:
	//   "200":
	//     "$ref": "#/responses/okResp"
	subRouter.HandleFunc("/report", s.handleReport()).Methods("GET")
	subRouter.HandleFunc("/clock", s.handleClock()).Methods("GET")
	subRouter.HandleFunc("/trace", s.handleTrace()).Methods("GET")
	// swagger:operation GET /runs/{id} stored run
	// ---
	// summary: metadata of all stored runs, or one run with its stream
	// responses:
	//   "200":
	//     "$ref": "#/responses/okResp"
	//   "404":
	//     "$ref": "#/responses/badReq"
	subRouter.HandleFunc("/runs", s.handleRuns()).Methods("GET")
	subRouter.HandleFunc("/runs/{id:[0-9]+}", s.handleRun()).Methods("GET")
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Error while encoding response: %s", err)
	}
}

func (s *ApiServer) handleRegRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		log.Debug("Handling reg read request: addr: %s", vars["addr"])

		addr, err := parseHex32(vars["addr"])
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		value, err := s.bridge.Peek(addr)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, &RegHex{Addr: hex32(addr), Value: hex32(value)})
	}
}

func (s *ApiServer) handleRegWrite() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		regHex := &RegHex{}
		err := json.NewDecoder(r.Body).Decode(regHex)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Debug("Handling reg write request: addr: %s value: %s", regHex.Addr, regHex.Value)

		addr, err := parseHex32(regHex.Addr)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		value, err := parseHex32(regHex.Value)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := s.bridge.Poke(addr, value); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
}

func statusResp(st report.Status) StatusResp {
	resp := StatusResp{Kind: st.Kind.String(), TestID: hex32(st.TestID)}
	switch st.Kind {
	case report.Pass:
		resp.Value = hex32(st.Value)
	case report.Fail:
		resp.Expected = hex32(st.Expected)
		resp.Actual = hex32(st.Actual)
	case report.Timeout:
		resp.Source = int(st.Source)
	}
	return resp
}

func (s *ApiServer) handleReport() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.recorder == nil {
			http.Error(w, "Report recorder not configured", http.StatusNotFound)
			return
		}
		words := s.recorder.Words()
		resp := &ReportResp{Words: []string{}, Statuses: []StatusResp{}}
		for _, word := range words {
			resp.Words = append(resp.Words, hex32(word))
		}
		for _, st := range report.Decode(words) {
			resp.Statuses = append(resp.Statuses, statusResp(st))
		}
		writeJSON(w, resp)
	}
}

func (s *ApiServer) handleClock() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, s.bridge.Clock())
	}
}

func (s *ApiServer) handleTrace() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		trace := s.bridge.Trace()
		if trace == nil {
			trace = []sim.Access{}
		}
		writeJSON(w, trace)
	}
}

func (s *ApiServer) handleRuns() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.store == nil {
			http.Error(w, "Run store not configured", http.StatusNotFound)
			return
		}
		runs, err := s.store.Runs()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if runs == nil {
			runs = []*store.RunMeta{}
		}
		writeJSON(w, runs)
	}
}

func (s *ApiServer) handleRun() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		if s.store == nil {
			http.Error(w, "Run store not configured", http.StatusNotFound)
			return
		}
		id, err := strconv.ParseUint(vars["id"], 10, 64)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		run, err := s.store.Run(id)
		var unknown store.ErrUnknownRun
		if errors.As(err, &unknown) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, run)
	}
}

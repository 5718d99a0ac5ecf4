package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/mux"
)

// statusResponse is the /api/status payload
type statusResponse struct {
	Response    string    `json:"response"`
	State       string    `json:"state"`
	Chime       int       `json:"chime"`
	Name        string    `json:"name,omitempty"`
	LightPhase  string    `json:"lightPhase"`
	FailedChime int       `json:"failedChime"`
	LastError   string    `json:"lastError,omitempty"`
	Events      int       `json:"events"`
	Features    []string  `json:"features"`
	Started     time.Time `json:"started"`
}

// chimeStatus is written by the controller and read by http handlers
type chimeStatus struct {
	mu          sync.Mutex
	state       string
	chime       int
	name        string
	lightPhase  lightPhase
	failedChime int
	lastError   string
	events      int
	started     time.Time
}

func newChimeStatus(started time.Time) *chimeStatus {
	return &chimeStatus{
		state:       stateIdle.String(),
		chime:       selNone,
		lightPhase:  phaseIdle,
		failedChime: selNone,
		started:     started,
	}
}

func (cs *chimeStatus) chimeStarted(i int, name string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.state = stateActive.String()
	cs.chime = i
	cs.name = name
}

func (cs *chimeStatus) chimeEnded() {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.state = stateIdle.String()
	cs.chime = selNone
	cs.name = ""
}

func (cs *chimeStatus) chimeFailed(i int, err error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.failedChime = i
	cs.lastError = err.Error()
}

func (cs *chimeStatus) shutdown(reason string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.state = "shutdown:" + reason
}

func (cs *chimeStatus) setLightPhase(p lightPhase) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.lightPhase = p
}

func (cs *chimeStatus) addEvent() {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.events++
}

func (cs *chimeStatus) snapshot() statusResponse {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	feats := append([]string(nil), features...)
	sort.Strings(feats)
	return statusResponse{
		Response:    "OK",
		State:       cs.state,
		Chime:       cs.chime,
		Name:        cs.name,
		LightPhase:  cs.lightPhase.String(),
		FailedChime: cs.failedChime,
		LastError:   cs.lastError,
		Events:      cs.events,
		Features:    feats,
		Started:     cs.started,
	}
}

type statusHandler struct {
	status *chimeStatus
}

func writeAnswer(w http.ResponseWriter, sr statusResponse) {
	output, _ := json.Marshal(sr)
	w.Header().Set("Content-Type", "application/json")
	w.Write(output)
}

func (h *statusHandler) apiStatus(w http.ResponseWriter, r *http.Request) {
	writeAnswer(w, h.status.snapshot())
}

func (h *statusHandler) apiError(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte("Error\n"))
}

func newStatusRouter(status *chimeStatus) *mux.Router {
	h := &statusHandler{status: status}
	r := mux.NewRouter()
	r.HandleFunc("/api/status", h.apiStatus).Methods("GET")
	r.HandleFunc("/api/{cmd}", h.apiError)
	return r
}

type statusService struct {
	srv    *http.Server
	logger flogger
	done   chan struct{}
}

// startStatusService serves the status endpoint, nil when statusAddr is empty
func startStatusService(rt runtimeConfig) *statusService {
	addr := rt.settings.GetString(sStatusAddr)
	if addr == "" {
		return nil
	}

	ss := &statusService{
		srv:    &http.Server{Addr: addr, Handler: newStatusRouter(rt.status)},
		logger: &ThreadLogger{name: "Status"},
		done:   make(chan struct{}),
	}

	go func() {
		defer close(ss.done)
		ss.logger.Printf("starting status service on %s", addr)
		err := ss.srv.ListenAndServe()
		if err != http.ErrServerClosed {
			ss.logger.Println(err)
		}
		ss.logger.Println("exiting status service")
	}()
	return ss
}

func (ss *statusService) stop() {
	if ss == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ss.srv.Shutdown(ctx)
	<-ss.done
}

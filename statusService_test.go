package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"gotest.tools/assert"
)

func getStatus(t *testing.T, status *chimeStatus, path string) (int, statusResponse) {
	router := newStatusRouter(status)
	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var sr statusResponse
	if w.Code == http.StatusOK {
		assert.NilError(t, json.Unmarshal(w.Body.Bytes(), &sr))
		assert.Equal(t, w.Header().Get("Content-Type"), "application/json")
	}
	return w.Code, sr
}

func TestStatusIdle(t *testing.T) {
	rt, clock, _ := testRuntime()
	code, sr := getStatus(t, rt.status, "/api/status")
	assert.Equal(t, code, http.StatusOK)
	assert.Equal(t, sr.Response, "OK")
	assert.Equal(t, sr.State, "idle")
	assert.Equal(t, sr.Chime, selNone)
	assert.Equal(t, sr.LightPhase, "idle")
	assert.Equal(t, sr.FailedChime, selNone)
	assert.Assert(t, sr.Started.Equal(clock.Now()))
	assert.Assert(t, len(sr.Features) > 0)
}

func TestStatusFollowsController(t *testing.T) {
	rt, _, _ := testRuntime()
	cc := testController(rt)

	testPins(rt).press(4)
	stepOnce(t, cc)

	_, sr := getStatus(t, rt.status, "/api/status")
	assert.Equal(t, sr.State, "active")
	assert.Equal(t, sr.Chime, 4)
	assert.Equal(t, sr.Name, rt.chimes[4].name)
	assert.Equal(t, sr.LightPhase, "pulse")
	assert.Equal(t, sr.Events, 1)

	testSounds(rt).finish()
	stepOnce(t, cc)
	_, sr = getStatus(t, rt.status, "/api/status")
	assert.Equal(t, sr.State, "idle")
	assert.Equal(t, sr.Name, "")
	assert.Equal(t, sr.LightPhase, "idle")
}

func TestStatusUnknownPath(t *testing.T) {
	rt, _, _ := testRuntime()
	code, _ := getStatus(t, rt.status, "/api/reboot")
	assert.Equal(t, code, http.StatusNotFound)
}

func TestStatusServiceDisabled(t *testing.T) {
	rt, _, _ := testRuntime()
	ss := startStatusService(rt)
	assert.Assert(t, ss == nil)
	// stop on a disabled service is fine
	ss.stop()
}

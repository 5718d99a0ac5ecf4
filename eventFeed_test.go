package main

import (
	"encoding/json"
	"testing"
	"time"

	"gotest.tools/assert"
)

func TestFormatEvent(t *testing.T) {
	when := time.Date(2021, 9, 4, 19, 30, 0, 0, time.FixedZone("EDT", -4*3600))
	payload, err := formatEvent(chimeEvent{Kind: evChimeEnd, Chime: 3, Name: "hype", Reason: endCancelled}, when)
	assert.NilError(t, err)

	var decoded map[string]interface{}
	assert.NilError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, decoded["timestamp"], "2021-09-04T23:30:00Z")
	inner := decoded["chimebox"].(map[string]interface{})
	assert.Equal(t, inner["event"], "CHIME_END")
	assert.Equal(t, inner["chime"], float64(3))
	assert.Equal(t, inner["name"], "hype")
	assert.Equal(t, inner["reason"], "cancelled")
}

func TestFormatShutdownOmitsName(t *testing.T) {
	payload, err := formatEvent(chimeEvent{Kind: evShutdown, Chime: selNone, Reason: "interrupt"}, time.Now())
	assert.NilError(t, err)
	var decoded struct {
		Event map[string]interface{} `json:"chimebox"`
	}
	assert.NilError(t, json.Unmarshal(payload, &decoded))
	_, hasName := decoded.Event["name"]
	assert.Assert(t, !hasName)
	assert.Equal(t, decoded.Event["event"], "SHUTDOWN")
}

func TestLogFeedKeepsOrder(t *testing.T) {
	lf := newLogFeed()
	lf.publish(chimeEvent{Kind: evStartup, Chime: selNone})
	lf.publish(chimeEvent{Kind: evChimeStart, Chime: 1})
	lf.close()
	assert.DeepEqual(t, lf.kinds(), []eventKind{evStartup, evChimeStart})
	assert.Assert(t, lf.closed)
}

func TestNoBrokerMeansLogFeed(t *testing.T) {
	rt, _, _ := testRuntime()
	_, ok := initEventFeed(rt).(*logFeed)
	assert.Assert(t, ok)
}

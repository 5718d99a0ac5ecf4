package main

import (
	"encoding/json"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
)

type eventKind string

const (
	evStartup     eventKind = "STARTUP"
	evChimeStart  eventKind = "CHIME_START"
	evChimeEnd    eventKind = "CHIME_END"
	evChimeFailed eventKind = "CHIME_FAILED"
	evShutdown    eventKind = "SHUTDOWN"
)

type chimeEvent struct {
	Kind   eventKind `json:"event"`
	Chime  int       `json:"chime"`
	Name   string    `json:"name,omitempty"`
	Reason string    `json:"reason,omitempty"`
}

type eventPayload struct {
	Timestamp string     `json:"timestamp"`
	Event     chimeEvent `json:"chimebox"`
}

func formatEvent(e chimeEvent, now time.Time) ([]byte, error) {
	return json.Marshal(eventPayload{
		Timestamp: now.UTC().Format(time.RFC3339),
		Event:     e,
	})
}

// logFeed keeps events in memory and logs them, used when there is no broker
type logFeed struct {
	mu     sync.Mutex
	audit  []chimeEvent
	closed bool
	logger flogger
}

func newLogFeed() *logFeed {
	return &logFeed{logger: &ThreadLogger{name: "Events"}}
}

func (lf *logFeed) publish(e chimeEvent) {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	lf.audit = append(lf.audit, e)
	lf.logger.Printf("%s chime=%d %s %s", e.Kind, e.Chime, e.Name, e.Reason)
}

func (lf *logFeed) close() {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	lf.closed = true
}

func (lf *logFeed) events() []chimeEvent {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	return append([]chimeEvent(nil), lf.audit...)
}

func (lf *logFeed) kinds() []eventKind {
	var kinds []eventKind
	for _, e := range lf.events() {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

// mqttFeed publishes at QoS 0 and never waits on the broker
type mqttFeed struct {
	client paho.Client
	topic  string
	clock  clockwork.Clock
	logger flogger
}

func newMQTTFeed(rt runtimeConfig) (*mqttFeed, error) {
	broker := rt.settings.GetString(sMQTTBroker)
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("chimebox").
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, errors.Errorf("connection to %s timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, errors.Wrapf(err, "connect to %s", broker)
	}

	return &mqttFeed{
		client: client,
		topic:  rt.settings.GetString(sMQTTTopic),
		clock:  rt.clock,
		logger: &ThreadLogger{name: "MQTT"},
	}, nil
}

func (mf *mqttFeed) publish(e chimeEvent) {
	payload, err := formatEvent(e, mf.clock.Now())
	if err != nil {
		mf.logger.Printf("format %s: %s", e.Kind, err.Error())
		return
	}
	// not retained, nobody waits on the token
	mf.client.Publish(mf.topic, 0, false, payload)
}

func (mf *mqttFeed) close() {
	mf.client.Disconnect(250)
}

// initEventFeed picks mqtt when a broker is configured, otherwise the log feed
func initEventFeed(rt runtimeConfig) eventFeed {
	if rt.settings.GetString(sMQTTBroker) == "" {
		return newLogFeed()
	}
	feed, err := newMQTTFeed(rt)
	if err != nil {
		rt.logger.Printf("mqtt disabled: %s", err.Error())
		return newLogFeed()
	}
	return feed
}

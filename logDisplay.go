package main

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
)

// logDisplay logs what would be on screen and keeps an audit for tests
type logDisplay struct {
	mu      sync.Mutex
	current int
	audit   []string
	closed  bool
	chimes  []chimeDefinition
	logger  flogger
}

func newLogDisplay(chimes []chimeDefinition) *logDisplay {
	return &logDisplay{current: selNone, chimes: chimes, logger: &ThreadLogger{name: "Display"}}
}

func (ld *logDisplay) show(imageKey int) error {
	ld.mu.Lock()
	defer ld.mu.Unlock()
	if imageKey < 0 || imageKey >= len(ld.chimes) {
		return errors.Errorf("no image %d", imageKey)
	}
	ld.current = imageKey
	ld.audit = append(ld.audit, fmt.Sprintf("show %d", imageKey))
	ld.logger.Printf("showing %s", ld.chimes[imageKey].label)
	return nil
}

func (ld *logDisplay) clear() error {
	ld.mu.Lock()
	defer ld.mu.Unlock()
	ld.current = selNone
	ld.audit = append(ld.audit, "clear")
	return nil
}

func (ld *logDisplay) close() error {
	ld.mu.Lock()
	defer ld.mu.Unlock()
	ld.closed = true
	ld.audit = append(ld.audit, "close")
	return nil
}

func (ld *logDisplay) showing() int {
	ld.mu.Lock()
	defer ld.mu.Unlock()
	return ld.current
}

func (ld *logDisplay) auditLog() []string {
	ld.mu.Lock()
	defer ld.mu.Unlock()
	return append([]string(nil), ld.audit...)
}

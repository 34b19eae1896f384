// Package status keeps the most recent result per target for the status API.
// Only the latest result is held; nothing is persisted.
package status

import (
	"sync"
	"time"

	"github.com/hazz-dev/sitepulse/internal/checker"
	"github.com/hazz-dev/sitepulse/internal/config"
)

// Entry is the JSON view of one probe result.
type Entry struct {
	Scheme           string    `json:"scheme"`
	Status           string    `json:"status"`
	Reachable        bool      `json:"reachable"`
	ContainsExpected bool      `json:"contains_expected"`
	StatusCode       int       `json:"status_code,omitempty"`
	ResponseMs       int64     `json:"response_ms"`
	Error            string    `json:"error,omitempty"`
	CheckedAt        time.Time `json:"checked_at"`
}

// Board is safe for concurrent use: the scheduler writes while HTTP
// handlers read.
type Board struct {
	mu     sync.RWMutex
	latest map[config.Target]Entry
}

func NewBoard() *Board {
	return &Board{latest: make(map[config.Target]Entry)}
}

// Record replaces the entry for target. Its signature matches the
// scheduler's result hook.
func (b *Board) Record(target config.Target, r checker.CheckResult) {
	e := Entry{
		Scheme:           r.Scheme.String(),
		Status:           string(r.Status()),
		Reachable:        r.Reachable,
		ContainsExpected: r.ContainsExpected,
		StatusCode:       r.StatusCode,
		ResponseMs:       r.ResponseTime.Milliseconds(),
		Error:            r.Error,
		CheckedAt:        r.CheckedAt,
	}

	b.mu.Lock()
	b.latest[target] = e
	b.mu.Unlock()
}

// Latest returns the most recent entry for target, if any.
func (b *Board) Latest(target config.Target) (Entry, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	e, ok := b.latest[target]
	return e, ok
}

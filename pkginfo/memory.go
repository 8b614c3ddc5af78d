package pkginfo

import (
	"context"
	"sync"
)

// Memory is a Source backed by an in-process table. It exists for
// tests and simulation; safe for concurrent use.
type Memory struct {
	mu    sync.RWMutex
	byUID map[uint32][]Record
	err   error
}

// NewMemory returns an empty in-memory source.
func NewMemory() *Memory {
	return &Memory{byUID: make(map[uint32][]Record)}
}

// Add registers records under uid, keeping any already present.
func (m *Memory) Add(uid uint32, recs ...Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byUID[uid] = append(m.byUID[uid], recs...)
}

// SetErr makes every subsequent query fail with err. Pass nil to
// restore normal operation.
func (m *Memory) SetErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// PackagesForUID implements Source.
func (m *Memory) PackagesForUID(ctx context.Context, uid uint32) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	recs := m.byUID[uid]
	out := make([]Record, len(recs))
	copy(out, recs)
	return out, nil
}

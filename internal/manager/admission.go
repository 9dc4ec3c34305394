package manager

import (
	"context"
	"sync"
	"time"

	"airouter/internal/config"
)

// slot limits concurrency against one backend. A nil genCh means unlimited.
type slot struct {
	name    string
	typ     string
	genCh   chan struct{} // capacity MaxInflight: running requests
	queueCh chan struct{} // capacity MaxInflight+MaxQueue: admitted requests
}

func newSlot(name string, bc config.Backend) *slot {
	s := &slot{name: name, typ: bc.Type}
	if bc.MaxInflight > 0 {
		s.genCh = make(chan struct{}, bc.MaxInflight)
		s.queueCh = make(chan struct{}, bc.MaxInflight+bc.MaxQueue)
	}
	return s
}

func noop() {}

// begin reserves a queue slot and then a running slot. The returned release
// func is safe to call more than once.
func (m *Manager) begin(ctx context.Context, s *slot) (func(), error) {
	if err := ctx.Err(); err != nil {
		return noop, err
	}
	if s == nil || s.genCh == nil {
		return noop, nil
	}

	// Queue slot: fail fast when the queue is full.
	select {
	case s.queueCh <- struct{}{}:
	default:
		return noop, tooBusyError{backend: s.name}
	}

	acquired := false
	defer func() {
		if !acquired {
			<-s.queueCh
		}
	}()
	timer := time.NewTimer(m.maxWait)
	defer timer.Stop()
	select {
	case s.genCh <- struct{}{}:
		acquired = true
		var once sync.Once
		return func() { once.Do(func() { <-s.genCh; <-s.queueCh }) }, nil
	case <-ctx.Done():
		return noop, ctx.Err()
	case <-timer.C:
		return noop, tooBusyError{backend: s.name}
	}
}

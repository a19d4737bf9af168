// Package concurrency has the single-flight guard serializing transfers on a
// link: stop-and-wait means at most one payload crosses per direction at a
// time.
package concurrency

import (
	"errors"
	"sync"
)

var ErrBusy = errors.New("a transfer is already in flight on this link")

type ConcurrencyGuard struct {
	mu     sync.Mutex
	isBusy bool
}

func NewConcurrencyGuard() *ConcurrencyGuard {
	return &ConcurrencyGuard{}
}

// Execute runs task if no task is currently running, otherwise returns
// ErrBusy without blocking.
func (g *ConcurrencyGuard) Execute(task func() error) error {
	g.mu.Lock()
	if g.isBusy {
		g.mu.Unlock()
		return ErrBusy
	}
	g.isBusy = true
	g.mu.Unlock()
	defer func() {
		g.mu.Lock()
		g.isBusy = false
		g.mu.Unlock()
	}()
	return task()
}

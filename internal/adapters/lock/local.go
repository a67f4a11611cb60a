package lock

import (
	"context"
	"sync"

	portssvc "github.com/SscSPs/ledger_sync/internal/core/ports/services"
)

// Local serializes runs within one process only.
type Local struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewLocal creates an in-process locker.
func NewLocal() *Local {
	return &Local{held: make(map[string]struct{})}
}

var _ portssvc.TenantLocker = (*Local)(nil)

// Obtain implements portssvc.TenantLocker.
func (l *Local) Obtain(_ context.Context, tenantID string) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[tenantID]; busy {
		return nil, portssvc.ErrLockNotObtained
	}
	l.held[tenantID] = struct{}{}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, tenantID)
			l.mu.Unlock()
		})
		return nil
	}, nil
}

package usecase_test

import (
	"context"
	"errors"
	"sync"

	"github.com/tradewall/tradewall/internal/domain"
)

// stubAlertRepo is an in-memory AlertRepository with switchable failures.
type stubAlertRepo struct {
	mu         sync.Mutex
	alerts     map[string]*domain.Alert
	failDelete bool
	deleted    []string
}

func newStubAlertRepo() *stubAlertRepo {
	return &stubAlertRepo{alerts: make(map[string]*domain.Alert)}
}

func (r *stubAlertRepo) SaveAlerts(ctx context.Context, alerts []*domain.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range alerts {
		r.alerts[a.ID] = a
	}
	return nil
}

func (r *stubAlertRepo) ListAlerts(ctx context.Context, userID string) ([]*domain.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Alert
	for _, a := range r.alerts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *stubAlertRepo) DeleteAlert(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failDelete {
		return errors.New("disk full")
	}
	delete(r.alerts, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *stubAlertRepo) DeleteAlerts(ctx context.Context, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		delete(r.alerts, id)
		r.deleted = append(r.deleted, id)
	}
	return nil
}

func (r *stubAlertRepo) DeleteAlertsByCoin(ctx context.Context, userID, coin string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, a := range r.alerts {
		if a.UserID == userID && a.Coin == coin {
			delete(r.alerts, id)
			r.deleted = append(r.deleted, id)
		}
	}
	return nil
}

func (r *stubAlertRepo) setFailDelete(fail bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failDelete = fail
}

func (r *stubAlertRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.alerts)
}

func (r *stubAlertRepo) has(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.alerts[id]
	return ok
}

// stubNotifier records deliveries and can simulate a dead endpoint.
type stubNotifier struct {
	mu       sync.Mutex
	fail     bool
	messages []string
}

func (n *stubNotifier) Send(ctx context.Context, title, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return domain.ErrDeliveryFailure
	}
	n.messages = append(n.messages, message)
	return nil
}

func (n *stubNotifier) sent() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

// stubPositionRepo is an in-memory PositionRepository preserving insertion
// order, matching the sqlite store's created_at ordering.
type stubPositionRepo struct {
	mu        sync.Mutex
	positions []*domain.Position
}

func newStubPositionRepo() *stubPositionRepo {
	return &stubPositionRepo{}
}

func (r *stubPositionRepo) SavePosition(ctx context.Context, p *domain.Position) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *p
	clone.Shorts = nil
	r.positions = append(r.positions, &clone)
	return nil
}

func (r *stubPositionRepo) GetPosition(ctx context.Context, id string) (*domain.Position, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.positions {
		if p.ID == id {
			clone := *p
			clone.Shorts = nil
			return &clone, nil
		}
	}
	return nil, errors.New("not found")
}

func (r *stubPositionRepo) UpdatePosition(ctx context.Context, p *domain.Position) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.positions {
		if existing.ID == p.ID {
			clone := *p
			clone.Shorts = nil
			r.positions[i] = &clone
			return nil
		}
	}
	return errors.New("not found")
}

func (r *stubPositionRepo) ListPositions(ctx context.Context, userID string) ([]*domain.Position, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Position
	for _, p := range r.positions {
		if p.UserID == userID {
			clone := *p
			clone.Shorts = nil
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubPositionRepo) DeletePosition(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.positions {
		if p.ID == id {
			r.positions = append(r.positions[:i], r.positions[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *stubPositionRepo) DeleteChildren(ctx context.Context, parentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.positions[:0]
	for _, p := range r.positions {
		if p.ParentID != parentID {
			kept = append(kept, p)
		}
	}
	r.positions = kept
	return nil
}

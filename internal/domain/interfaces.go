package domain

import "context"

// PositionRepository defines storage operations for spot positions and
// hedge legs. Implementations return flat rows; parent/child assembly is
// the service's job.
type PositionRepository interface {
	SavePosition(ctx context.Context, p *Position) error
	GetPosition(ctx context.Context, id string) (*Position, error)
	UpdatePosition(ctx context.Context, p *Position) error
	ListPositions(ctx context.Context, userID string) ([]*Position, error)
	DeletePosition(ctx context.Context, id string) error
	DeleteChildren(ctx context.Context, parentID string) error
}

// AlertRepository defines storage operations for alerts.
type AlertRepository interface {
	SaveAlerts(ctx context.Context, alerts []*Alert) error
	ListAlerts(ctx context.Context, userID string) ([]*Alert, error)
	DeleteAlert(ctx context.Context, id string) error
	DeleteAlerts(ctx context.Context, ids []string) error
	DeleteAlertsByCoin(ctx context.Context, userID, coin string) error
}

// TickerRepository defines storage operations for watched symbols.
type TickerRepository interface {
	SaveTicker(ctx context.Context, t *Ticker) error
	ListTickers(ctx context.Context) ([]*Ticker, error)
}

// Notifier delivers a push notification. Fire-and-forget from the
// evaluator's perspective: a failure is logged, never retried.
type Notifier interface {
	Send(ctx context.Context, title, message string) error
}

// PriceFeed is a push source of (symbol, price) updates. It may deliver
// duplicate or stale values; consumers must tolerate repeats.
type PriceFeed interface {
	OnPriceUpdate(callback func(symbol string, price float64))
	Connect() error
	Subscribe(symbols []string) error
	Close() error
}

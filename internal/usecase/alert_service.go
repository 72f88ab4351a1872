package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tradewall/tradewall/internal/domain"
)

const (
	notificationTitle = "TradeWall"
	notifyTimeout     = 5 * time.Second
)

// AlertService owns the in-memory mirror of one user's alerts and evaluates
// it against incoming price ticks. The cache refreshes on session change and
// on explicit refresh signals only; it is never polled.
type AlertService struct {
	alertRepo domain.AlertRepository
	notifier  domain.Notifier
	logger    *zap.Logger

	mu         sync.RWMutex
	userID     string
	alerts     map[string][]*domain.Alert // coin -> alerts
	lastPrices map[string]float64

	// Fired alerts whose store delete failed. Already evicted from the
	// cache, so retrying can never re-notify.
	pendingDeletes []string
}

func NewAlertService(alertRepo domain.AlertRepository, notifier domain.Notifier, logger *zap.Logger) *AlertService {
	return &AlertService{
		alertRepo:  alertRepo,
		notifier:   notifier,
		logger:     logger,
		alerts:     make(map[string][]*domain.Alert),
		lastPrices: make(map[string]float64),
	}
}

// StartSession binds the service to a user and loads their alerts.
func (s *AlertService) StartSession(ctx context.Context, userID string) error {
	s.mu.Lock()
	s.userID = userID
	s.pendingDeletes = nil
	s.mu.Unlock()
	return s.RefreshCache(ctx)
}

// EndSession drops the user binding and the cached alerts. Last prices
// survive: they belong to the feed, not the session.
func (s *AlertService) EndSession() {
	s.mu.Lock()
	s.userID = ""
	s.alerts = make(map[string][]*domain.Alert)
	s.pendingDeletes = nil
	s.mu.Unlock()
}

func (s *AlertService) currentUser() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// RefreshCache reloads the session user's alerts from the store. Position
// mutations raise this as their refresh signal.
func (s *AlertService) RefreshCache(ctx context.Context) error {
	userID := s.currentUser()
	if userID == "" {
		s.mu.Lock()
		s.alerts = make(map[string][]*domain.Alert)
		s.mu.Unlock()
		return nil
	}

	alerts, err := s.alertRepo.ListAlerts(ctx, userID)
	if err != nil {
		return fmt.Errorf("%w: list alerts: %v", domain.ErrStorageFailure, err)
	}

	byCoin := make(map[string][]*domain.Alert)
	for _, a := range alerts {
		byCoin[a.Coin] = append(byCoin[a.Coin], a)
	}

	s.mu.Lock()
	s.alerts = byCoin
	s.mu.Unlock()
	return nil
}

// LatestPrice returns the last known price for a symbol, 0 if none seen.
func (s *AlertService) LatestPrice(symbol string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastPrices[symbol]
}

// ActiveAlerts returns a snapshot of the cached alerts for a symbol, or all
// symbols when symbol is empty.
func (s *AlertService) ActiveAlerts(symbol string) []*domain.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Alert
	if symbol != "" {
		return append(out, s.alerts[symbol]...)
	}
	for _, list := range s.alerts {
		out = append(out, list...)
	}
	return out
}

// ProcessTick evaluates every cached alert for the symbol against price.
// Each triggered alert fires at most once per lifetime: it is evicted from
// the cache before delivery is attempted, then deleted from the store.
// Re-delivery of an already-removed alert is a no-op, so duplicate ticks
// are harmless.
func (s *AlertService) ProcessTick(ctx context.Context, symbol string, price float64) error {
	metricTicksProcessed.Inc()

	s.mu.Lock()
	s.lastPrices[symbol] = price
	// Snapshot: firing mutates the cache.
	candidates := append([]*domain.Alert(nil), s.alerts[symbol]...)
	pending := s.pendingDeletes
	s.pendingDeletes = nil
	s.mu.Unlock()

	for _, id := range pending {
		if err := s.alertRepo.DeleteAlert(ctx, id); err != nil {
			s.logger.Error("retrying store delete of fired alert failed",
				zap.String("alert_id", id), zap.Error(err))
			s.requeueDelete(id)
		}
	}

	for _, a := range candidates {
		if !a.Triggered(price) {
			continue
		}
		s.fire(ctx, a, price)
	}
	return nil
}

func (s *AlertService) fire(ctx context.Context, a *domain.Alert, price float64) {
	// Evict before anything else so a concurrent tick cannot fire the same
	// alert twice, and so a store failure below cannot re-arm it.
	if !s.evict(a) {
		return
	}
	metricAlertsFired.Inc()

	nctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()
	if err := s.notifier.Send(nctx, notificationTitle, fireMessage(a, price)); err != nil {
		// Best-effort: logged, never retried, never blocks removal.
		metricNotifyFailures.Inc()
		s.logger.Error("notification delivery failed",
			zap.String("coin", a.Coin),
			zap.Float64("target", a.TargetPrice),
			zap.Error(err))
	}

	if err := s.alertRepo.DeleteAlert(ctx, a.ID); err != nil {
		s.logger.Error("failed to delete fired alert from store",
			zap.String("alert_id", a.ID), zap.Error(err))
		s.requeueDelete(a.ID)
	}

	s.logger.Info("alert fired",
		zap.String("coin", a.Coin),
		zap.String("condition", string(a.Condition)),
		zap.Float64("target", a.TargetPrice),
		zap.Float64("price", price))
}

// evict removes the alert from the cache, reporting whether it was present.
func (s *AlertService) evict(a *domain.Alert) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.alerts[a.Coin]
	for i, cached := range list {
		if cached.ID == a.ID {
			s.alerts[a.Coin] = append(list[:i], list[i+1:]...)
			return true
		}
	}
	return false
}

func (s *AlertService) requeueDelete(id string) {
	s.mu.Lock()
	s.pendingDeletes = append(s.pendingDeletes, id)
	s.mu.Unlock()
}

// fireMessage builds the human-readable notification body: symbol,
// direction, current and target price, and the alert's note on its own
// line when present.
func fireMessage(a *domain.Alert, price float64) string {
	msg := fmt.Sprintf("%s crossed %s %s (current: %s)",
		a.Coin, a.DirectionWord(), formatUSD(a.TargetPrice), formatUSD(price))
	if a.Note != "" {
		msg += "\n" + a.Note
	}
	return msg
}

func formatUSD(v float64) string {
	return "$" + formatNum(v)
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ShouldCreateAlert reports whether an alert at target/condition is still
// ahead of the current price. A would-be alert whose condition is already
// satisfied would fire (and die) on the very next tick, so it is suppressed
// at creation. Unknown price (0) creates the alert anyway.
func ShouldCreateAlert(currentPrice, target float64, cond domain.AlertCondition) bool {
	if currentPrice == 0 {
		return true
	}
	if cond == domain.ConditionAbove && currentPrice >= target {
		return false
	}
	if cond == domain.ConditionBelow && currentPrice <= target {
		return false
	}
	return true
}

// CreateAlert persists the alert and adds it to the cache, unless the
// current live price already satisfies its trigger. Returns whether the
// alert was actually created.
func (s *AlertService) CreateAlert(ctx context.Context, a *domain.Alert) (bool, error) {
	if a.Coin == "" || a.TargetPrice <= 0 {
		return false, fmt.Errorf("%w: alert needs a coin and a positive target price", domain.ErrInvalidArgument)
	}
	if a.Condition != domain.ConditionAbove && a.Condition != domain.ConditionBelow {
		return false, fmt.Errorf("%w: unknown alert condition %q", domain.ErrInvalidArgument, a.Condition)
	}
	if !ShouldCreateAlert(s.LatestPrice(a.Coin), a.TargetPrice, a.Condition) {
		return false, nil
	}

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.UserID == "" {
		a.UserID = s.currentUser()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	if err := s.alertRepo.SaveAlerts(ctx, []*domain.Alert{a}); err != nil {
		return false, fmt.Errorf("%w: save alert: %v", domain.ErrStorageFailure, err)
	}

	s.mu.Lock()
	s.alerts[a.Coin] = append(s.alerts[a.Coin], a)
	s.mu.Unlock()
	return true, nil
}

// DeleteAlert removes a single alert from store and cache.
func (s *AlertService) DeleteAlert(ctx context.Context, id string) error {
	if err := s.alertRepo.DeleteAlert(ctx, id); err != nil {
		return fmt.Errorf("%w: delete alert: %v", domain.ErrStorageFailure, err)
	}
	s.mu.Lock()
	for coin, list := range s.alerts {
		for i, a := range list {
			if a.ID == id {
				s.alerts[coin] = append(list[:i], list[i+1:]...)
				break
			}
		}
	}
	s.mu.Unlock()
	return nil
}

// OnSpotDeleted removes every alert for the symbol belonging to the session
// user. Alerts are keyed by symbol, not by spot, so the sweep is coarse.
func (s *AlertService) OnSpotDeleted(ctx context.Context, coin string) error {
	if err := s.alertRepo.DeleteAlertsByCoin(ctx, s.currentUser(), coin); err != nil {
		return fmt.Errorf("%w: delete alerts for %s: %v", domain.ErrStorageFailure, coin, err)
	}
	s.mu.Lock()
	delete(s.alerts, coin)
	s.mu.Unlock()
	return nil
}

// OnHedgeDeleted removes the alerts invalidated by deleting hedge leg num
// (1-based): the leg's own TP/SL alerts and the next-entry alert the leg
// scheduled. Alerts carrying the leg's id are matched structurally; alerts
// without a position reference fall back to the legacy note patterns
// ("Hedge {num}" and "ENTER HEDGE {num+1}").
func (s *AlertService) OnHedgeDeleted(ctx context.Context, coin, legID string, num int) error {
	alerts, err := s.alertRepo.ListAlerts(ctx, s.currentUser())
	if err != nil {
		return fmt.Errorf("%w: list alerts: %v", domain.ErrStorageFailure, err)
	}

	var ids []string
	for _, a := range alerts {
		if a.Coin != coin {
			continue
		}
		if hedgeAlertMatches(a, legID, num) {
			ids = append(ids, a.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	if err := s.alertRepo.DeleteAlerts(ctx, ids); err != nil {
		return fmt.Errorf("%w: delete alerts: %v", domain.ErrStorageFailure, err)
	}
	return s.RefreshCache(ctx)
}

func hedgeAlertMatches(a *domain.Alert, legID string, num int) bool {
	if a.PositionID != "" {
		return a.PositionID == legID
	}
	if a.Note == "" {
		return false
	}
	// Substring matching on free text is fragile (a note mentioning
	// "Hedge 1" by hand collides); kept only for rows predating the
	// structural position reference.
	return strings.Contains(a.Note, fmt.Sprintf("Hedge %d", num)) ||
		strings.Contains(a.Note, fmt.Sprintf("ENTER HEDGE %d", num+1))
}

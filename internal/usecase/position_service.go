package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tradewall/tradewall/internal/domain"
)

// PositionService manages spot positions, their hedge ladders and the
// alerts tied to both. Every mutation that can invalidate a cached alert
// ends by refreshing the alert cache or evicting the affected entries.
type PositionService struct {
	positionRepo domain.PositionRepository
	alerts       *AlertService
	calculator   *HedgeCalculator
	logger       *zap.Logger
}

func NewPositionService(positionRepo domain.PositionRepository, alerts *AlertService, calculator *HedgeCalculator, logger *zap.Logger) *PositionService {
	return &PositionService{
		positionRepo: positionRepo,
		alerts:       alerts,
		calculator:   calculator,
		logger:       logger,
	}
}

// Portfolio returns the user's spot positions with their hedge legs
// attached in creation order.
func (s *PositionService) Portfolio(ctx context.Context, userID string) ([]*domain.Position, error) {
	rows, err := s.positionRepo.ListPositions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: list positions: %v", domain.ErrStorageFailure, err)
	}

	spots := make([]*domain.Position, 0, len(rows))
	byID := make(map[string]*domain.Position, len(rows))
	for _, p := range rows {
		if p.IsSpot() {
			spots = append(spots, p)
			byID[p.ID] = p
		}
	}
	// Rows come back ordered by created_at, so legs attach in ladder order.
	for _, p := range rows {
		if p.IsSpot() {
			continue
		}
		if parent, ok := byID[p.ParentID]; ok {
			parent.Shorts = append(parent.Shorts, p)
		}
	}
	return spots, nil
}

// GetSpot loads one spot position with its hedge legs.
func (s *PositionService) GetSpot(ctx context.Context, id string) (*domain.Position, error) {
	p, err := s.positionRepo.GetPosition(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: get position: %v", domain.ErrStorageFailure, err)
	}
	if !p.IsSpot() {
		return nil, fmt.Errorf("%w: position %s is a hedge leg, not a spot", domain.ErrInvalidArgument, id)
	}
	spots, err := s.Portfolio(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	for _, spot := range spots {
		if spot.ID == id {
			return spot, nil
		}
	}
	return p, nil
}

// CreateSpot persists a new spot position and, when createAlerts is set,
// schedules its TP and SL alerts.
func (s *PositionService) CreateSpot(ctx context.Context, p *domain.Position, createAlerts bool) error {
	if p.Symbol == "" || p.Entry <= 0 || p.Amount <= 0 {
		return fmt.Errorf("%w: spot needs a symbol, a positive entry and a positive amount", domain.ErrInvalidArgument)
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	p.ParentID = ""

	if err := s.positionRepo.SavePosition(ctx, p); err != nil {
		return fmt.Errorf("%w: save spot: %v", domain.ErrStorageFailure, err)
	}
	s.logger.Info("spot created",
		zap.String("id", p.ID),
		zap.String("symbol", p.Symbol),
		zap.Float64("entry", p.Entry),
		zap.Float64("amount", p.Amount))

	if !createAlerts {
		return nil
	}
	s.createSpotAlerts(ctx, p)
	return nil
}

// createSpotAlerts schedules the TP and SL alerts for a spot. Creation is
// best-effort per alert; a failed alert never fails the position write.
func (s *PositionService) createSpotAlerts(ctx context.Context, p *domain.Position) {
	if p.TP > 0 {
		s.tryCreateAlert(ctx, &domain.Alert{
			UserID:      p.UserID,
			Coin:        p.Symbol,
			TargetPrice: p.TP,
			Condition:   domain.ConditionAbove,
			Note:        fmt.Sprintf("Spot %s TP Hit - Close All", p.Symbol),
			PositionID:  p.ID,
			Role:        domain.RoleTP,
		})
	}
	if p.SL > 0 {
		s.tryCreateAlert(ctx, &domain.Alert{
			UserID:      p.UserID,
			Coin:        p.Symbol,
			TargetPrice: p.SL,
			Condition:   domain.ConditionBelow,
			Note:        fmt.Sprintf("Spot %s SL Hit", p.Symbol),
			PositionID:  p.ID,
			Role:        domain.RoleSL,
		})
	}
}

func (s *PositionService) tryCreateAlert(ctx context.Context, a *domain.Alert) {
	created, err := s.alerts.CreateAlert(ctx, a)
	if err != nil {
		s.logger.Error("failed to create alert",
			zap.String("coin", a.Coin),
			zap.Float64("target", a.TargetPrice),
			zap.Error(err))
		return
	}
	if !created {
		s.logger.Info("alert suppressed, price already past target",
			zap.String("coin", a.Coin),
			zap.Float64("target", a.TargetPrice),
			zap.String("condition", string(a.Condition)))
	}
}

// CreateHedge persists a new hedge leg under the spot. The first leg of a
// ladder records the policy on the spot row; later legs reuse it. When
// createAlerts is set the leg's TP/SL alerts and the next rung's entry
// alert are scheduled.
func (s *PositionService) CreateHedge(ctx context.Context, spotID string, leg *domain.Position, policy *domain.LadderPolicy, createAlerts bool) error {
	spot, err := s.GetSpot(ctx, spotID)
	if err != nil {
		return err
	}
	if leg.Entry <= 0 || leg.Amount <= 0 {
		return fmt.Errorf("%w: hedge leg needs a positive entry and amount", domain.ErrInvalidArgument)
	}

	if policy != nil && !spot.HasLadderPolicy() {
		spot.StrategyRiskPercent = policy.RiskPercent
		spot.StrategyHedgesCount = policy.HedgesCount
		if err := s.positionRepo.UpdatePosition(ctx, spot); err != nil {
			return fmt.Errorf("%w: record ladder policy: %v", domain.ErrStorageFailure, err)
		}
	}

	if leg.ID == "" {
		leg.ID = uuid.NewString()
	}
	if leg.CreatedAt.IsZero() {
		leg.CreatedAt = time.Now()
	}
	leg.ParentID = spot.ID
	leg.UserID = spot.UserID
	leg.Symbol = spot.Symbol

	if err := s.positionRepo.SavePosition(ctx, leg); err != nil {
		return fmt.Errorf("%w: save hedge leg: %v", domain.ErrStorageFailure, err)
	}

	num := spot.NextHedgeIndex()
	spot.Shorts = append(spot.Shorts, leg)
	s.logger.Info("hedge leg created",
		zap.String("spot_id", spot.ID),
		zap.String("leg_id", leg.ID),
		zap.Int("number", num),
		zap.Float64("entry", leg.Entry))

	if !createAlerts {
		return nil
	}
	s.createHedgeAlerts(ctx, spot, leg, num)
	return nil
}

// createHedgeAlerts schedules the TP/SL alerts for a new short leg and, if
// the ladder has room, the entry alert for the next rung. Shorts profit
// downward, so TP watches below and SL above.
func (s *PositionService) createHedgeAlerts(ctx context.Context, spot *domain.Position, leg *domain.Position, num int) {
	if leg.TP > 0 {
		s.tryCreateAlert(ctx, &domain.Alert{
			UserID:      leg.UserID,
			Coin:        leg.Symbol,
			TargetPrice: leg.TP,
			Condition:   domain.ConditionBelow,
			Note:        fmt.Sprintf("Hedge %d (%s) TP", num, leg.Symbol),
			PositionID:  leg.ID,
			Role:        domain.RoleTP,
		})
	}
	if leg.SL > 0 {
		s.tryCreateAlert(ctx, &domain.Alert{
			UserID:      leg.UserID,
			Coin:        leg.Symbol,
			TargetPrice: leg.SL,
			Condition:   domain.ConditionAbove,
			Note:        fmt.Sprintf("Hedge %d (%s) SL", num, leg.Symbol),
			PositionID:  leg.ID,
			Role:        domain.RoleSL,
		})
	}

	next, err := s.nextSetup(spot)
	if err != nil || next == nil {
		return
	}

	cond := domain.ConditionAbove
	if next.Entry < leg.Entry {
		cond = domain.ConditionBelow
	}
	s.tryCreateAlert(ctx, &domain.Alert{
		UserID:      leg.UserID,
		Coin:        leg.Symbol,
		TargetPrice: next.Entry,
		Condition:   cond,
		Note: fmt.Sprintf("⚠️ ENTER HEDGE %d @ %s | Amt: %s | Inv: %s | TP: %s | SL: %s",
			next.Index,
			formatUSD(next.Entry),
			formatNum(next.CoinAmount),
			formatUSD(next.InvestAmount),
			formatUSD(next.TP),
			formatUSD(next.SL)),
		PositionID: leg.ID,
		Role:       domain.RoleNextEntry,
	})
}

// NextHedgeSetup returns the rung that would be entered next for the spot,
// plus the full ladder for display. Nil setup means the ladder is complete
// or no policy is recorded.
func (s *PositionService) NextHedgeSetup(ctx context.Context, spotID string) (*domain.HedgeSetup, []domain.HedgeSetup, error) {
	spot, err := s.GetSpot(ctx, spotID)
	if err != nil {
		return nil, nil, err
	}
	if !spot.HasLadderPolicy() {
		return nil, nil, nil
	}
	ladder, err := s.ladderFor(spot)
	if err != nil {
		return nil, nil, err
	}
	if len(spot.Shorts) >= len(ladder) {
		return nil, ladder, nil
	}
	next := ladder[len(spot.Shorts)]
	return &next, ladder, nil
}

// nextSetup is NextHedgeSetup for a spot already loaded with its legs.
func (s *PositionService) nextSetup(spot *domain.Position) (*domain.HedgeSetup, error) {
	if !spot.HasLadderPolicy() {
		return nil, nil
	}
	ladder, err := s.ladderFor(spot)
	if err != nil {
		return nil, err
	}
	if len(spot.Shorts) >= len(ladder) {
		return nil, nil
	}
	next := ladder[len(spot.Shorts)]
	return &next, nil
}

// ladderFor recomputes the spot's full ladder under its recorded policy.
// The grid anchors at the first leg's actual fill when one exists, so a
// ladder started off-plan stays consistent with itself.
func (s *PositionService) ladderFor(spot *domain.Position) ([]domain.HedgeSetup, error) {
	startPrice := spot.Entry
	if len(spot.Shorts) > 0 {
		startPrice = spot.Shorts[0].Entry
	}
	return s.calculator.ComputeLadder(
		spot.Entry, spot.TP, spot.Amount,
		spot.StrategyRiskPercent, spot.StrategyHedgesCount,
		startPrice,
	)
}

// UpdatePosition rewrites a position row and refreshes the alert cache.
func (s *PositionService) UpdatePosition(ctx context.Context, p *domain.Position) error {
	if err := s.positionRepo.UpdatePosition(ctx, p); err != nil {
		return fmt.Errorf("%w: update position: %v", domain.ErrStorageFailure, err)
	}
	return s.alerts.RefreshCache(ctx)
}

// DeleteSpot removes a spot, all its hedge legs and every alert for its
// symbol.
func (s *PositionService) DeleteSpot(ctx context.Context, id string) error {
	spot, err := s.positionRepo.GetPosition(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: get position: %v", domain.ErrStorageFailure, err)
	}
	if !spot.IsSpot() {
		return fmt.Errorf("%w: position %s is a hedge leg, not a spot", domain.ErrInvalidArgument, id)
	}

	if err := s.positionRepo.DeleteChildren(ctx, id); err != nil {
		return fmt.Errorf("%w: delete hedge legs: %v", domain.ErrStorageFailure, err)
	}
	if err := s.positionRepo.DeletePosition(ctx, id); err != nil {
		return fmt.Errorf("%w: delete spot: %v", domain.ErrStorageFailure, err)
	}
	s.logger.Info("spot deleted", zap.String("id", id), zap.String("symbol", spot.Symbol))

	return s.alerts.OnSpotDeleted(ctx, spot.Symbol)
}

// DeleteHedge removes one hedge leg and the alerts it owns: the leg's own
// TP/SL triggers and the next-entry alert it scheduled.
func (s *PositionService) DeleteHedge(ctx context.Context, spotID, legID string) error {
	spot, err := s.GetSpot(ctx, spotID)
	if err != nil {
		return err
	}

	num := 0
	for i, leg := range spot.Shorts {
		if leg.ID == legID {
			num = i + 1
			break
		}
	}
	if num == 0 {
		return fmt.Errorf("%w: hedge leg %s not found under spot %s", domain.ErrInvalidArgument, legID, spotID)
	}

	if err := s.positionRepo.DeletePosition(ctx, legID); err != nil {
		return fmt.Errorf("%w: delete hedge leg: %v", domain.ErrStorageFailure, err)
	}
	s.logger.Info("hedge leg deleted",
		zap.String("spot_id", spotID),
		zap.String("leg_id", legID),
		zap.Int("number", num))

	return s.alerts.OnHedgeDeleted(ctx, spot.Symbol, legID, num)
}

package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/tradewall/tradewall/internal/domain"
)

type positionResponse struct {
	ID         string             `json:"id"`
	Symbol     string             `json:"symbol"`
	Entry      float64            `json:"entry"`
	Amount     float64            `json:"amount"`
	TP         float64            `json:"tp"`
	SL         float64            `json:"sl"`
	Risk       float64            `json:"risk"`
	Currency   string             `json:"currency,omitempty"`
	TradeDate  string             `json:"trade_date,omitempty"`
	TradeTime  string             `json:"trade_time,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	NetAtTP    float64            `json:"net_at_tp"`
	NetAtSL    float64            `json:"net_at_sl"`
	CurrentPnL float64            `json:"current_pnl"`
	LastPrice  float64            `json:"last_price"`
	Shorts     []positionResponse `json:"shorts,omitempty"`
}

type alertResponse struct {
	ID          string    `json:"id"`
	Coin        string    `json:"coin"`
	TargetPrice float64   `json:"target_price"`
	Condition   string    `json:"condition"`
	Note        string    `json:"note,omitempty"`
	PositionID  string    `json:"position_id,omitempty"`
	Role        string    `json:"role,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error, what string) {
	s.logger.Error(what, zap.Error(err))
	if errors.Is(err, domain.ErrInvalidArgument) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	http.Error(w, what, http.StatusInternalServerError)
}

func (s *Server) toPositionResponse(p *domain.Position) positionResponse {
	lastPrice := s.alerts.LatestPrice(p.Symbol)
	resp := positionResponse{
		ID:        p.ID,
		Symbol:    p.Symbol,
		Entry:     p.Entry,
		Amount:    p.Amount,
		TP:        p.TP,
		SL:        p.SL,
		Risk:      p.Risk,
		Currency:  p.Currency,
		TradeDate: p.TradeDate,
		TradeTime: p.TradeTime,
		CreatedAt: p.CreatedAt,
		NetAtTP:   p.NetAtTP(),
		NetAtSL:   p.NetAtSL(),
		LastPrice: lastPrice,
	}
	if lastPrice > 0 {
		resp.CurrentPnL = p.StrategyPnL(lastPrice)
	}
	for _, leg := range p.Shorts {
		legResp := positionResponse{
			ID:        leg.ID,
			Symbol:    leg.Symbol,
			Entry:     leg.Entry,
			Amount:    leg.Amount,
			TP:        leg.TP,
			SL:        leg.SL,
			Risk:      leg.Risk,
			CreatedAt: leg.CreatedAt,
			LastPrice: lastPrice,
		}
		if lastPrice > 0 {
			legResp.CurrentPnL = leg.ShortPnL(lastPrice)
		}
		resp.Shorts = append(resp.Shorts, legResp)
	}
	return resp
}

func toAlertResponse(a *domain.Alert) alertResponse {
	return alertResponse{
		ID:          a.ID,
		Coin:        a.Coin,
		TargetPrice: a.TargetPrice,
		Condition:   string(a.Condition),
		Note:        a.Note,
		PositionID:  a.PositionID,
		Role:        string(a.Role),
		CreatedAt:   a.CreatedAt,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Positions

func (s *Server) handleListPositions(w http.ResponseWriter, r *http.Request) {
	spots, err := s.positions.Portfolio(r.Context(), s.userID)
	if err != nil {
		s.writeError(w, err, "Failed to list positions")
		return
	}
	out := make([]positionResponse, 0, len(spots))
	for _, p := range spots {
		out = append(out, s.toPositionResponse(p))
	}
	s.writeJSON(w, http.StatusOK, out)
}

type createSpotRequest struct {
	Symbol       string  `json:"symbol"`
	Entry        float64 `json:"entry"`
	Amount       float64 `json:"amount"`
	TP           float64 `json:"tp"`
	SL           float64 `json:"sl"`
	Risk         float64 `json:"risk"`
	Currency     string  `json:"currency"`
	TradeDate    string  `json:"trade_date"`
	TradeTime    string  `json:"trade_time"`
	CreateAlerts bool    `json:"create_alerts"`
}

func (s *Server) handleCreateSpot(w http.ResponseWriter, r *http.Request) {
	var req createSpotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	p := &domain.Position{
		UserID:    s.userID,
		Symbol:    req.Symbol,
		Entry:     req.Entry,
		Amount:    req.Amount,
		TP:        req.TP,
		SL:        req.SL,
		Risk:      req.Risk,
		Currency:  req.Currency,
		TradeDate: req.TradeDate,
		TradeTime: req.TradeTime,
	}
	if err := s.positions.CreateSpot(r.Context(), p, req.CreateAlerts); err != nil {
		s.writeError(w, err, "Failed to create position")
		return
	}
	s.writeJSON(w, http.StatusCreated, s.toPositionResponse(p))
}

func (s *Server) handleDeleteSpot(w http.ResponseWriter, r *http.Request) {
	if err := s.positions.DeleteSpot(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, err, "Failed to delete position")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createHedgeRequest struct {
	Entry        float64 `json:"entry"`
	Amount       float64 `json:"amount"`
	TP           float64 `json:"tp"`
	SL           float64 `json:"sl"`
	RiskPercent  float64 `json:"risk_percent"`
	HedgesCount  int     `json:"hedges_count"`
	CreateAlerts bool    `json:"create_alerts"`
}

func (s *Server) handleCreateHedge(w http.ResponseWriter, r *http.Request) {
	var req createHedgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	leg := &domain.Position{
		Entry:  req.Entry,
		Amount: req.Amount,
		TP:     req.TP,
		SL:     req.SL,
	}
	var policy *domain.LadderPolicy
	if req.RiskPercent > 0 && req.HedgesCount > 0 {
		policy = &domain.LadderPolicy{RiskPercent: req.RiskPercent, HedgesCount: req.HedgesCount}
	}

	if err := s.positions.CreateHedge(r.Context(), r.PathValue("id"), leg, policy, req.CreateAlerts); err != nil {
		s.writeError(w, err, "Failed to create hedge")
		return
	}
	s.writeJSON(w, http.StatusCreated, s.toPositionResponse(leg))
}

func (s *Server) handleNextHedge(w http.ResponseWriter, r *http.Request) {
	next, ladder, err := s.positions.NextHedgeSetup(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err, "Failed to compute next hedge")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"next":   next,
		"ladder": ladder,
	})
}

func (s *Server) handleDeleteHedge(w http.ResponseWriter, r *http.Request) {
	if err := s.positions.DeleteHedge(r.Context(), r.PathValue("id"), r.PathValue("legID")); err != nil {
		s.writeError(w, err, "Failed to delete hedge")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Alerts

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	alerts := s.alerts.ActiveAlerts(r.URL.Query().Get("coin"))
	out := make([]alertResponse, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, toAlertResponse(a))
	}
	s.writeJSON(w, http.StatusOK, out)
}

type createAlertRequest struct {
	Coin        string  `json:"coin"`
	TargetPrice float64 `json:"target_price"`
	Condition   string  `json:"condition"`
	Note        string  `json:"note"`
}

func (s *Server) handleCreateAlert(w http.ResponseWriter, r *http.Request) {
	var req createAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	a := &domain.Alert{
		UserID:      s.userID,
		Coin:        req.Coin,
		TargetPrice: req.TargetPrice,
		Condition:   domain.AlertCondition(req.Condition),
		Note:        req.Note,
	}
	created, err := s.alerts.CreateAlert(r.Context(), a)
	if err != nil {
		s.writeError(w, err, "Failed to create alert")
		return
	}
	if !created {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "suppressed", "reason": "price already past target"})
		return
	}
	s.writeJSON(w, http.StatusCreated, toAlertResponse(a))
}

func (s *Server) handleDeleteAlert(w http.ResponseWriter, r *http.Request) {
	if err := s.alerts.DeleteAlert(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, err, "Failed to delete alert")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Tickers

func (s *Server) handleListTickers(w http.ResponseWriter, r *http.Request) {
	tickers, err := s.tickerRepo.ListTickers(r.Context())
	if err != nil {
		s.writeError(w, err, "Failed to list tickers")
		return
	}
	for _, t := range tickers {
		if price := s.alerts.LatestPrice(t.Symbol); price > 0 {
			t.LastPrice = price
		}
	}
	s.writeJSON(w, http.StatusOK, tickers)
}

// Calculators

func queryFloat(r *http.Request, key string) float64 {
	v, _ := strconv.ParseFloat(r.URL.Query().Get(key), 64)
	return v
}

func (s *Server) handleLadder(w http.ResponseWriter, r *http.Request) {
	count, _ := strconv.Atoi(r.URL.Query().Get("count"))
	setups, err := s.calculator.ComputeLadder(
		queryFloat(r, "entry"),
		queryFloat(r, "tp"),
		queryFloat(r, "amount"),
		queryFloat(r, "risk"),
		count,
		queryFloat(r, "start"),
	)
	if err != nil {
		s.writeError(w, err, "Failed to compute ladder")
		return
	}
	s.writeJSON(w, http.StatusOK, setups)
}

func (s *Server) handleRisk(w http.ResponseWriter, r *http.Request) {
	result := s.riskCalc.PositionSize(
		queryFloat(r, "risk"),
		queryFloat(r, "entry"),
		queryFloat(r, "tp"),
		queryFloat(r, "sl"),
	)
	s.writeJSON(w, http.StatusOK, result)
}

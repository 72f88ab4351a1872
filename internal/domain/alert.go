package domain

import "time"

type AlertCondition string

const (
	ConditionAbove AlertCondition = "above"
	ConditionBelow AlertCondition = "below"
)

// AlertRole links an alert to the aspect of a hedge leg it watches.
type AlertRole string

const (
	RoleTP        AlertRole = "tp"
	RoleSL        AlertRole = "sl"
	RoleNextEntry AlertRole = "next_entry"
)

// Alert is a one-shot price trigger. Once fired it is deleted; there is no
// re-arming.
type Alert struct {
	ID          string
	UserID      string
	Coin        string
	TargetPrice float64
	Condition   AlertCondition
	Note        string

	// PositionID and Role tie the alert to the hedge leg that created it.
	// Both are empty for hand-created alerts; cascade deletion then falls
	// back to matching the note text.
	PositionID string
	Role       AlertRole

	CreatedAt time.Time
}

// Triggered reports whether price satisfies the alert condition.
// Comparison is inclusive: a tick exactly at the target fires.
func (a *Alert) Triggered(price float64) bool {
	switch a.Condition {
	case ConditionAbove:
		return price >= a.TargetPrice
	case ConditionBelow:
		return price <= a.TargetPrice
	}
	return false
}

// DirectionWord is the human-readable form of the condition used in
// notification messages.
func (a *Alert) DirectionWord() string {
	if a.Condition == ConditionAbove {
		return "above"
	}
	return "below"
}

// Ticker is a watched symbol with its last seen price.
type Ticker struct {
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name"`
	LastPrice float64   `json:"last_price"`
	UpdatedAt time.Time `json:"updated_at"`
}

package reorder

import (
	"time"

	"farm2city/internal/models"
)

// Frequency windows: a rule that has fired cannot fire again until its
// window has fully elapsed.
const (
	DailyWindow   = 24 * time.Hour
	WeeklyWindow  = 7 * 24 * time.Hour
	MonthlyWindow = 30 * 24 * time.Hour
)

func Window(f models.ReorderFrequency) time.Duration {
	switch f {
	case models.ReorderDaily:
		return DailyWindow
	case models.ReorderMonthly:
		return MonthlyWindow
	default:
		return WeeklyWindow
	}
}

// Evaluate decides whether a rule should fire for the given stock level at
// the given instant. It is pure: re-evaluating with the same inputs yields
// the same result, and no event duplicates within a frequency window as
// long as the caller stamps last_triggered_at after acting on one.
//
// Rules are validated at write time, so malformed configurations never
// reach this point.
func Evaluate(rule models.AutoReorderRule, currentStock int, now time.Time) *models.ReorderEvent {
	if !rule.Enabled {
		return nil
	}

	if currentStock >= rule.MinStock {
		return nil
	}

	// A rule that never fired is eligible immediately.
	if rule.LastTriggeredAt != nil && now.Sub(*rule.LastTriggeredAt) < Window(rule.Frequency) {
		return nil
	}

	return &models.ReorderEvent{
		ShopkeeperID:        rule.ShopkeeperID,
		ProductID:           rule.ProductID,
		RecommendedQuantity: rule.ReorderQuantity,
	}
}

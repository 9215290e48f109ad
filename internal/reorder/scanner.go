package reorder

import (
	"context"
	"fmt"
	"time"

	"farm2city/internal/models"
	"farm2city/internal/notify"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RuleSource is the slice of the rule repository the scanner reads from.
type RuleSource interface {
	ListEnabledWithStock(ctx context.Context) ([]models.ReorderCandidate, error)
	MarkTriggered(ctx context.Context, id uuid.UUID, at time.Time) error
}

// Scanner periodically sweeps enabled rules, fires reorder recommendations
// and stamps last_triggered_at so a rule stays quiet for its frequency
// window.
type Scanner struct {
	rules    RuleSource
	notifier notify.Notifier
	interval time.Duration
	now      func() time.Time
	log      *zap.SugaredLogger
}

func NewScanner(rules RuleSource, notifier notify.Notifier, interval time.Duration, log *zap.SugaredLogger) *Scanner {
	return &Scanner{
		rules:    rules,
		notifier: notifier,
		interval: interval,
		now:      time.Now,
		log:      log,
	}
}

// Run blocks, scanning on every tick until the context is cancelled.
func (s *Scanner) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Infow("reorder scanner started", "interval", s.interval)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("reorder scanner stopped")
			return
		case <-ticker.C:
			if err := s.ScanOnce(ctx); err != nil {
				s.log.Errorw("reorder scan failed", "error", err)
			}
		}
	}
}

// ScanOnce does one evaluation pass over all enabled rules.
func (s *Scanner) ScanOnce(ctx context.Context) error {
	candidates, err := s.rules.ListEnabledWithStock(ctx)
	if err != nil {
		return err
	}

	now := s.now()
	fired := 0

	for _, c := range candidates {
		event := Evaluate(c.Rule, c.CurrentStock, now)
		if event == nil {
			continue
		}

		s.notifier.Notify(ctx, event.ShopkeeperID,
			"Reorder Recommended",
			fmt.Sprintf("Stock is down to %d (minimum %d). Recommended reorder: %d units.",
				c.CurrentStock, c.Rule.MinStock, event.RecommendedQuantity),
			models.NotificationSystem,
			map[string]any{
				"product_id":           event.ProductID,
				"recommended_quantity": event.RecommendedQuantity,
			},
		)

		// Stamp after acting on the event, per the evaluator's contract.
		if err := s.rules.MarkTriggered(ctx, c.Rule.ID, now); err != nil {
			s.log.Errorw("failed to stamp reorder rule", "rule_id", c.Rule.ID, "error", err)
			continue
		}
		fired++
	}

	if fired > 0 {
		s.log.Infow("reorder scan complete", "candidates", len(candidates), "fired", fired)
	}

	return nil
}

package reorder

import (
	"context"
	"testing"
	"time"

	"farm2city/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRuleSource struct {
	candidates []models.ReorderCandidate
	listErr    error
}

func (f *fakeRuleSource) ListEnabledWithStock(ctx context.Context) ([]models.ReorderCandidate, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.candidates, nil
}

func (f *fakeRuleSource) MarkTriggered(ctx context.Context, id uuid.UUID, at time.Time) error {
	for i := range f.candidates {
		if f.candidates[i].Rule.ID == id {
			stamped := at
			f.candidates[i].Rule.LastTriggeredAt = &stamped
			return nil
		}
	}
	return nil
}

type scannerNotification struct {
	userID uuid.UUID
	title  string
	data   map[string]any
}

type recordingNotifier struct {
	sent []scannerNotification
}

func (r *recordingNotifier) Notify(ctx context.Context, userID uuid.UUID, title, message string, typ models.NotificationType, data map[string]any) {
	r.sent = append(r.sent, scannerNotification{userID: userID, title: title, data: data})
}

func TestScanOnce_FiresAndStamps(t *testing.T) {
	rule := models.AutoReorderRule{
		ID:              uuid.New(),
		ShopkeeperID:    uuid.New(),
		ProductID:       uuid.New(),
		MinStock:        10,
		ReorderQuantity: 50,
		Frequency:       models.ReorderWeekly,
		Enabled:         true,
	}
	source := &fakeRuleSource{candidates: []models.ReorderCandidate{{Rule: rule, CurrentStock: 5}}}
	notifier := &recordingNotifier{}

	scanner := NewScanner(source, notifier, time.Hour, zap.NewNop().Sugar())
	scanTime := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	scanner.now = func() time.Time { return scanTime }

	require.NoError(t, scanner.ScanOnce(context.Background()))

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, rule.ShopkeeperID, notifier.sent[0].userID)
	assert.Equal(t, "Reorder Recommended", notifier.sent[0].title)
	assert.Equal(t, 50, notifier.sent[0].data["recommended_quantity"])

	require.NotNil(t, source.candidates[0].Rule.LastTriggeredAt)
	assert.Equal(t, scanTime, *source.candidates[0].Rule.LastTriggeredAt)
}

func TestScanOnce_RescanWithinWindowIsQuiet(t *testing.T) {
	rule := models.AutoReorderRule{
		ID:              uuid.New(),
		ShopkeeperID:    uuid.New(),
		ProductID:       uuid.New(),
		MinStock:        10,
		ReorderQuantity: 50,
		Frequency:       models.ReorderWeekly,
		Enabled:         true,
	}
	source := &fakeRuleSource{candidates: []models.ReorderCandidate{{Rule: rule, CurrentStock: 5}}}
	notifier := &recordingNotifier{}

	scanner := NewScanner(source, notifier, time.Hour, zap.NewNop().Sugar())
	scanTime := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	scanner.now = func() time.Time { return scanTime }

	require.NoError(t, scanner.ScanOnce(context.Background()))
	require.Len(t, notifier.sent, 1)

	// Two days later the stock is still low, but the weekly window holds.
	scanner.now = func() time.Time { return scanTime.Add(2 * 24 * time.Hour) }
	require.NoError(t, scanner.ScanOnce(context.Background()))
	assert.Len(t, notifier.sent, 1)

	// Past the window it fires again.
	scanner.now = func() time.Time { return scanTime.Add(8 * 24 * time.Hour) }
	require.NoError(t, scanner.ScanOnce(context.Background()))
	assert.Len(t, notifier.sent, 2)
}

func TestScanOnce_SkipsHealthyAndDisabledRules(t *testing.T) {
	healthy := models.ReorderCandidate{
		Rule: models.AutoReorderRule{
			ID: uuid.New(), ShopkeeperID: uuid.New(), ProductID: uuid.New(),
			MinStock: 10, ReorderQuantity: 50, Frequency: models.ReorderDaily, Enabled: true,
		},
		CurrentStock: 40,
	}
	disabled := models.ReorderCandidate{
		Rule: models.AutoReorderRule{
			ID: uuid.New(), ShopkeeperID: uuid.New(), ProductID: uuid.New(),
			MinStock: 10, ReorderQuantity: 50, Frequency: models.ReorderDaily, Enabled: false,
		},
		CurrentStock: 0,
	}
	source := &fakeRuleSource{candidates: []models.ReorderCandidate{healthy, disabled}}
	notifier := &recordingNotifier{}

	scanner := NewScanner(source, notifier, time.Hour, zap.NewNop().Sugar())
	require.NoError(t, scanner.ScanOnce(context.Background()))

	assert.Empty(t, notifier.sent)
	assert.Nil(t, source.candidates[0].Rule.LastTriggeredAt)
	assert.Nil(t, source.candidates[1].Rule.LastTriggeredAt)
}

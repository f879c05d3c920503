package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricetrack/internal/model"
)

func testSnapshot() *model.Snapshot {
	added := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	fired := time.Date(2026, 8, 2, 9, 30, 0, 0, time.UTC)

	return &model.Snapshot{
		SchemaVersion: model.SnapshotSchemaVersion,
		Products: map[string]*model.Product{
			"p1": {
				ID:           "p1",
				Name:         "Widget",
				Currency:     "USD",
				Retailer:     "acme",
				CurrentPrice: 85,
				DateAdded:    added,
				LastUpdated:  fired,
			},
		},
		Order: []string{"p1"},
		Alerts: map[string][]*model.PriceAlert{
			"p1": {
				{
					ID:               "a1",
					ProductID:        "p1",
					TargetPrice:      90,
					NotifyOnDecrease: true,
					PushKey:          "device-key",
					Status:           model.AlertTriggered,
					ReferencePrice:   85,
					CreatedAt:        added,
					LastTriggeredAt:  &fired,
				},
				{
					ID:               "a2",
					ProductID:        "p1",
					TargetPrice:      70,
					NotifyOnIncrease: true,
					Email:            "user@example.com",
					Status:           model.AlertDeleted,
					ReferencePrice:   100,
					CreatedAt:        added,
				},
			},
		},
	}
}

func TestJSONRoundTrip(t *testing.T) {
	s, err := NewJSON(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	snap := testSnapshot()
	require.NoError(t, s.Save(ctx, "tracker", snap))

	loaded, err := s.Load(ctx, "tracker")
	require.NoError(t, err)
	assert.Equal(t, snap, loaded)
}

func TestJSONLoadAbsent(t *testing.T) {
	s, err := NewJSON(t.TempDir())
	require.NoError(t, err)

	loaded, err := s.Load(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestJSONSaveOverwrites(t *testing.T) {
	s, err := NewJSON(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	first := testSnapshot()
	require.NoError(t, s.Save(ctx, "tracker", first))

	second := testSnapshot()
	second.Products["p1"].CurrentPrice = 42
	require.NoError(t, s.Save(ctx, "tracker", second))

	loaded, err := s.Load(ctx, "tracker")
	require.NoError(t, err)
	assert.Equal(t, 42.0, loaded.Products["p1"].CurrentPrice)
}

func TestJSONKeysAreIndependent(t *testing.T) {
	s, err := NewJSON(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "a", testSnapshot()))

	loaded, err := s.Load(ctx, "b")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricetrack/internal/model"
)

func testProduct(id, name string, price float64) *model.Product {
	return &model.Product{
		ID:           id,
		Name:         name,
		Currency:     "USD",
		Retailer:     "acme",
		CurrentPrice: price,
	}
}

func TestTrackIdempotent(t *testing.T) {
	c := New()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	first, created, err := c.Track(testProduct("p1", "Widget", 100), now)
	require.NoError(t, err)
	require.True(t, created)

	// Re-tracking with different data returns the stored record unchanged
	again, created, err := c.Track(testProduct("p1", "Other Name", 50), now.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first, again)
	assert.Equal(t, 1, c.Len())
}

func TestTrackGeneratesID(t *testing.T) {
	c := New()
	now := time.Now()

	p, created, err := c.Track(testProduct("", "Widget", 100), now)
	require.NoError(t, err)
	require.True(t, created)
	assert.NotEmpty(t, p.ID)

	// Same retailer and name map to the same generated id
	dup, created, err := c.Track(testProduct("", "Widget", 120), now)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, p.ID, dup.ID)
}

func TestTrackValidation(t *testing.T) {
	c := New()
	now := time.Now()

	_, _, err := c.Track(testProduct("p1", "", 100), now)
	assert.ErrorIs(t, err, model.ErrValidation)

	_, _, err = c.Track(testProduct("p1", "Widget", -1), now)
	assert.ErrorIs(t, err, model.ErrValidation)

	assert.Equal(t, 0, c.Len())
}

func TestUntrack(t *testing.T) {
	c := New()
	c.Track(testProduct("p1", "Widget", 100), time.Now())

	assert.True(t, c.Untrack("p1"))
	assert.False(t, c.Untrack("p1"))

	_, err := c.Get("p1")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestListInsertionOrder(t *testing.T) {
	c := New()
	now := time.Now()
	for _, id := range []string{"c", "a", "b"} {
		_, _, err := c.Track(testProduct(id, "Widget "+id, 10), now)
		require.NoError(t, err)
	}

	list := c.List()
	require.Len(t, list, 3)
	assert.Equal(t, "c", list[0].ID)
	assert.Equal(t, "a", list[1].ID)
	assert.Equal(t, "b", list[2].ID)

	c.Untrack("a")
	list = c.List()
	require.Len(t, list, 2)
	assert.Equal(t, []string{"c", "b"}, c.IDs())
}

func TestApplyPriceUpdate(t *testing.T) {
	c := New()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	c.Track(testProduct("p1", "Widget", 100), now)

	_, err := c.ApplyPriceUpdate("missing", 50, now)
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = c.ApplyPriceUpdate("p1", -5, now)
	assert.ErrorIs(t, err, model.ErrValidation)

	later := now.Add(time.Hour)
	p, err := c.ApplyPriceUpdate("p1", 85, later)
	require.NoError(t, err)
	assert.Equal(t, 85.0, p.CurrentPrice)
	assert.Equal(t, later, p.LastUpdated)

	// A stale clock never moves LastUpdated backwards
	p, err = c.ApplyPriceUpdate("p1", 80, now)
	require.NoError(t, err)
	assert.Equal(t, 80.0, p.CurrentPrice)
	assert.Equal(t, later, p.LastUpdated)
}

func TestExportRestoreKeepsOrder(t *testing.T) {
	c := New()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for _, id := range []string{"z", "m", "a"} {
		c.Track(testProduct(id, "Widget "+id, 10), now)
		now = now.Add(time.Minute)
	}

	products, order := c.Export()

	restored := New()
	restored.Restore(products, order)
	assert.Equal(t, c.IDs(), restored.IDs())
	assert.Equal(t, c.List(), restored.List())
}

func TestRestoreWithoutOrderFallsBackToDateAdded(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	products := map[string]*model.Product{
		"late":  {ID: "late", Name: "Late", DateAdded: base.Add(time.Hour)},
		"early": {ID: "early", Name: "Early", DateAdded: base},
	}

	c := New()
	c.Restore(products, nil)
	assert.Equal(t, []string{"early", "late"}, c.IDs())
}

package alert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricetrack/internal/model"
)

func testProduct(id string, price float64) *model.Product {
	return &model.Product{
		ID:           id,
		Name:         "Widget",
		Currency:     "USD",
		Retailer:     "acme",
		CurrentPrice: price,
	}
}

func pushOpts() model.AlertOptions {
	return model.AlertOptions{
		NotifyOnDecrease: true,
		PushKey:          "device-key",
	}
}

func TestCreateValidation(t *testing.T) {
	r := New()
	now := time.Now()
	product := testProduct("p1", 100)

	_, err := r.Create(product, -1, pushOpts(), now)
	assert.ErrorIs(t, err, model.ErrValidation)

	// No notify condition at all
	_, err = r.Create(product, 90, model.AlertOptions{PushKey: "k"}, now)
	assert.ErrorIs(t, err, model.ErrValidation)

	// No notification channel
	_, err = r.Create(product, 90, model.AlertOptions{NotifyOnDecrease: true}, now)
	assert.ErrorIs(t, err, model.ErrValidation)

	// Negative percentage threshold
	_, err = r.Create(product, 90, model.AlertOptions{PercentageChange: -0.1, PushKey: "k"}, now)
	assert.ErrorIs(t, err, model.ErrValidation)

	a, err := r.Create(product, 90, pushOpts(), now)
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, model.AlertActive, a.Status)
	assert.Equal(t, 100.0, a.ReferencePrice)
	assert.Equal(t, now, a.CreatedAt)
	assert.Nil(t, a.LastTriggeredAt)
}

func TestUpdateMergesOnlyProvidedFields(t *testing.T) {
	r := New()
	a, err := r.Create(testProduct("p1", 100), 90, pushOpts(), time.Now())
	require.NoError(t, err)

	newTarget := 80.0
	email := "user@example.com"
	updated, err := r.Update(a.ID, model.AlertUpdate{
		TargetPrice: &newTarget,
		Email:       &email,
	})
	require.NoError(t, err)
	assert.Equal(t, 80.0, updated.TargetPrice)
	assert.Equal(t, "user@example.com", updated.Email)
	assert.Equal(t, "device-key", updated.PushKey)
	assert.True(t, updated.NotifyOnDecrease)
	assert.Equal(t, model.AlertActive, updated.Status)
}

func TestUpdateUnknownAlert(t *testing.T) {
	r := New()
	_, err := r.Update("missing", model.AlertUpdate{})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestStatusTransitions(t *testing.T) {
	r := New()
	now := time.Now()

	newAlert := func() *model.PriceAlert {
		a, err := r.Create(testProduct("p1", 100), 90, pushOpts(), now)
		require.NoError(t, err)
		return a
	}
	status := func(s model.AlertStatus) *model.AlertStatus { return &s }

	t.Run("pause and resume", func(t *testing.T) {
		a := newAlert()
		_, err := r.Update(a.ID, model.AlertUpdate{Status: status(model.AlertPaused)})
		require.NoError(t, err)
		_, err = r.Update(a.ID, model.AlertUpdate{Status: status(model.AlertActive)})
		require.NoError(t, err)
	})

	t.Run("paused cannot trigger directly", func(t *testing.T) {
		a := newAlert()
		_, err := r.Update(a.ID, model.AlertUpdate{Status: status(model.AlertPaused)})
		require.NoError(t, err)
		_, err = r.Update(a.ID, model.AlertUpdate{Status: status(model.AlertTriggered)})
		assert.ErrorIs(t, err, model.ErrInvalidTransition)
	})

	t.Run("same status is a no-op", func(t *testing.T) {
		a := newAlert()
		_, err := r.Update(a.ID, model.AlertUpdate{Status: status(model.AlertActive)})
		require.NoError(t, err)
	})

	t.Run("deleted is terminal", func(t *testing.T) {
		a := newAlert()
		require.True(t, r.Delete(a.ID))
		_, err := r.Update(a.ID, model.AlertUpdate{Status: status(model.AlertActive)})
		assert.ErrorIs(t, err, model.ErrInvalidTransition)
	})

	t.Run("deleted rejects field updates too", func(t *testing.T) {
		a := newAlert()
		require.True(t, r.Delete(a.ID))
		target := 50.0
		_, err := r.Update(a.ID, model.AlertUpdate{TargetPrice: &target})
		assert.ErrorIs(t, err, model.ErrInvalidTransition)

		got, err := r.Get(a.ID)
		require.NoError(t, err)
		assert.Equal(t, 90.0, got.TargetPrice, "tombstone is left untouched")
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		a := newAlert()
		_, err := r.Update(a.ID, model.AlertUpdate{Status: status(model.AlertStatus("bogus"))})
		assert.ErrorIs(t, err, model.ErrValidation)
	})
}

func TestDeleteHidesFromListings(t *testing.T) {
	r := New()
	a, err := r.Create(testProduct("p1", 100), 90, pushOpts(), time.Now())
	require.NoError(t, err)

	require.True(t, r.Delete(a.ID))
	assert.False(t, r.Delete(a.ID), "second delete reports not found")

	assert.Empty(t, r.ListForProduct("p1"))
	assert.Empty(t, r.ListAll())

	// Tombstone stays addressable
	got, err := r.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AlertDeleted, got.Status)
}

func TestDeleteAllForProduct(t *testing.T) {
	r := New()
	now := time.Now()
	product := testProduct("p1", 100)
	other := testProduct("p2", 200)

	a1, _ := r.Create(product, 90, pushOpts(), now)
	a2, _ := r.Create(product, 80, pushOpts(), now)
	keep, _ := r.Create(other, 150, pushOpts(), now)

	assert.Equal(t, 2, r.DeleteAllForProduct("p1"))
	assert.Empty(t, r.ListForProduct("p1"))

	for _, removed := range []string{a1.ID, a2.ID} {
		_, err := r.Get(removed)
		assert.ErrorIs(t, err, model.ErrNotFound)
	}

	all := r.ListAll()
	require.Len(t, all, 1)
	assert.Equal(t, keep.ID, all[0].ID)
}

func TestEvaluateDecrease(t *testing.T) {
	r := New()
	product := testProduct("p1", 100)
	a, err := r.Create(product, 90, pushOpts(), time.Now())
	require.NoError(t, err)

	// Price still above target: nothing fires
	product.CurrentPrice = 95
	assert.Empty(t, r.Evaluate(product, time.Now()))

	product.CurrentPrice = 85
	firedAt := time.Date(2026, 8, 2, 9, 0, 0, 0, time.UTC)
	triggered := r.Evaluate(product, firedAt)
	require.Len(t, triggered, 1)
	assert.Equal(t, a.ID, triggered[0].ID)
	assert.Equal(t, model.AlertTriggered, triggered[0].Status)
	require.NotNil(t, triggered[0].LastTriggeredAt)
	assert.Equal(t, firedAt, *triggered[0].LastTriggeredAt)

	// A triggered alert does not fire again
	assert.Empty(t, r.Evaluate(product, firedAt.Add(time.Hour)))
	got, err := r.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, firedAt, *got.LastTriggeredAt)
}

func TestEvaluateIncrease(t *testing.T) {
	r := New()
	product := testProduct("p1", 100)
	opts := model.AlertOptions{NotifyOnIncrease: true, PushKey: "k"}
	_, err := r.Create(product, 120, opts, time.Now())
	require.NoError(t, err)

	product.CurrentPrice = 119
	assert.Empty(t, r.Evaluate(product, time.Now()))

	product.CurrentPrice = 120
	assert.Len(t, r.Evaluate(product, time.Now()), 1)
}

func TestEvaluatePercentageChange(t *testing.T) {
	r := New()
	product := testProduct("p1", 100)
	opts := model.AlertOptions{PercentageChange: 0.10, PushKey: "k"}
	a, err := r.Create(product, 0, opts, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 100.0, a.ReferencePrice)

	// 9% drift is under the threshold
	product.CurrentPrice = 91
	assert.Empty(t, r.Evaluate(product, time.Now()))

	// 11% drift fires
	product.CurrentPrice = 89
	triggered := r.Evaluate(product, time.Now())
	require.Len(t, triggered, 1)
	assert.Equal(t, 89.0, triggered[0].ReferencePrice, "reference advances to the firing price")
}

func TestRearmAfterTrigger(t *testing.T) {
	r := New()
	product := testProduct("p1", 100)
	a, err := r.Create(product, 90, pushOpts(), time.Now())
	require.NoError(t, err)

	product.CurrentPrice = 85
	require.Len(t, r.Evaluate(product, time.Now()), 1)

	active := model.AlertActive
	_, err = r.Update(a.ID, model.AlertUpdate{Status: &active})
	require.NoError(t, err)

	// The condition still holds, so a re-armed alert fires again
	triggered := r.Evaluate(product, time.Now())
	require.Len(t, triggered, 1)
	assert.Equal(t, a.ID, triggered[0].ID)
}

func TestExportRestoreRoundTrip(t *testing.T) {
	r := New()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	product := testProduct("p1", 100)
	r.Create(product, 90, pushOpts(), now)
	a2, _ := r.Create(product, 80, pushOpts(), now)
	r.Delete(a2.ID)

	restored := New()
	restored.Restore(r.Export())

	assert.Equal(t, r.Export(), restored.Export())
	assert.Len(t, restored.ListForProduct("p1"), 1)
}

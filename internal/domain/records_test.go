package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAccessEvent(t *testing.T) {
	fixed := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	t.Cleanup(UseClock(clockwork.NewFakeClockAt(fixed)))

	event := NewAccessEvent("GET", "/inspections/search", "grade=A", 200, 1500*time.Millisecond, "req-1")

	_, err := uuid.Parse(event.ID)
	require.NoError(t, err)
	assert.Equal(t, "GET", event.Method)
	assert.Equal(t, "/inspections/search", event.Route)
	assert.Equal(t, "grade=A", event.Query)
	assert.Equal(t, 200, event.Status)
	assert.Equal(t, int64(1500), event.DurationMS)
	assert.Equal(t, "req-1", event.RequestID)
	assert.Equal(t, fixed, event.OccurredAt)
}

func TestNewAccessEvent_UniqueIDs(t *testing.T) {
	a := NewAccessEvent("GET", "/places", "", 200, 0, "")
	b := NewAccessEvent("GET", "/places", "", 200, 0, "")
	assert.NotEqual(t, a.ID, b.ID)
}

func TestUseClock_Restores(t *testing.T) {
	fixed := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	restore := UseClock(clockwork.NewFakeClockAt(fixed))
	assert.Equal(t, fixed, NewAccessEvent("GET", "/soap", "", 200, 0, "").OccurredAt)

	restore()
	assert.NotEqual(t, fixed, NewAccessEvent("GET", "/soap", "", 200, 0, "").OccurredAt)
}

package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountsTracksSuccessAndFailure(t *testing.T) {
	var c Counts
	c.OnSuccess()
	c.OnFailure()
	c.OnFailure()

	assert.Equal(t, uint32(3), c.Requests)
	assert.Equal(t, uint32(1), c.TotalSuccesses)
	assert.Equal(t, uint32(2), c.TotalFailures)
	assert.Equal(t, uint32(2), c.ConsecutiveFailures, "a success followed by failures should reset consecutive successes but count consecutive failures")
	assert.Equal(t, uint32(0), c.ConsecutiveSuccesses)
}

func TestCountsFailureRatio(t *testing.T) {
	var c Counts
	assert.Equal(t, 0.0, c.FailureRatio(), "no requests yet should not divide by zero")

	c.OnSuccess()
	c.OnFailure()
	assert.InDelta(t, 0.5, c.FailureRatio(), 1e-9)
}

func TestCircuitBreakerStartsClosed(t *testing.T) {
	cb := New(DefaultConfig("test"))
	assert.Equal(t, StateClosed, cb.State())
	assert.NoError(t, cb.Allow())
}

func TestCircuitBreakerTripsOpenAfterReadyToTrip(t *testing.T) {
	cfg := &Config{
		Name:        "trip",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: func(c Counts) bool {
			return c.ConsecutiveFailures >= 2
		},
	}
	cb := New(cfg)

	_, err1 := cb.Execute(func() (interface{}, error) { return nil, errors.New("boom") })
	_, err2 := cb.Execute(func() (interface{}, error) { return nil, errors.New("boom") })

	require.Error(t, err1)
	require.Error(t, err2)
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreakerOpenRejectsRequests(t *testing.T) {
	cfg := &Config{
		Name:        "reject",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 1 },
	}
	cb := New(cfg)

	cb.Execute(func() (interface{}, error) { return nil, errors.New("boom") })
	require.Equal(t, StateOpen, cb.State())

	_, err := cb.Execute(func() (interface{}, error) { return "ok", nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestCircuitBreakerTransitionsToHalfOpenAfterTimeout(t *testing.T) {
	cfg := &Config{
		Name:        "recover",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     10 * time.Millisecond,
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 1 },
	}
	cb := New(cfg)

	cb.Execute(func() (interface{}, error) { return nil, errors.New("boom") })
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, StateHalfOpen, cb.State())
}

func TestCircuitBreakerHalfOpenClosesAfterEnoughSuccesses(t *testing.T) {
	cfg := &Config{
		Name:        "heal",
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     5 * time.Millisecond,
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 1 },
	}
	cb := New(cfg)

	cb.Execute(func() (interface{}, error) { return nil, errors.New("boom") })
	time.Sleep(15 * time.Millisecond)
	require.Equal(t, StateHalfOpen, cb.State())

	cb.Execute(func() (interface{}, error) { return "ok", nil })
	cb.Execute(func() (interface{}, error) { return "ok", nil })

	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreakerHalfOpenReopensOnFailure(t *testing.T) {
	cfg := &Config{
		Name:        "relapse",
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     5 * time.Millisecond,
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 1 },
	}
	cb := New(cfg)

	cb.Execute(func() (interface{}, error) { return nil, errors.New("boom") })
	time.Sleep(15 * time.Millisecond)
	require.Equal(t, StateHalfOpen, cb.State())

	cb.Execute(func() (interface{}, error) { return nil, errors.New("still broken") })
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreakerExecutePanicReopensAsFailure(t *testing.T) {
	cfg := &Config{
		Name:        "panic",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 1 },
	}
	cb := New(cfg)

	assert.Panics(t, func() {
		cb.Execute(func() (interface{}, error) { panic("actuator panic") })
	})
	assert.Equal(t, StateOpen, cb.State(), "a panicking request must still count as a failure")
}

func TestManagerGetCreatesAndReusesBreaker(t *testing.T) {
	m := NewManager(nil)

	a := m.Get("zone-a")
	b := m.Get("zone-a")

	assert.Same(t, a, b, "Get should return the same breaker instance for the same name")
	assert.Equal(t, "zone-a", a.Name())
}

func TestManagerGetOrCreateUsesCustomConfigOnce(t *testing.T) {
	m := NewManager(nil)
	cfg := &Config{Name: "custom", MaxRequests: 9, Interval: time.Minute, Timeout: time.Minute}

	cb := m.GetOrCreate("custom", cfg)
	assert.Equal(t, uint32(9), cb.cfg.MaxRequests)

	again := m.GetOrCreate("custom", &Config{Name: "custom", MaxRequests: 1})
	assert.Same(t, cb, again, "an existing breaker must not be replaced by a second config")
}

func TestManagerRemoveForgetsBreaker(t *testing.T) {
	m := NewManager(nil)
	first := m.Get("zone-b")
	m.Remove("zone-b")
	second := m.Get("zone-b")

	assert.NotSame(t, first, second)
}

func TestManagerListAndStats(t *testing.T) {
	m := NewManager(nil)
	m.Get("zone-a")
	m.Get("zone-b")

	assert.ElementsMatch(t, []string{"zone-a", "zone-b"}, m.List())

	stats := m.Stats()
	assert.Len(t, stats, 2)
	assert.Equal(t, StateClosed, stats["zone-a"].State)
}

func TestNewEdgeCircuitBreakersWiresDistinctBreakers(t *testing.T) {
	e := NewEdgeCircuitBreakers()

	assert.Equal(t, "handoff", e.Handoff.Name())
	assert.Equal(t, "heartbeat", e.Heartbeat.Name())
	assert.Equal(t, "predictive-alloc", e.PredictiveAlloc.Name())
	assert.ElementsMatch(t, []string{"handoff", "heartbeat", "predictive-alloc"}, e.manager.List())
}

func TestEdgeCircuitBreakersHealthStatusDegradesWhenOneTrips(t *testing.T) {
	e := NewEdgeCircuitBreakers()

	for i := 0; i < 2; i++ {
		e.Handoff.Execute(func() (interface{}, error) { return nil, errors.New("peer unreachable") })
	}
	require.Equal(t, StateOpen, e.Handoff.State())

	status, details := e.HealthStatus()
	assert.Equal(t, "DEGRADED", status)
	assert.Equal(t, "OPEN", details["handoff"])
}

func TestExecuteWithFallbackInvokedWhenCircuitOpen(t *testing.T) {
	cfg := &Config{
		Name:        "fallback",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 1 },
	}
	cb := New(cfg)
	cb.Execute(func() (interface{}, error) { return nil, errors.New("boom") })
	require.Equal(t, StateOpen, cb.State())

	result, err := ExecuteWithFallback(cb,
		func() (string, error) { return "live", nil },
		func(error) (string, error) { return "cached", nil },
	)

	require.NoError(t, err)
	assert.Equal(t, "cached", result)
}

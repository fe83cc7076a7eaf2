package circuit

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	b := New("exchange", WithFailureThreshold(0), WithSuccessThreshold(-1))
	assert.Equal(t, "exchange", b.Name())
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "closed", b.State().String())

	for range defaultFailureThreshold - 1 {
		b.RecordFailure()
	}
	assert.False(t, b.IsOpen(), "non-positive thresholds fall back to the defaults")
	b.RecordFailure()
	assert.True(t, b.IsOpen())
	assert.Equal(t, "open", b.State().String())
}

func TestBreaker_Transitions(t *testing.T) {
	type step struct {
		success bool
		open    bool
		change  Change
	}
	tests := []struct {
		name  string
		steps []step
	}{
		{
			name: "opens on the third consecutive failure",
			steps: []step{
				{success: false},
				{success: false},
				{success: false, open: true, change: Change{Opened: true}},
			},
		},
		{
			name: "success in between resets the failure run",
			steps: []step{
				{success: false},
				{success: false},
				{success: true},
				{success: false},
				{success: false},
				{success: false, open: true, change: Change{Opened: true}},
			},
		},
		{
			name: "closes after two successes while open",
			steps: []step{
				{success: false},
				{success: false},
				{success: false, open: true, change: Change{Opened: true}},
				{success: true, open: true},
				{success: true, change: Change{Closed: true}},
			},
		},
		{
			name: "failure while open restarts the success run",
			steps: []step{
				{success: false},
				{success: false},
				{success: false, open: true, change: Change{Opened: true}},
				{success: true, open: true},
				{success: false, open: true},
				{success: true, open: true},
				{success: true, change: Change{Closed: true}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("exchange", WithFailureThreshold(3), WithSuccessThreshold(2))
			for i, s := range tt.steps {
				var change Change
				if s.success {
					_, change = b.RecordSuccess()
				} else {
					_, change = b.RecordFailure()
				}
				assert.Equal(t, s.change, change, "step %d", i)
				assert.Equal(t, s.open, b.IsOpen(), "step %d", i)
			}
		})
	}
}

func TestBreaker_OpenReportsFallback(t *testing.T) {
	b := New("exchange", WithFailureThreshold(1), WithSuccessThreshold(2))

	useFallback, change := b.RecordFailure()
	assert.True(t, useFallback)
	assert.True(t, change.Opened)

	useFallback, change = b.RecordFailure()
	assert.True(t, useFallback)
	assert.Equal(t, Change{}, change, "already open")

	usePrimary, _ := b.RecordSuccess()
	assert.False(t, usePrimary, "one success is not enough to close")
}

func TestBreaker_Reset(t *testing.T) {
	b := New("exchange", WithFailureThreshold(2))
	b.RecordFailure()
	b.RecordFailure()
	require.True(t, b.IsOpen())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	b.RecordFailure()
	assert.False(t, b.IsOpen(), "reset clears the failure run")
}

func TestBreaker_ConcurrentFailuresOpenOnce(t *testing.T) {
	const callers = 50
	b := New("exchange", WithFailureThreshold(10))

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		opened int
	)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, change := b.RecordFailure(); change.Opened {
				mu.Lock()
				opened++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.True(t, b.IsOpen())
	assert.Equal(t, 1, opened)
}

package cooldown_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/randalmurphal/piecework/pkg/piecework/cooldown"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced clock for expiry arithmetic.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestStartAndRemaining(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := cooldown.New(cooldown.WithClock(clock.Now))
	defer m.Stop()

	m.Start("ping", time.Hour)
	assert.True(t, m.IsActive("ping"))

	left, ok := m.Remaining("ping")
	require.True(t, ok)
	assert.Equal(t, time.Hour, left)

	clock.Advance(59 * time.Minute)
	text, ok := m.Humanized("ping")
	require.True(t, ok)
	assert.Equal(t, "in 1 minute", text)

	clock.Advance(2 * time.Minute)
	assert.False(t, m.IsActive("ping"))
}

func TestUnknownKey(t *testing.T) {
	m := cooldown.New()

	assert.False(t, m.IsActive("nope"))
	_, ok := m.Remaining("nope")
	assert.False(t, ok)
	_, ok = m.Humanized("nope")
	assert.False(t, ok)
	assert.False(t, m.Cancel("nope"))
}

func TestSelfExpiry(t *testing.T) {
	var expired atomic.Value
	m := cooldown.New(cooldown.WithOnExpire(func(key string) {
		expired.Store(key)
	}))
	defer m.Stop()

	m.Start("ping", 20*time.Millisecond)
	assert.Equal(t, 1, m.Len())

	// No queries in between: the timer alone must remove the entry.
	assert.Eventually(t, func() bool { return m.Len() == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "ping", expired.Load())
}

func TestRefreshReplacesTimer(t *testing.T) {
	m := cooldown.New()
	defer m.Stop()

	m.Start("ping", 30*time.Millisecond)
	m.Start("ping", time.Hour)

	// The first timer must not remove the refreshed entry.
	time.Sleep(80 * time.Millisecond)
	assert.True(t, m.IsActive("ping"))
	assert.Equal(t, 1, m.Len())
}

func TestZeroDurationClears(t *testing.T) {
	m := cooldown.New()
	defer m.Stop()

	m.Start("ping", time.Hour)
	m.Start("ping", 0)
	assert.False(t, m.IsActive("ping"))
	assert.Equal(t, 0, m.Len())
}

func TestCancel(t *testing.T) {
	var fired atomic.Bool
	m := cooldown.New(cooldown.WithOnExpire(func(string) { fired.Store(true) }))

	m.Start("ping", 20*time.Millisecond)
	assert.True(t, m.Cancel("ping"))
	assert.False(t, m.IsActive("ping"))

	time.Sleep(60 * time.Millisecond)
	assert.False(t, fired.Load())
}

func TestStop(t *testing.T) {
	m := cooldown.New()
	m.Start("a", time.Hour)
	m.Start("b", time.Hour)

	m.Stop()
	assert.Equal(t, 0, m.Len())

	m.Start("c", time.Hour)
	assert.False(t, m.IsActive("c"))
}

func TestHumanize(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "in 1 second"},
		{300 * time.Millisecond, "in 1 second"},
		{time.Second, "in 1 second"},
		{29*time.Second + 100*time.Millisecond, "in 30 seconds"},
		{45 * time.Second, "in 45 seconds"},
		{90 * time.Second, "in 1 minute"},
		{10 * time.Minute, "in 10 minutes"},
		{3 * time.Hour, "in 3 hours"},
	}

	for _, tt := range tests {
		t.Run(tt.in.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, cooldown.Humanize(tt.in))
		})
	}
}

func TestConcurrentStart(t *testing.T) {
	m := cooldown.New()
	defer m.Stop()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Start("shared", time.Minute)
			m.IsActive("shared")
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, m.Len())
}

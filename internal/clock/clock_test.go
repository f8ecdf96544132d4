package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFake_Now(t *testing.T) {
	c := NewFake(epoch)
	assert.Equal(t, epoch, c.Now())

	c.Advance(90 * time.Second)
	assert.Equal(t, epoch.Add(90*time.Second), c.Now())
}

func TestFake_AfterFunc_FiresInDeadlineOrder(t *testing.T) {
	c := NewFake(epoch)

	var order []string
	c.AfterFunc(3*time.Second, func() { order = append(order, "c") })
	c.AfterFunc(1*time.Second, func() { order = append(order, "a") })
	c.AfterFunc(2*time.Second, func() { order = append(order, "b") })

	c.Advance(1500 * time.Millisecond)
	assert.Equal(t, []string{"a"}, order)

	c.Advance(5 * time.Second)
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, 0, c.Pending())
}

func TestFake_AfterFunc_NowInsideCallback(t *testing.T) {
	c := NewFake(epoch)

	var firedAt time.Time
	c.AfterFunc(time.Second, func() { firedAt = c.Now() })

	c.Advance(10 * time.Second)
	assert.Equal(t, epoch.Add(time.Second), firedAt)
	assert.Equal(t, epoch.Add(10*time.Second), c.Now())
}

func TestFake_AfterFunc_RescheduleFromCallback(t *testing.T) {
	c := NewFake(epoch)

	ticks := 0
	var tick func()
	tick = func() {
		ticks++
		c.AfterFunc(time.Second, tick)
	}
	c.AfterFunc(time.Second, tick)

	c.Advance(5 * time.Second)
	assert.Equal(t, 5, ticks)
	assert.Equal(t, 1, c.Pending())
}

func TestFake_Stop(t *testing.T) {
	c := NewFake(epoch)

	fired := false
	timer := c.AfterFunc(time.Second, func() { fired = true })

	require.True(t, timer.Stop())
	assert.False(t, timer.Stop(), "second stop is a no-op")

	c.Advance(time.Minute)
	assert.False(t, fired)
}

func TestFake_StopAfterFire(t *testing.T) {
	c := NewFake(epoch)

	timer := c.AfterFunc(time.Second, func() {})
	c.Advance(time.Second)

	assert.False(t, timer.Stop())
}

func TestFake_StopOneKeepsOthers(t *testing.T) {
	c := NewFake(epoch)

	var a, b bool
	ta := c.AfterFunc(time.Second, func() { a = true })
	c.AfterFunc(time.Second, func() { b = true })

	ta.Stop()
	c.Advance(time.Second)

	assert.False(t, a)
	assert.True(t, b)
}

func TestReal_AfterFunc(t *testing.T) {
	c := New()
	done := make(chan struct{})
	c.AfterFunc(time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("real timer did not fire")
	}
}

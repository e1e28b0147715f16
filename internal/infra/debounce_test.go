package infra

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncer_CoalescesBursts(t *testing.T) {
	var runs int64
	d := NewDebouncer(30 * time.Millisecond)

	for i := 0; i < 10; i++ {
		d.Schedule(func() { atomic.AddInt64(&runs, 1) })
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int64(1), atomic.LoadInt64(&runs))
}

func TestDebouncer_CancelDropsPendingRun(t *testing.T) {
	var runs int64
	d := NewDebouncer(20 * time.Millisecond)

	d.Schedule(func() { atomic.AddInt64(&runs, 1) })
	d.Cancel()

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int64(0), atomic.LoadInt64(&runs))
}

func TestDebouncer_RunsAgainAfterQuietPeriod(t *testing.T) {
	var runs int64
	d := NewDebouncer(10 * time.Millisecond)

	d.Schedule(func() { atomic.AddInt64(&runs, 1) })
	time.Sleep(40 * time.Millisecond)
	d.Schedule(func() { atomic.AddInt64(&runs, 1) })
	time.Sleep(40 * time.Millisecond)

	assert.Equal(t, int64(2), atomic.LoadInt64(&runs))
}

package monitoring

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHealthMonitor_Check(t *testing.T) {
	var fail atomic.Bool
	classifier := func(context.Context) error {
		if fail.Load() {
			return errors.New("connection refused")
		}
		return nil
	}
	m := NewHealthMonitor(time.Hour, map[string]Probe{
		"embedder":   func(context.Context) error { return nil },
		"classifier": classifier,
	})
	assert.True(t, m.Healthy())

	fail.Store(true)
	assert.False(t, m.Check(context.Background()))
	assert.False(t, m.Healthy())
	assert.Equal(t, map[string]string{"classifier": "connection refused"}, m.Failures())

	fail.Store(false)
	assert.True(t, m.Check(context.Background()))
	assert.True(t, m.Healthy())
	assert.Empty(t, m.Failures())
}

func TestHealthMonitor_RunProbesImmediately(t *testing.T) {
	var calls atomic.Int32
	m := NewHealthMonitor(time.Hour, map[string]Probe{
		"embedder": func(context.Context) error {
			calls.Add(1)
			return errors.New("down")
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return !m.Healthy() }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
	assert.Equal(t, int32(1), calls.Load())
}

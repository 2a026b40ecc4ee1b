package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBusDurationsFromEnv(t *testing.T) {
	t.Setenv("BUS_BLOCK", "500ms")
	t.Setenv("BUS_RECLAIM_MIN_IDLE", "1m")
	t.Setenv("BUS_HANDLER_TIMEOUT", "garbage")

	cfg := New()
	assert.Equal(t, 500*time.Millisecond, cfg.Bus.Block)
	assert.Equal(t, time.Minute, cfg.Bus.ReclaimMinIdle)
	// unparseable values fall back to the default
	assert.Equal(t, 10*time.Second, cfg.Bus.HandlerTimeout)
}

func TestBusDurationDefaults(t *testing.T) {
	t.Setenv("BUS_BLOCK", "")
	t.Setenv("BUS_RECLAIM_MIN_IDLE", "")
	t.Setenv("BUS_HANDLER_TIMEOUT", "")
	t.Setenv("BUS_MAX_DELIVERY", "")

	cfg := New()
	assert.Equal(t, 2*time.Second, cfg.Bus.Block)
	assert.Equal(t, 30*time.Second, cfg.Bus.ReclaimMinIdle)
	assert.Equal(t, 10*time.Second, cfg.Bus.HandlerTimeout)
	assert.Equal(t, 5, cfg.Bus.MaxDelivery)
}

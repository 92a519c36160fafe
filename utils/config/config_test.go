package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/agentmobility-oss/utils/config"
)

func newMinimalConfig() config.Config {
	return config.Config{
		World: config.World{
			BBox: config.WorldBBox{MinLon: 116.0, MinLat: 39.5, MaxLon: 117.0, MaxLat: 40.5},
		},
		Control: config.Control{Step: config.ControlStep{Interval: 1}},
	}
}

func TestRuntimeConfigDefaults(t *testing.T) {
	rc := config.NewRuntimeConfig(newMinimalConfig())
	c := rc.All

	assert.Equal(t, 1000.0, c.World.GridSize)
	assert.Equal(t, 900.0, c.World.TimeSlot)

	assert.Equal(t, 5, c.Trip.MaxTransfers)
	assert.True(t, *c.Trip.Cache.Enabled)
	assert.Equal(t, 5, c.Trip.Cache.SizePerCell)
	assert.Equal(t, 900.0, c.Trip.Cache.Duration)
	assert.Equal(t, 1800.0, c.Trip.Cache.NotfoundDuration)
	assert.Equal(t, []float64{0, 15, -15}, c.Trip.Strategy.QueryOffsets)
	assert.Equal(t, 5, c.Trip.Strategy.MaxCandidates)

	assert.Equal(t, int64(20), c.Agent.MaxConcurrent)
	assert.Equal(t, 1800.0, c.Agent.WalkFallback)
	assert.Equal(t, 2, c.Agent.Reschedule.Version)
	assert.Equal(t, 0.75, c.Agent.Reschedule.Ratio)
	assert.Equal(t, 0.02, c.Agent.Reschedule.K)
	// 单次改期调整上限为1小时
	assert.Equal(t, 3600.0, c.Agent.Reschedule.MaxAdjust)
	assert.Equal(t, 6*3600.0, c.Agent.ReflectInterval)
	assert.Equal(t, 3, c.Agent.SelfReflect.IntervalDays)
	assert.Equal(t, 5, c.Agent.SelfReflect.WindowDays)

	assert.Equal(t, 1.0, rc.C.Step.Interval)
}

func TestRuntimeConfigKeepsExplicitValues(t *testing.T) {
	c := newMinimalConfig()
	enabled := false
	c.Trip.Cache.Enabled = &enabled
	c.Agent.Reschedule.MaxAdjust = 600
	rc := config.NewRuntimeConfig(c)

	assert.False(t, *rc.All.Trip.Cache.Enabled)
	assert.Equal(t, 600.0, rc.All.Agent.Reschedule.MaxAdjust)
}

func TestRuntimeConfigRejectsMissingRequired(t *testing.T) {
	assert.Panics(t, func() {
		c := newMinimalConfig()
		c.World.BBox = config.WorldBBox{}
		config.NewRuntimeConfig(c)
	})
	assert.Panics(t, func() {
		c := newMinimalConfig()
		c.Control.Step.Interval = 0
		config.NewRuntimeConfig(c)
	})
}

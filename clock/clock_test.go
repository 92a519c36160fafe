package clock_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/agentmobility-oss/clock"
)

func TestClockUpdate(t *testing.T) {
	c := clock.New(900)
	assert.Equal(t, 0, c.Day())

	c.Update(28800)
	assert.Equal(t, 0, c.Day())
	assert.Equal(t, 28800.0, c.TimeOfDay())
	assert.Equal(t, "Day 0 08:00:00", c.String())

	c.Update(24*3600 + 3661)
	assert.Equal(t, 1, c.Day())
	assert.Equal(t, 3661.0, c.TimeOfDay())
	assert.Equal(t, "Day 1 01:01:01", c.String())
}

package trip_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/agentmobility-oss/trip"
	"github.com/tsinghua-fib-lab/agentmobility-oss/utils/geo"
)

func newLeg(route, from, to string, start, end float64) *trip.TransitLeg {
	return &trip.TransitLeg{
		StartTime:     start,
		EndTime:       end,
		StartLocation: trip.StopLocation{Location: geo.Location{Lon: 116.4, Lat: 39.9}, Stop: from},
		EndLocation:   trip.StopLocation{Location: geo.Location{Lon: 116.5, Lat: 40.0}, Stop: to},
		Route:         route,
	}
}

func newTransferLeg(start, end float64) *trip.TransitLeg {
	l := newLeg("", "", "", start, end)
	l.IsTransfer = true
	return l
}

func newPlan(legs ...*trip.TransitLeg) *trip.TravelPlan {
	return &trip.TravelPlan{
		ID:            trip.NewID(),
		StartLocation: geo.Location{Lon: 116.4, Lat: 39.9},
		EndLocation:   geo.Location{Lon: 116.5, Lat: 40.0},
		StartTime:     legs[0].StartTime,
		EndTime:       legs[len(legs)-1].EndTime,
		Legs:          legs,
	}
}

func TestPlanCode(t *testing.T) {
	p := newPlan(
		newLeg("r1", "s1", "s2", 0, 600),
		newTransferLeg(600, 700),
		newLeg("r2", "s2", "s3", 700, 1500),
	)
	// 步行换乘段不参与签名
	assert.Equal(t, "r1^s1^s2+r2^s2^s3", p.Code())
	assert.Len(t, p.Transits(), 2)
	assert.Equal(t, 600.0, p.Legs[0].Duration())
}

func TestPlanUnique(t *testing.T) {
	p1 := newPlan(newLeg("r1", "s1", "s2", 0, 600))
	p2 := newPlan(newLeg("r1", "s1", "s2", 100, 700)) // 时间不同但内容相同
	p3 := newPlan(newLeg("r2", "s1", "s2", 0, 600))
	unique := trip.Unique([]*trip.TravelPlan{p1, p2, p3})
	assert.Len(t, unique, 2)
	assert.Equal(t, p1, unique[0])
}

func TestPlanIsCircular(t *testing.T) {
	ok := newPlan(
		newLeg("r1", "s1", "s2", 0, 600),
		newLeg("r2", "s2", "s3", 600, 1200),
	)
	assert.False(t, ok.IsCircular())

	circular := newPlan(
		newLeg("r1", "s1", "s2", 0, 600),
		newLeg("r2", "s2", "s1", 600, 1200),
		newLeg("r1", "s1", "s2", 1200, 1800),
	)
	assert.True(t, circular.IsCircular())
}

func TestPlanShift(t *testing.T) {
	p := newPlan(newLeg("r1", "s1", "s2", 100, 700))
	p.Shift(50)
	assert.Equal(t, 150.0, p.StartTime)
	assert.Equal(t, 750.0, p.EndTime)
	assert.Equal(t, 150.0, p.Legs[0].StartTime)
	assert.Equal(t, 750.0, p.Legs[0].EndTime)
}

func TestPlanClone(t *testing.T) {
	p := newPlan(newLeg("r1", "s1", "s2", 100, 700))
	clone := p.Clone()
	clone.Shift(50)
	// 深拷贝，原方案不受影响
	assert.Equal(t, 100.0, p.StartTime)
	assert.Equal(t, 100.0, p.Legs[0].StartTime)
	assert.Equal(t, 150.0, clone.StartTime)
}

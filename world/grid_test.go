package world_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/agentmobility-oss/utils/geo"
	"github.com/tsinghua-fib-lab/agentmobility-oss/world"
)

var testBBox = geo.BBox{MinLon: 116.0, MinLat: 39.5, MaxLon: 117.0, MaxLat: 40.5}

func TestWorldGridCell(t *testing.T) {
	g := world.NewWorldGrid(testBBox, 1000)

	loc := geo.Location{Lon: 116.5, Lat: 40.0}
	x1, y1 := g.Cell(loc)
	x2, y2 := g.Cell(loc)
	assert.Equal(t, x1, x2)
	assert.Equal(t, y1, y2)

	// 距离远超网格边长的两点落在不同单元
	far := geo.Location{Lon: 116.9, Lat: 40.4}
	x3, y3 := g.Cell(far)
	assert.False(t, x1 == x3 && y1 == y3)

	xCells, yCells := g.Size()
	assert.Greater(t, xCells, 0)
	assert.Greater(t, yCells, 0)
	assert.LessOrEqual(t, x3, xCells)
	assert.LessOrEqual(t, y3, yCells)
}

func TestWorldGridContains(t *testing.T) {
	g := world.NewWorldGrid(testBBox, 1000)
	assert.True(t, g.Contains(geo.Location{Lon: 116.5, Lat: 40.0}))
	assert.False(t, g.Contains(geo.Location{Lon: 120.0, Lat: 40.0}))
}

func TestWorldGridOutsideBBox(t *testing.T) {
	g := world.NewWorldGrid(testBBox, 1000)
	assert.Panics(t, func() {
		g.Cell(geo.Location{Lon: 120.0, Lat: 40.0})
	})
}

func TestWorldGridInvalidArgs(t *testing.T) {
	assert.Panics(t, func() {
		world.NewWorldGrid(geo.BBox{}, 1000)
	})
	assert.Panics(t, func() {
		world.NewWorldGrid(testBBox, 0)
	})
}

func TestTimeGridSlot(t *testing.T) {
	tg := world.NewTimeGrid(900)
	assert.Equal(t, 0, tg.Slot(0))
	assert.Equal(t, 0, tg.Slot(899))
	assert.Equal(t, 1, tg.Slot(900))
	// 跨天时刻落回当天同一槽
	assert.Equal(t, 1, tg.Slot(24*3600+900))
	assert.Equal(t, 900.0, tg.SlotDuration())
}

func TestTimeGridSlotText(t *testing.T) {
	tg := world.NewTimeGrid(900)
	assert.Equal(t, "00:00 - 00:15", tg.SlotText(0))
	assert.Equal(t, "08:00 - 08:15", tg.SlotText(32))
}

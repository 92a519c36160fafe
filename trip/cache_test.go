package trip_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/agentmobility-oss/trip"
	"github.com/tsinghua-fib-lab/agentmobility-oss/utils/config"
	"github.com/tsinghua-fib-lab/agentmobility-oss/utils/geo"
	"github.com/tsinghua-fib-lab/agentmobility-oss/world"
)

// countingPlanner 记录调用次数的规划服务桩
type countingPlanner struct {
	mtx   sync.Mutex
	calls int
	fn    func(call int, departureTime float64) []*trip.TravelPlan
}

func (p *countingPlanner) GetItineraries(ctx context.Context, origin, destination geo.Location,
	departureTime float64, maxTransfers int) ([]*trip.TravelPlan, error) {
	p.mtx.Lock()
	p.calls++
	call := p.calls
	p.mtx.Unlock()
	return p.fn(call, departureTime), nil
}

func (p *countingPlanner) callCount() int {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return p.calls
}

// 整个包围盒落在单个网格单元内，保证同单元命中
func newCacheWorld() *world.World {
	bbox := geo.BBox{MinLon: 116.0, MinLat: 39.5, MaxLon: 117.0, MaxLat: 40.5}
	return world.New(bbox, 200000, 900, nil)
}

func newCacheConfig(sizePerCell int) config.Trip {
	enabled := true
	return config.Trip{
		MaxTransfers: 5,
		Cache: config.TripCache{
			Enabled:          &enabled,
			SizePerCell:      sizePerCell,
			Duration:         900,
			NotfoundDuration: 1800,
		},
		Strategy: config.TripStrategy{
			QueryOffsets:  []float64{0},
			MaxCandidates: 5,
		},
	}
}

func singlePlan(route string, departureTime float64) []*trip.TravelPlan {
	return []*trip.TravelPlan{newPlan(newLeg(route, "s1", "s2", departureTime, departureTime+1200))}
}

func TestCacheReanchor(t *testing.T) {
	planner := &countingPlanner{fn: func(call int, departureTime float64) []*trip.TravelPlan {
		return singlePlan("r1", departureTime)
	}}
	cache := trip.NewCache(newCacheConfig(1), newCacheWorld(), planner)

	o1 := geo.Location{Lon: 116.50, Lat: 40.00}
	o2 := geo.Location{Lon: 116.5002, Lat: 40.00}
	d := geo.Location{Lon: 116.80, Lat: 40.20}

	plans := cache.GetItineraries(context.Background(), o1, d, 1000)
	assert.Equal(t, 1, planner.callCount())
	assert.Len(t, plans, 1)
	// 重锚定：起止时间平移到请求的出发时刻，起终点覆盖为请求值
	assert.Equal(t, 1000.0, plans[0].StartTime)
	assert.Equal(t, 2200.0, plans[0].EndTime)
	assert.Equal(t, o1, plans[0].StartLocation)
	assert.Equal(t, d, plans[0].EndLocation)

	// 同单元同时间槽的第二次查询命中缓存，不再调用规划服务
	plans = cache.GetItineraries(context.Background(), o2, d, 1050)
	assert.Equal(t, 1, planner.callCount())
	assert.Len(t, plans, 1)
	assert.Equal(t, 1050.0, plans[0].StartTime)
	assert.Equal(t, o2, plans[0].StartLocation)
}

func TestCacheNearestSnapshot(t *testing.T) {
	planner := &countingPlanner{fn: func(call int, departureTime float64) []*trip.TravelPlan {
		if call == 1 {
			return singlePlan("r1", departureTime)
		}
		return singlePlan("r2", departureTime)
	}}
	cache := trip.NewCache(newCacheConfig(2), newCacheWorld(), planner)

	o1 := geo.Location{Lon: 116.10, Lat: 40.00}
	o2 := geo.Location{Lon: 116.60, Lat: 40.00}
	d := geo.Location{Lon: 116.80, Lat: 40.20}

	cache.GetItineraries(context.Background(), o1, d, 1000)
	cache.GetItineraries(context.Background(), o2, d, 1010)
	assert.Equal(t, 2, planner.callCount())

	// 快照已满，选择起点几何上最接近的快照
	near2 := geo.Location{Lon: 116.601, Lat: 40.00}
	plans := cache.GetItineraries(context.Background(), near2, d, 1020)
	assert.Equal(t, 2, planner.callCount())
	assert.Len(t, plans, 1)
	assert.Equal(t, "r2^s1^s2", plans[0].Code())

	near1 := geo.Location{Lon: 116.101, Lat: 40.00}
	plans = cache.GetItineraries(context.Background(), near1, d, 1030)
	assert.Equal(t, 2, planner.callCount())
	assert.Equal(t, "r1^s1^s2", plans[0].Code())
}

func TestCacheSnapshotCap(t *testing.T) {
	planner := &countingPlanner{fn: func(call int, departureTime float64) []*trip.TravelPlan {
		return singlePlan("r1", departureTime)
	}}
	cache := trip.NewCache(newCacheConfig(2), newCacheWorld(), planner)

	d := geo.Location{Lon: 116.80, Lat: 40.20}
	origins := []geo.Location{
		{Lon: 116.10, Lat: 40.00},
		{Lon: 116.20, Lat: 40.00},
		{Lon: 116.30, Lat: 40.00},
		{Lon: 116.40, Lat: 40.00},
	}
	for _, o := range origins {
		cache.GetItineraries(context.Background(), o, d, 1000)
	}
	// 前两次未命中填满快照列表，后续查询不再调用规划服务
	assert.Equal(t, 2, planner.callCount())
}

func TestCacheNegative(t *testing.T) {
	planner := &countingPlanner{fn: func(call int, departureTime float64) []*trip.TravelPlan {
		return nil
	}}
	cache := trip.NewCache(newCacheConfig(1), newCacheWorld(), planner)

	o := geo.Location{Lon: 116.50, Lat: 40.00}
	d := geo.Location{Lon: 116.80, Lat: 40.20}

	plans := cache.GetItineraries(context.Background(), o, d, 100)
	assert.Empty(t, plans)
	assert.Equal(t, 1, planner.callCount())

	// 负缓存窗口内完全相同的坐标对不再触发查询
	plans = cache.GetItineraries(context.Background(), o, d, 200)
	assert.Empty(t, plans)
	assert.Equal(t, 1, planner.callCount())

	// 负缓存时间桶翻转后重新查询
	plans = cache.GetItineraries(context.Background(), o, d, 2000)
	assert.Empty(t, plans)
	assert.Equal(t, 2, planner.callCount())
}

func TestCacheBucketRollover(t *testing.T) {
	planner := &countingPlanner{fn: func(call int, departureTime float64) []*trip.TravelPlan {
		return singlePlan("r1", departureTime)
	}}
	cache := trip.NewCache(newCacheConfig(1), newCacheWorld(), planner)

	o := geo.Location{Lon: 116.50, Lat: 40.00}
	d := geo.Location{Lon: 116.80, Lat: 40.20}

	cache.GetItineraries(context.Background(), o, d, 1000)
	cache.GetItineraries(context.Background(), o, d, 1010)
	assert.Equal(t, 1, planner.callCount())

	// 正缓存时间桶翻转，整体失效后重新查询
	cache.GetItineraries(context.Background(), o, d, 1900)
	assert.Equal(t, 2, planner.callCount())
}

func TestCacheDisabled(t *testing.T) {
	planner := &countingPlanner{fn: func(call int, departureTime float64) []*trip.TravelPlan {
		return singlePlan("r1", departureTime)
	}}
	c := newCacheConfig(1)
	enabled := false
	c.Cache.Enabled = &enabled
	cache := trip.NewCache(c, newCacheWorld(), planner)

	o := geo.Location{Lon: 116.50, Lat: 40.00}
	d := geo.Location{Lon: 116.80, Lat: 40.20}

	cache.GetItineraries(context.Background(), o, d, 1000)
	cache.GetItineraries(context.Background(), o, d, 1000)
	assert.Equal(t, 2, planner.callCount())
}

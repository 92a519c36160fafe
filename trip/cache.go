package trip

import (
	"context"
	"sort"
	"sync"

	"github.com/tsinghua-fib-lab/agentmobility-oss/utils/config"
	"github.com/tsinghua-fib-lab/agentmobility-oss/utils/container"
	"github.com/tsinghua-fib-lab/agentmobility-oss/utils/geo"
	"github.com/tsinghua-fib-lab/agentmobility-oss/world"
)

// cacheKey 缓存键
// 功能：由起终点网格、时间槽与粗粒度时间桶组成的离散化查询标识
type cacheKey struct {
	originX, originY           int
	destinationX, destinationY int
	timeSlot                   int
	bucket                     int64 // 时间桶，桶翻转时整体失效
}

// blacklistKey 负缓存键
// 说明：负缓存按精确坐标对记忆，不做网格离散化
type blacklistKey struct {
	originLon, originLat           float64
	destinationLon, destinationLat float64
}

// snapshot 一次成功检索的快照
// 功能：记录检索时的精确起终点、出发时刻与得到的候选行程
// 说明：同一缓存键下可能保存多个起终点略有差异的快照，命中时选几何上最接近的
type snapshot struct {
	origin        geo.Location
	destination   geo.Location
	departureTime float64
	itineraries   []*TravelPlan
}

// Cache 行程缓存
// 功能：把昂贵、限流的路径规划查询变成按离散时空键复用的结果，
// 附带无路可走坐标对的负缓存
// 说明：正缓存与负缓存各自按时间桶整体失效；内部状态由互斥锁保护，
// 规划服务调用在锁外进行，有界快照列表保证并发未命中不会超出容量
type Cache struct {
	grid     *world.WorldGrid
	timeGrid *world.TimeGrid
	strategy fetchStrategy

	enabled          bool
	sizePerCell      int     // 每个缓存键的快照数量上限
	duration         float64 // 正缓存失效周期（秒）
	notfoundDuration float64 // 负缓存失效周期（秒）

	mu                 sync.Mutex
	data               map[cacheKey]*container.Capped[*snapshot]
	blacklist          map[blacklistKey]struct{}
	lastBucket         int64 // 上次见到的正缓存时间桶，-1表示未初始化
	lastNotfoundBucket int64

	statHits, statQueries, statNew int
}

// NewCache 创建行程缓存
// 功能：根据配置初始化缓存并选定检索策略
// 参数：c-行程配置，w-世界模型（提供空间/时间离散化），planner-规划服务（通常已包装重试）
// 说明：recursion_depth大于0时使用递归拼接策略，否则使用时间窗扇出策略
func NewCache(c config.Trip, w *world.World, planner Planner) *Cache {
	var strategy fetchStrategy
	if c.Strategy.RecursionDepth > 0 {
		log.Warnf("cache: using recursive search strategy with depth %d", c.Strategy.RecursionDepth)
		strategy = &recursiveStrategy{
			planner:      planner,
			depth:        c.Strategy.RecursionDepth,
			maxTransfers: c.MaxTransfers,
		}
	} else {
		log.Warn("cache: using time-range expanded search strategy")
		strategy = &fanOutStrategy{
			planner:       planner,
			offsets:       c.Strategy.QueryOffsets,
			timeStep:      w.Time.SlotDuration(),
			maxTransfers:  c.MaxTransfers,
			maxCandidates: c.Strategy.MaxCandidates,
		}
	}
	if !*c.Cache.Enabled {
		log.Warn("cache: disabled, all requests will go to the planner directly")
	}
	return &Cache{
		grid:               w.Grid,
		timeGrid:           w.Time,
		strategy:           strategy,
		enabled:            *c.Cache.Enabled,
		sizePerCell:        c.Cache.SizePerCell,
		duration:           c.Cache.Duration,
		notfoundDuration:   c.Cache.NotfoundDuration,
		data:               make(map[cacheKey]*container.Capped[*snapshot]),
		blacklist:          make(map[blacklistKey]struct{}),
		lastBucket:         -1,
		lastNotfoundBucket: -1,
	}
}

// GetItineraries 查询候选行程
// 功能：带时空缓存的行程查询，无路可走返回空列表，从不返回错误
// 参数：origin/destination-精确起终点，departureTime-出发时刻（绝对秒）
// 算法说明：
// 1. 离散化：起终点->网格单元，出发时刻->时间槽与时间桶
// 2. 桶翻转时整体清空正缓存（负缓存按自己的桶独立清空）
// 3. 缓存键快照不足上限且坐标对未被拉黑 -> 未命中：调用检索策略；
//    结果非空则为每个行程分配新标识并压入快照列表（超限先淘汰最旧），
//    结果为空则把精确坐标对加入负缓存
// 4. 从键下快照中选起终点平面距离平方最小者（先比起点，再比终点）
// 5. 重锚定：拷贝行程，起终点覆盖为请求值，全部时间平移使
//    StartTime等于请求的出发时刻
func (c *Cache) GetItineraries(ctx context.Context, origin, destination geo.Location, departureTime float64) []*TravelPlan {
	if !c.enabled {
		return c.strategy.fetch(ctx, origin, destination, departureTime)
	}

	ox, oy := c.grid.Cell(origin)
	dx, dy := c.grid.Cell(destination)
	key := cacheKey{
		originX: ox, originY: oy,
		destinationX: dx, destinationY: dy,
		timeSlot: c.timeGrid.Slot(departureTime),
		bucket:   int64(departureTime / c.duration),
	}
	blKey := blacklistKey{
		originLon: origin.Lon, originLat: origin.Lat,
		destinationLon: destination.Lon, destinationLat: destination.Lat,
	}

	c.mu.Lock()
	c.rollBuckets(key.bucket, int64(departureTime/c.notfoundDuration))
	entry := c.data[key]
	_, blacklisted := c.blacklist[blKey]
	miss := (entry == nil || entry.Len() < c.sizePerCell) && !blacklisted
	c.statQueries++
	if !miss {
		c.statHits++
		log.Debugf("cache: hit for key %+v, ratio: %.2f", key, float64(c.statHits)/float64(c.statQueries))
	}
	c.mu.Unlock()

	if miss {
		// 规划服务调用在锁外进行，重复的并发未命中由有界快照列表兜底
		itineraries := c.strategy.fetch(ctx, origin, destination, departureTime)
		c.mu.Lock()
		if len(itineraries) > 0 {
			for _, it := range itineraries {
				it.ID = NewID()
			}
			if entry = c.data[key]; entry == nil {
				entry = container.NewCapped[*snapshot](c.sizePerCell)
				c.data[key] = entry
			}
			entry.Push(&snapshot{
				origin:        origin,
				destination:   destination,
				departureTime: departureTime,
				itineraries:   itineraries,
			})
			c.statNew++
		} else {
			c.blacklist[blKey] = struct{}{}
		}
		c.mu.Unlock()
	}

	return c.selectAndAnchor(key, origin, destination, departureTime)
}

// rollBuckets 时间桶翻转检查（需持有锁）
// 功能：当前时间桶与上次不同，整体清空对应缓存
// 说明：这是粗粒度的全局失效，不做按键过期
func (c *Cache) rollBuckets(bucket, notfoundBucket int64) {
	if c.lastBucket != bucket {
		c.data = make(map[cacheKey]*container.Capped[*snapshot])
		if c.lastBucket >= 0 {
			log.Debugf("cache: cleared for new bucket %d", bucket)
		}
	}
	c.lastBucket = bucket
	if c.lastNotfoundBucket != notfoundBucket {
		c.blacklist = make(map[blacklistKey]struct{})
		if c.lastNotfoundBucket >= 0 {
			log.Debugf("cache: blacklist cleared for new bucket %d", notfoundBucket)
		}
	}
	c.lastNotfoundBucket = notfoundBucket
}

// selectAndAnchor 快照选择与重锚定
// 功能：选几何上最接近请求的快照，把其中的行程拷贝后对齐到请求的起终点与时刻
// 说明：缓存中的行程是为略有差异的起终点/时刻计算的，
// 平移保持各分段的相对时长，绝对时间对齐到调用方的出发时刻
func (c *Cache) selectAndAnchor(key cacheKey, origin, destination geo.Location, departureTime float64) []*TravelPlan {
	c.mu.Lock()
	entry := c.data[key]
	if entry == nil || entry.Len() == 0 {
		c.mu.Unlock()
		return nil
	}
	candidates := make([]*snapshot, entry.Len())
	copy(candidates, entry.Data())
	c.mu.Unlock()

	sort.SliceStable(candidates, func(i, j int) bool {
		di := geo.SquareDistance(candidates[i].origin, origin)
		dj := geo.SquareDistance(candidates[j].origin, origin)
		if di != dj {
			return di < dj
		}
		return geo.SquareDistance(candidates[i].destination, destination) <
			geo.SquareDistance(candidates[j].destination, destination)
	})

	best := candidates[0]
	rs := make([]*TravelPlan, 0, len(best.itineraries))
	for _, it := range best.itineraries {
		plan := it.Clone()
		plan.StartLocation = origin
		plan.EndLocation = destination
		plan.Shift(departureTime - plan.StartTime)
		rs = append(rs, plan)
	}
	return rs
}

package trip

import (
	"context"
	"sync"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/agentmobility-oss/utils/geo"
)

// fetchStrategy 行程检索策略
// 功能：缓存未命中时向外部规划服务取候选行程的算法
// 说明：构造缓存时根据配置选定一次，不在调用期间切换
type fetchStrategy interface {
	fetch(ctx context.Context, origin, destination geo.Location, departureTime float64) []*TravelPlan
}

// fanOutStrategy 时间窗扇出策略（默认）
// 功能：在出发时刻附近的多个时间点并发查询，合并去重后取前若干个候选
// 说明：以额外的规划调用换取更高的找到概率，延迟被并发隐藏
type fanOutStrategy struct {
	planner       Planner
	offsets       []float64 // 查询时间偏移（分钟）
	timeStep      float64   // 出发时刻对齐步长（秒）
	maxTransfers  int
	maxCandidates int
}

// fetch 扇出查询
// 算法说明：
// 1. 出发时刻向下对齐到timeStep
// 2. 对每个偏移并发调用规划服务
// 3. 按偏移配置顺序合并结果，按签名去重
// 4. 保留前maxCandidates个候选
func (s *fanOutStrategy) fetch(ctx context.Context, origin, destination geo.Location, departureTime float64) []*TravelPlan {
	departureTime = float64(int(departureTime/s.timeStep)) * s.timeStep

	results := make([][]*TravelPlan, len(s.offsets))
	var wg sync.WaitGroup
	for i, offset := range s.offsets {
		wg.Add(1)
		go func(i int, offset float64) {
			defer wg.Done()
			plans, err := s.planner.GetItineraries(ctx, origin, destination, departureTime+offset*60, s.maxTransfers)
			if err != nil {
				log.Errorf("fan-out query at offset %vmin failed: %v", offset, err)
				return
			}
			results[i] = plans
		}(i, offset)
	}
	wg.Wait()

	seen := make(map[string]struct{})
	rs := make([]*TravelPlan, 0, s.maxCandidates)
	for _, plan := range lo.Flatten(results) {
		code := plan.Code()
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		rs = append(rs, plan)
		if len(rs) >= s.maxCandidates {
			break
		}
	}
	log.Debugf("fan-out strategy: %d planner calls, %d candidates", len(s.offsets), len(rs))
	return rs
}

// recursiveStrategy 递归拼接策略（按配置启用）
// 功能：用首段乘车的到达点向终点追加查询，把原方案前缀与新后缀拼接，
// 构造单次查询给不出的多次换乘行程
// 说明：扇出规模由递归深度与递减的换乘预算约束，换乘预算降到2以下停止
type recursiveStrategy struct {
	planner      Planner
	depth        int
	maxTransfers int
}

// stitchTask 一次追加查询的拼接上下文
type stitchTask struct {
	plan      *TravelPlan
	prefixEnd int // 前缀的最后一个分段下标（乘车段）
	result    []*TravelPlan
}

// fetch 递归拼接查询
// 算法说明：
// 1. 先做一次常规查询，无结果则直接返回
// 2. 每一轮：取每个候选的第firstIndex个乘车段，从它的到达点向终点追加查询
//    （换乘预算减1），把原方案到该乘车段为止的前缀与每个新后缀拼接
// 3. 丢弃出现重复(线路, 站点对)的环路方案，按签名去重后进入下一轮
// 4. 递归深度耗尽或换乘预算<=2时结束
func (s *recursiveStrategy) fetch(ctx context.Context, origin, destination geo.Location, departureTime float64) []*TravelPlan {
	maxTransfers := s.maxTransfers
	depth := s.depth
	plans, err := s.planner.GetItineraries(ctx, origin, destination, departureTime, maxTransfers)
	if err != nil {
		log.Errorf("recursive strategy initial query failed: %v", err)
		return nil
	}
	if len(plans) == 0 {
		return nil
	}

	calls := 1
	firstIndex := -1
	for depth > 0 && maxTransfers > 2 {
		maxTransfers--
		depth--
		firstIndex++

		tasks := make([]*stitchTask, 0, len(plans))
		for _, plan := range plans {
			transits := plan.Transits()
			if len(transits) <= firstIndex {
				continue
			}
			transit := transits[firstIndex]
			_, legIndex, _ := lo.FindIndexOf(plan.Legs, func(l *TransitLeg) bool { return l == transit })
			tasks = append(tasks, &stitchTask{plan: plan, prefixEnd: legIndex})
		}

		var wg sync.WaitGroup
		for _, task := range tasks {
			wg.Add(1)
			go func(task *stitchTask) {
				defer wg.Done()
				transit := task.plan.Legs[task.prefixEnd]
				suffixes, err := s.planner.GetItineraries(ctx,
					transit.EndLocation.Location, destination, transit.EndTime, maxTransfers)
				if err != nil {
					log.Errorf("recursive strategy stitch query failed: %v", err)
					return
				}
				task.result = suffixes
			}(task)
		}
		wg.Wait()
		calls += len(tasks)

		newPlans := make([]*TravelPlan, 0)
		for _, task := range tasks {
			for _, suffix := range task.result {
				legs := make([]*TransitLeg, 0, task.prefixEnd+1+len(suffix.Legs))
				legs = append(legs, task.plan.Legs[:task.prefixEnd+1]...)
				legs = append(legs, suffix.Legs...)
				combined := &TravelPlan{
					ID:            NewID(),
					StartLocation: task.plan.StartLocation,
					EndLocation:   suffix.EndLocation,
					StartTime:     task.plan.StartTime,
					EndTime:       suffix.EndTime,
					Legs:          legs,
				}
				if !combined.IsCircular() {
					newPlans = append(newPlans, combined)
				}
			}
		}
		plans = Unique(append(newPlans, plans...))
	}

	log.Debugf("recursive strategy: %d planner calls, %d candidates", calls, len(plans))
	return plans
}

// 场景编排器，驱动每个tick的移动决策
package scenario

import (
	"context"
	"math"
	"sync"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/agentmobility-oss/clock"
	"github.com/tsinghua-fib-lab/agentmobility-oss/entity/person"
	"github.com/tsinghua-fib-lab/agentmobility-oss/statestore"
	"github.com/tsinghua-fib-lab/agentmobility-oss/trip"
	"github.com/tsinghua-fib-lab/agentmobility-oss/utils/config"
	"github.com/tsinghua-fib-lab/agentmobility-oss/utils/geo"
	"github.com/tsinghua-fib-lab/agentmobility-oss/utils/randengine"
	"github.com/tsinghua-fib-lab/agentmobility-oss/world"
	"golang.org/x/sync/semaphore"
)

const daySeconds = 24 * 3600

// TripSource 行程查询源
// 功能：编排器查询候选行程的入口，无路可走返回空列表，不返回错误
// 说明：生产环境为带缓存的行程查询，测试可注入桩实现
type TripSource interface {
	GetItineraries(ctx context.Context, origin, destination geo.Location, departureTime float64) []*trip.TravelPlan
}

// IdleUpdate 外部观测到的空闲人员位置更新
type IdleUpdate struct {
	PersonID string       `json:"person_id"`
	Location geo.Location `json:"location"`
}

// Action 待投递的动作
type Action struct {
	PersonID string           `json:"person_id"`
	Move     *trip.PersonMove `json:"action"`
}

// Scenario tick编排器
// 功能：驱动一个仿真tick：同步外部状态、在并发上限内为每个空闲人员做
// 出行决策、累积待投递动作，并按独立周期触发回顾
// 说明：人员状态只由处理该人员的任务修改，跨人员无竞争；
// 单个人员的决策失败只记录日志，该人员本tick保持空闲，下个tick重试
type Scenario struct {
	world    *world.World
	clock    *clock.Clock
	trips    TripSource
	decision DecisionMaker    // 外部决策服务，可为nil
	store    *statestore.Store // 状态持久化，可为nil
	engine   *randengine.Engine

	cfg              config.Agent
	rescheduleAmount rescheduleFunc
	sem              *semaphore.Weighted // tick内并发决策的准入门

	actionMtx sync.Mutex
	actions   []*Action

	// 回顾定时器，负值表示未启动
	nextReflectionAt     float64
	nextSelfReflectionAt float64
}

// New 创建tick编排器
func New(
	w *world.World,
	clk *clock.Clock,
	trips TripSource,
	decision DecisionMaker,
	store *statestore.Store,
	engine *randengine.Engine,
	cfg config.Agent,
) *Scenario {
	return &Scenario{
		world:                w,
		clock:                clk,
		trips:                trips,
		decision:             decision,
		store:                store,
		engine:               engine,
		cfg:                  cfg,
		rescheduleAmount:     newRescheduleFunc(cfg.Reschedule),
		sem:                  semaphore.NewWeighted(cfg.MaxConcurrent),
		nextReflectionAt:     -1,
		nextSelfReflectionAt: -1,
	}
}

// SetDecisionMaker 注入外部决策服务
// 说明：只允许在第一次Sync之前调用
func (s *Scenario) SetDecisionMaker(dm DecisionMaker) {
	s.decision = dm
}

// Sync 处理一个仿真tick
// 功能：同步外部时间与空闲人员位置，随后为所有空闲人员做出行决策
// 参数：timestamp-绝对时间戳（秒），idleUpdates-外部观测到的空闲人员位置
// 算法说明：
// 1. 应用位置更新：设置LastLocation并结束当前行程，未知人员记录警告
// 2. schedulePersonMove：空闲人员扇出决策
// 3. 检查回顾与长周期回顾定时器：首个tick只设定触发时刻，
//    之后每次越过触发时刻执行一轮并顺延一个周期
func (s *Scenario) Sync(ctx context.Context, timestamp float64, idleUpdates []*IdleUpdate) error {
	s.clock.Update(timestamp)
	if len(idleUpdates) > 0 {
		log.Infof("[%s] syncing %d idle people", s.clock, len(idleUpdates))
		for _, update := range idleUpdates {
			p, err := s.world.Persons.GetOrError(update.PersonID)
			if err != nil {
				log.Warnf("[%s] idle update for unknown person %s", s.clock, update.PersonID)
				continue
			}
			p.State.LastLocation = update.Location
			s.world.Persons.SchedulerFor(p).Finish()
			log.Debugf("[%s] person %s last location updated to %+v", s.clock, p.ID, update.Location)
		}
	}

	s.schedulePersonMove(ctx, timestamp)

	if s.nextReflectionAt < 0 {
		s.nextReflectionAt = timestamp + s.cfg.ReflectInterval
	} else if timestamp >= s.nextReflectionAt {
		log.Infof("[%s] reflecting the state of the world", s.clock)
		s.reflectAll(ctx, timestamp)
		s.nextReflectionAt = timestamp + s.cfg.ReflectInterval
	}

	if s.cfg.SelfReflect.Enabled {
		interval := float64(s.cfg.SelfReflect.IntervalDays * daySeconds)
		if s.nextSelfReflectionAt < 0 {
			s.nextSelfReflectionAt = timestamp + interval
		} else if timestamp >= s.nextSelfReflectionAt {
			log.Infof("[%s] self reflecting the state of the world", s.clock)
			s.selfReflectAll(ctx, timestamp)
			s.nextSelfReflectionAt = timestamp + interval
		}
	}
	return nil
}

// HasPendingActions 是否有待投递的动作
func (s *Scenario) HasPendingActions() bool {
	s.actionMtx.Lock()
	defer s.actionMtx.Unlock()
	return len(s.actions) > 0
}

// DrainActions 取走并清空全部待投递动作
func (s *Scenario) DrainActions() []*Action {
	s.actionMtx.Lock()
	defer s.actionMtx.Unlock()
	actions := s.actions
	s.actions = nil
	return actions
}

// HandleObservation 处理外部世界回传的观测
// 功能：更新人员位置；到达观测触发迟到改期、结束行程并持久化状态
// 算法说明：
// 1. 未知人员记录警告后忽略
// 2. 到达且有进行中的活动：按策略把迟到换算为前移量，
//    前移量非零时改期该活动
// 3. 到达后结束行程（在途 -> 空闲），落盘改期状态
func (s *Scenario) HandleObservation(ctx context.Context, ob *Observation) {
	p, err := s.world.Persons.GetOrError(ob.PersonID)
	if err != nil {
		log.Warnf("observation for unknown person %s", ob.PersonID)
		return
	}
	p.State.LastLocation = ob.Location
	if ob.EnvObCode != ObCodeArrival {
		log.Debugf("person %s observed <%s> at %+v", p.ID, ob.EnvObCode, ob.Location)
		return
	}

	sched := s.world.Persons.SchedulerFor(p)
	if activity := p.State.CurrentActivity; activity != nil {
		arrival, err := ob.ParseArrival()
		if err != nil {
			log.Errorf("bad arrival observation for person %s: %v", p.ID, err)
		} else if amount := s.rescheduleAmount(arrival.Late()); amount != 0 {
			sched.Reschedule(activity, amount)
		}
	}
	sched.Finish()
	if s.store != nil {
		if err := s.store.Save(s.world.Persons.Persons()); err != nil {
			log.Errorf("failed to save person state: %v", err)
		}
	}
}

// schedulePersonMove 为所有空闲人员做出行决策
// 功能：对每个HeadingTo为空的人员，在信号量准入门内并发执行决策，
// 产生移动动作的人员入队并切换为在途
// 说明：tick内所有任务全部结束后才返回，不暴露半成品状态
func (s *Scenario) schedulePersonMove(ctx context.Context, timestamp float64) {
	idle := s.world.Persons.Idle()

	var wg sync.WaitGroup
	for _, p := range idle {
		wg.Add(1)
		go func(p *person.Person) {
			defer wg.Done()
			if err := s.sem.Acquire(ctx, 1); err != nil {
				log.Errorf("[%s] decision for person %s canceled: %v", s.clock, p.ID, err)
				return
			}
			defer s.sem.Release(1)
			move, reason := s.nextPersonMove(ctx, p, timestamp)
			if move == nil {
				return
			}
			log.Debugf("[%s] person %s is moving to %+v for <%s>: %s",
				s.clock, p.ID, move.TargetLocation, move.Purpose, reason)
			s.actionMtx.Lock()
			s.actions = append(s.actions, &Action{PersonID: p.ID, Move: move})
			s.actionMtx.Unlock()
			s.world.Persons.SchedulerFor(p).StartOn(move.ForActivity)
		}(p)
	}
	wg.Wait()
}

// nextPersonMove 单个人员的出行决策
// 功能：解析到期活动，查询候选行程并选定方案，组装移动动作
// 返回：移动动作与决策理由，无到期活动或决策失败时返回nil
// 算法说明：
// 1. NextDue按当天时刻解析到期活动，没有则该人员本tick不动
// 2. 查询行程源（带缓存），为候选填充目的
// 3. 无候选：合成固定时长的直达方案（步行兜底）
// 4. 有候选：默认取第一个；具备决策能力的人员打乱候选后交给
//    外部决策服务，返回1开始的下标，换算后越界兜底为0，
//    决策服务出错时本tick放弃该人员
// 5. 预计到达时刻取活动开始时刻换算到timestamp所在的那一天
func (s *Scenario) nextPersonMove(ctx context.Context, p *person.Person, timestamp float64) (*trip.PersonMove, string) {
	sched := s.world.Persons.SchedulerFor(p)
	activity := sched.NextDue(math.Mod(timestamp, daySeconds))
	if activity == nil {
		return nil, ""
	}

	from := p.State.LastLocation
	itineraries := s.trips.GetItineraries(ctx, from, activity.Location, timestamp)
	for _, it := range itineraries {
		it.Purpose = activity.Purpose
	}

	var plan *trip.TravelPlan
	var reason string
	if len(itineraries) == 0 {
		log.Debugf("[%s] person %s can't get to %+v by public transport, move anyway",
			s.clock, p.ID, activity.Location)
		plan = &trip.TravelPlan{
			ID:            trip.NewID(),
			StartLocation: from,
			EndLocation:   activity.Location,
			StartTime:     timestamp,
			EndTime:       timestamp + s.cfg.WalkFallback,
			Purpose:       activity.Purpose,
			Legs:          []*trip.TransitLeg{},
		}
		reason = "can't find a suitable public transport plan, walk to the destination anyway"
	} else {
		index := 0
		reason = "hard to choose, just pick the first one"
		if p.DecisionCapable && s.decision != nil {
			s.engine.ShuffleSafe(len(itineraries), func(i, j int) {
				itineraries[i], itineraries[j] = itineraries[j], itineraries[i]
			})
			chosen, why, err := s.decision.ChoosePlan(ctx, DecisionContext{
				Person:     p,
				ActivityID: activity.ID,
				Timestamp:  timestamp,
			}, itineraries)
			if err != nil {
				log.Errorf("[%s] decision failed for person %s: %v", s.clock, p.ID, err)
				return nil, ""
			}
			index = chosen - 1
			if index < 0 || index >= len(itineraries) {
				log.Debugf("[%s] invalid plan index %d for person %s, fallback to the first one",
					s.clock, chosen, p.ID)
				index = 0
			} else {
				reason = why
			}
		}
		plan = itineraries[index]
		plan.Purpose = activity.Purpose
	}

	return &trip.PersonMove{
		ID:               trip.NewID(),
		PersonID:         p.ID,
		CurrentTime:      timestamp,
		ExpectedArriveAt: toTimestampBasedOnDay(activity.StartTime, timestamp),
		Purpose:          activity.Purpose,
		TargetLocation:   activity.Location,
		ForActivity:      activity,
		Plan:             plan,
	}, reason
}

// reflectAll 对空闲且具备决策能力的人员执行一轮回顾
func (s *Scenario) reflectAll(ctx context.Context, timestamp float64) {
	if s.decision == nil {
		return
	}
	idle := lo.Filter(s.world.Persons.Idle(), func(p *person.Person, _ int) bool {
		return p.DecisionCapable
	})
	s.forEachGated(ctx, idle, func(p *person.Person) {
		if err := s.decision.Reflect(ctx, timestamp, p); err != nil {
			log.Errorf("[%s] reflect failed for person %s: %v", s.clock, p.ID, err)
		}
	})
}

// selfReflectAll 对全部人员执行一轮长周期回顾
// 说明：回顾窗口从N天前那一天的零点开始
func (s *Scenario) selfReflectAll(ctx context.Context, timestamp float64) {
	if s.decision == nil {
		return
	}
	fromTime := math.Floor((timestamp-float64(s.cfg.SelfReflect.WindowDays*daySeconds))/daySeconds) * daySeconds
	s.forEachGated(ctx, s.world.Persons.Persons(), func(p *person.Person) {
		if err := s.decision.SelfReflect(ctx, timestamp, fromTime, p); err != nil {
			log.Errorf("[%s] self reflect failed for person %s: %v", s.clock, p.ID, err)
		}
	})
}

// forEachGated 在信号量准入门内并发处理一批人员
func (s *Scenario) forEachGated(ctx context.Context, persons []*person.Person, f func(p *person.Person)) {
	var wg sync.WaitGroup
	for _, p := range persons {
		wg.Add(1)
		go func(p *person.Person) {
			defer wg.Done()
			if err := s.sem.Acquire(ctx, 1); err != nil {
				return
			}
			defer s.sem.Release(1)
			f(p)
		}(p)
	}
	wg.Wait()
}

// toTimestampBasedOnDay 把当天时刻换算为绝对时间戳
// 参数：target-当天时刻（秒，可超过24h表示次日），based-参照的绝对时间戳
func toTimestampBasedOnDay(target, based float64) float64 {
	return math.Floor(based/daySeconds)*daySeconds + target
}

package person

import (
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/agentmobility-oss/utils/geo"
)

const (
	daySeconds = 24 * 3600

	// 公共交通开始运营的时刻，改期下界的兜底值
	serviceOpeningTime = 4.5 * 3600
	// 一天结束前的缓冲，改期上界的兜底值
	endOfDayBuffer = 30 * 60
)

// Scheduler 单人活动调度器
// 功能：在人员的有序活动列表上运行的小状态机，
// 状态由State字段闭合表达：空闲无活动（HeadingTo空、无到期活动）、
// 空闲有活动到期（NextDue返回非nil）、在途（HeadingTo非空）
// 说明：所有转移只修改所属人员自己的状态，无跨人员竞争
type Scheduler struct {
	person   *Person
	leadTime float64 // 出发提前量（秒），惰性初始化ScheduledStartTime时使用
}

// NewScheduler 创建活动调度器
func NewScheduler(p *Person, leadTime float64) *Scheduler {
	return &Scheduler{person: p, leadTime: leadTime}
}

// Activity 根据ID查找活动
func (s *Scheduler) Activity(activityID string) *Activity {
	a, _ := lo.Find(s.person.Identity.Activities, func(a *Activity) bool {
		return a.ID == activityID
	})
	return a
}

// NextDue 解析当前到期的活动
// 功能：按顺序扫描活动列表，返回出发触发时刻已到且未被后续活动取代的活动
// 参数：timeOfDay-当天时刻（秒）
// 返回：到期活动，没有则返回nil
// 算法说明：
// 1. 跳过StartTime<0的无效活动
// 2. 惰性初始化ScheduledStartTime = StartTime - leadTime
// 3. 若候选活动的窗口落在次日（触发时刻或下一活动的开始时刻超过24h），
//    给当前时刻加上一天再比较，处理跨午夜回绕
// 4. 触发时刻<=当前时刻，且下一活动尚未开始时选中
// 5. 选中活动等于LastActivityIndex时返回nil，防止同一活动在一天内被重复触发
func (s *Scheduler) NextDue(timeOfDay float64) *Activity {
	activities := s.person.Identity.Activities
	if len(activities) == 0 {
		log.Panicf("scheduler: person %s has empty activity list", s.person.ID)
	}

	t := timeOfDay
	var selected *Activity
	selectedIndex := -1
	for i, activity := range activities {
		var next *Activity
		if i+1 < len(activities) {
			next = activities[i+1]
		}
		if activity.StartTime < 0 {
			continue
		}
		if !activity.Scheduled() {
			activity.ScheduledStartTime = activity.StartTime - s.leadTime
		}
		startJourneyTime := activity.ScheduledStartTime
		nextStartTime := float64(UnsetTime)
		if next != nil {
			nextStartTime = next.StartTime
		}

		if startJourneyTime > daySeconds || nextStartTime > daySeconds {
			t += daySeconds
		}
		if startJourneyTime > 0 && startJourneyTime <= t &&
			(next == nil || nextStartTime == UnsetTime || t <= nextStartTime) {
			selected = activity
			selectedIndex = i
			break
		}
	}

	// 同一活动不再重复触发
	if selected != nil && selectedIndex == s.person.State.LastActivityIndex {
		return nil
	}
	return selected
}

// StartOn 启程前往活动
// 功能：空闲有活动到期 -> 在途
func (s *Scheduler) StartOn(activity *Activity) {
	state := &s.person.State
	state.HeadingTo = activity.Purpose
	state.LastActivityIndex = s.indexOf(activity)
	state.CurrentActivity = activity
}

// Finish 结束当前行程
// 功能：在途 -> 空闲无活动
func (s *Scheduler) Finish() {
	state := &s.person.State
	state.CurrentActivity = nil
	state.HeadingTo = ""
}

// Reschedule 根据到达反馈改期
// 功能：将活动的出发触发时刻前移delta秒，并夹在相邻活动的触发时刻之间
// 参数：activity-被改期的活动，delta-前移量（秒），正值表示提前出发
// 算法说明：
// 1. 下界：前一活动触发时刻+1（未设置触发时刻则退回其开始时刻+1），
//    没有前一活动则取运营开始时刻
// 2. 上界：后一活动触发时刻-1（未设置触发时刻则退回其开始时刻-1），
//    没有后一活动则取一天结束前的缓冲
// 3. 新触发时刻 = clamp(原触发时刻 - delta, 下界, 上界)
func (s *Scheduler) Reschedule(activity *Activity, delta float64) {
	activities := s.person.Identity.Activities
	idx := s.indexOf(activity)

	minTime := serviceOpeningTime
	if idx > 0 {
		prev := activities[idx-1]
		if prev.Scheduled() {
			minTime = prev.ScheduledStartTime + 1
		} else {
			minTime = prev.StartTime + 1
		}
	}
	maxTime := float64(daySeconds) - endOfDayBuffer
	if idx+1 < len(activities) {
		next := activities[idx+1]
		if next.Scheduled() {
			maxTime = next.ScheduledStartTime - 1
		} else {
			maxTime = next.StartTime - 1
		}
	}

	newTime := max(minTime, activity.ScheduledStartTime-delta)
	newTime = min(newTime, maxTime)
	log.Debugf("scheduler: person %s activity <%s> rescheduled %v -> %v (delta %v)",
		s.person.ID, activity.Purpose, activity.ScheduledStartTime, newTime, delta)
	activity.ScheduledStartTime = newTime
}

// ResetDay 跨天重置
// 功能：清除重复触发保护，供按天重启的外部驱动使用
// 说明：LastActivityIndex在一天内只增不减，跨天时由驱动决定是否重置
func (s *Scheduler) ResetDay() {
	s.person.State.LastActivityIndex = -1
}

// HomeLocation 获取家的位置
func (s *Scheduler) HomeLocation() *geo.Location {
	return s.person.Identity.Home
}

// indexOf 活动在列表中的下标
// 说明：活动不属于该人员视为编程错误
func (s *Scheduler) indexOf(activity *Activity) int {
	_, idx, ok := lo.FindIndexOf(s.person.Identity.Activities, func(a *Activity) bool {
		return a == activity
	})
	if !ok {
		log.Panicf("scheduler: activity %s not owned by person %s", activity.ID, s.person.ID)
	}
	return idx
}

package person_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/agentmobility-oss/entity/person"
	"github.com/tsinghua-fib-lab/agentmobility-oss/utils/geo"
)

func newActivity(id, purpose string, startTime float64) *person.Activity {
	return &person.Activity{
		ID:                 id,
		Purpose:            purpose,
		StartTime:          startTime,
		EndTime:            startTime + 3600,
		ScheduledStartTime: person.UnsetTime,
		Location:           geo.Location{Lon: 116.5, Lat: 40.0},
	}
}

func newTestPerson(activities ...*person.Activity) *person.Person {
	return &person.Person{
		ID: "p1",
		Identity: person.Identity{
			Name:       "tester",
			Activities: activities,
		},
		State: person.State{LastActivityIndex: -1},
	}
}

func TestNextDueLazySchedule(t *testing.T) {
	work := newActivity("a2", "work", 28800)
	p := newTestPerson(newActivity("a1", "home", 0), work)
	s := person.NewScheduler(p, 600)

	assert.Nil(t, s.NextDue(10000))
	// 惰性初始化：出发触发时刻 = 开始时刻 - 提前量
	assert.Equal(t, 28200.0, work.ScheduledStartTime)

	got := s.NextDue(28800)
	assert.Equal(t, work, got)
}

func TestNextDueRepeatGuard(t *testing.T) {
	work := newActivity("a1", "work", 28800)
	p := newTestPerson(work)
	s := person.NewScheduler(p, 0)

	// 两次解析返回同一活动
	assert.Equal(t, work, s.NextDue(28800))
	assert.Equal(t, work, s.NextDue(28900))

	s.StartOn(work)
	assert.Equal(t, "work", p.State.HeadingTo)
	assert.Equal(t, 0, p.State.LastActivityIndex)

	s.Finish()
	assert.Empty(t, p.State.HeadingTo)
	assert.Nil(t, p.State.CurrentActivity)
	// 同一活动在一天内不再重复触发
	assert.Nil(t, s.NextDue(29000))
}

func TestNextDueWraparound(t *testing.T) {
	// 次日凌晨1点的活动（25:00）
	sleep := newActivity("a1", "sleep", 90000)
	p := newTestPerson(sleep)
	s := person.NewScheduler(p, 0)

	assert.Nil(t, s.NextDue(3000))
	assert.Equal(t, sleep, s.NextDue(4000))
}

func TestNextDueMonotonicIndex(t *testing.T) {
	a := newActivity("a1", "work", 28800)
	b := newActivity("a2", "shop", 36000)
	p := newTestPerson(a, b)
	s := person.NewScheduler(p, 0)

	s.StartOn(s.NextDue(28800))
	last := p.State.LastActivityIndex
	s.Finish()
	s.StartOn(s.NextDue(36001))
	assert.GreaterOrEqual(t, p.State.LastActivityIndex, last)
}

func TestRescheduleBounds(t *testing.T) {
	a := newActivity("a1", "home", 21600)
	b := newActivity("a2", "work", 28800)
	c := newActivity("a3", "shop", 36000)
	p := newTestPerson(a, b, c)
	s := person.NewScheduler(p, 0)
	a.ScheduledStartTime = 21600
	b.ScheduledStartTime = 28800
	c.ScheduledStartTime = 36000

	// 正向前移
	s.Reschedule(b, 600)
	assert.Equal(t, 28200.0, b.ScheduledStartTime)

	// 下界：前一活动触发时刻+1
	s.Reschedule(b, 1e6)
	assert.Equal(t, 21601.0, b.ScheduledStartTime)

	// 负前移量表示推后
	b.ScheduledStartTime = 28800
	s.Reschedule(b, -600)
	assert.Equal(t, 29400.0, b.ScheduledStartTime)

	// 上界：后一活动触发时刻-1
	s.Reschedule(b, -1e6)
	assert.Equal(t, 35999.0, b.ScheduledStartTime)
}

func TestRescheduleUnscheduledNeighborBounds(t *testing.T) {
	a := newActivity("a1", "home", 21600)
	b := newActivity("a2", "work", 28800)
	c := newActivity("a3", "shop", 36000)
	p := newTestPerson(a, b, c)
	s := person.NewScheduler(p, 0)
	b.ScheduledStartTime = 28800

	// 前一活动未设置触发时刻时下界退回其开始时刻+1
	s.Reschedule(b, 1e6)
	assert.Equal(t, 21601.0, b.ScheduledStartTime)

	// 后一活动未设置触发时刻时上界退回其开始时刻-1
	b.ScheduledStartTime = 28800
	s.Reschedule(b, -1e6)
	assert.Equal(t, 35999.0, b.ScheduledStartTime)
}

func TestRescheduleDefaultBounds(t *testing.T) {
	b := newActivity("a1", "work", 28800)
	p := newTestPerson(b)
	s := person.NewScheduler(p, 0)
	b.ScheduledStartTime = 28800

	// 没有前一活动时下界为运营开始时刻
	s.Reschedule(b, 1e6)
	assert.Equal(t, 4.5*3600, b.ScheduledStartTime)

	// 没有后一活动时上界为一天结束前的缓冲
	s.Reschedule(b, -1e6)
	assert.Equal(t, 24*3600-30*60.0, b.ScheduledStartTime)
}

func TestResetDay(t *testing.T) {
	work := newActivity("a1", "work", 28800)
	p := newTestPerson(work)
	s := person.NewScheduler(p, 0)

	s.StartOn(s.NextDue(28800))
	s.Finish()
	assert.Nil(t, s.NextDue(29000))

	s.ResetDay()
	assert.Equal(t, work, s.NextDue(29000))
}

func TestManager(t *testing.T) {
	p1 := newTestPerson(newActivity("a1", "work", 28800))
	p2 := &person.Person{
		ID: "p2",
		Identity: person.Identity{
			Activities: []*person.Activity{newActivity("b1", "shop", 36000)},
		},
	}
	m := person.NewManager([]*person.Person{p1, p2}, 0)

	assert.Equal(t, p1, m.Get("p1"))
	_, err := m.GetOrError("nobody")
	assert.Error(t, err)
	assert.Len(t, m.Idle(), 2)

	m.SchedulerFor(p1).StartOn(p1.Identity.Activities[0])
	assert.Len(t, m.Idle(), 1)
}

func TestManagerRejectsBadData(t *testing.T) {
	assert.Panics(t, func() {
		person.NewManager([]*person.Person{newTestPerson()}, 0)
	})
	assert.Panics(t, func() {
		person.NewManager([]*person.Person{newTestPerson(
			newActivity("a1", "work", 36000),
			newActivity("a2", "shop", 28800),
		)}, 0)
	})
}

package person

import (
	"fmt"

	"git.fiblab.net/general/common/v2/parallel"
	"github.com/samber/lo"
)

// Manager Person管理器
// 功能：管理所有Person实体，提供查找、调度器获取与空闲人员筛选
type Manager struct {
	data     map[string]*Person
	persons  []*Person
	leadTime float64
}

// NewManager 创建Person管理器实例
// 功能：根据装载完成的人口数据初始化管理器，校验活动列表
// 参数：persons-人口数据，leadTime-出发提前量（秒）
// 说明：活动列表为空或未按StartTime升序视为数据装载缺陷，直接panic
func NewManager(persons []*Person, leadTime float64) *Manager {
	parallel.GoFor(persons, func(p *Person) {
		activities := p.Identity.Activities
		if len(activities) == 0 {
			log.Panicf("person %s has empty activity list", p.ID)
		}
		for i := 1; i < len(activities); i++ {
			if activities[i].StartTime < activities[i-1].StartTime {
				log.Panicf("person %s activities not sorted by start time", p.ID)
			}
		}
		p.State.LastActivityIndex = -1
	})
	m := &Manager{
		data: lo.SliceToMap(persons, func(p *Person) (string, *Person) {
			return p.ID, p
		}),
		persons:  persons,
		leadTime: leadTime,
	}
	if len(m.data) != len(persons) {
		log.Panic("duplicate person id in population")
	}
	log.Infof("person manager: %d persons loaded (%d decision capable)",
		len(persons), lo.CountBy(persons, func(p *Person) bool { return p.DecisionCapable }))
	return m
}

// Get 根据ID获取Person实例
// 说明：不存在则panic，调用方必须保证ID有效
func (m *Manager) Get(id string) *Person {
	p, ok := m.data[id]
	if !ok {
		log.Panicf("no id %s in person data", id)
	}
	return p
}

// GetOrError 根据ID获取Person实例（带错误处理）
func (m *Manager) GetOrError(id string) (*Person, error) {
	if p, ok := m.data[id]; !ok {
		return nil, fmt.Errorf("no id %s in person data", id)
	} else {
		return p, nil
	}
}

// Persons 获取全部人员
func (m *Manager) Persons() []*Person {
	return m.persons
}

// Idle 获取当前空闲（未在途）的人员
func (m *Manager) Idle() []*Person {
	return lo.Filter(m.persons, func(p *Person, _ int) bool {
		return p.State.Idle()
	})
}

// SchedulerFor 获取人员的默认活动调度器
func (m *Manager) SchedulerFor(p *Person) *Scheduler {
	return NewScheduler(p, m.leadTime)
}

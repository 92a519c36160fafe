package person

import (
	"github.com/tsinghua-fib-lab/agentmobility-oss/utils/geo"
)

// Identity 个人身份信息
// 功能：保存人员的静态属性，包括姓名、画像与活动列表
type Identity struct {
	Name       string                 `json:"name" bson:"name"`
	Traits     map[string]interface{} `json:"traits_json,omitempty" bson:"traits_json,omitempty"` // 画像（外部决策服务使用的自由格式）
	Home       *geo.Location          `json:"home,omitempty" bson:"home,omitempty"`
	Activities []*Activity            `json:"activities" bson:"activities"` // 按StartTime升序排列，装载后顺序不变
}

// State 人员运行时状态
// 功能：保存人员的可变状态，仅由处理该人员的tick任务修改
type State struct {
	LastLocation      geo.Location `json:"last_location"`       // 最近一次观测到的位置
	LastActivityIndex int          `json:"last_activity_index"` // 最近完成（或启程）的活动下标，-1表示没有
	CurrentActivity   *Activity    `json:"-"`                   // 进行中的活动
	HeadingTo         string       `json:"heading_to,omitempty"` // 目标活动purpose，非空表示在途、不可调度
}

// Idle 判断人员是否空闲（未在途）
func (s *State) Idle() bool {
	return s.HeadingTo == ""
}

// Person 仿真人员
// 功能：一个具有活动列表与可变状态的移动agent
type Person struct {
	ID              string   `json:"person_id" bson:"person_id"`
	Identity        Identity `json:"identity" bson:"identity"`
	State           State    `json:"state"`
	DecisionCapable bool     `json:"is_decision_capable" bson:"is_decision_capable"` // 是否调用外部决策服务选择方案
}

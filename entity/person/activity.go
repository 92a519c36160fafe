package person

import (
	"github.com/tsinghua-fib-lab/agentmobility-oss/utils/geo"
)

// UnsetTime 表示时间字段未设置
const UnsetTime = -1

// Activity 计划活动
// 功能：描述人员一天中的一次目的地访问（家、工作、购物等）
// 说明：StartTime/EndTime是观测到的目标时间窗（当天秒数，可能超过24h表示次日），
// ScheduledStartTime是实际的出发触发时刻，首次调度时惰性初始化为StartTime-leadTime，
// 此后只能由改期操作移动
type Activity struct {
	ID                 string       `json:"id" bson:"id"`
	Purpose            string       `json:"purpose" bson:"purpose"`
	StartTime          float64      `json:"start_time" bson:"start_time"`
	EndTime            float64      `json:"end_time" bson:"end_time"`
	ScheduledStartTime float64      `json:"scheduled_start_time" bson:"scheduled_start_time,omitempty"`
	Location           geo.Location `json:"location" bson:"location"`
}

// Scheduled 判断出发触发时刻是否已初始化
func (a *Activity) Scheduled() bool {
	return a.ScheduledStartTime != UnsetTime
}

package scenario

import (
	"context"

	"github.com/tsinghua-fib-lab/agentmobility-oss/entity/person"
	"github.com/tsinghua-fib-lab/agentmobility-oss/trip"
)

// DecisionContext 一次决策调用的上下文
// 功能：把人员、关联活动与时刻打包传给外部决策服务
type DecisionContext struct {
	Person     *person.Person
	ActivityID string
	Timestamp  float64
}

// DecisionMaker 外部决策服务的接口
// 功能：在候选行程中做选择，并承担周期性回顾
// 说明：实现可能很慢且不确定，调用方只把它当作不透明的排序函数；
// ChoosePlan返回的下标按外部约定从1开始，调用方负责换算与越界兜底
type DecisionMaker interface {
	// ChoosePlan 在候选行程中选择一个
	// 返回：1开始的下标与选择理由
	ChoosePlan(ctx context.Context, dc DecisionContext, options []*trip.TravelPlan) (int, string, error)
	// Reflect 短周期回顾，对单个空闲人员执行
	Reflect(ctx context.Context, timestamp float64, p *person.Person) error
	// SelfReflect 长周期回顾，回看fromTime起的经历
	SelfReflect(ctx context.Context, timestamp, fromTime float64, p *person.Person) error
}

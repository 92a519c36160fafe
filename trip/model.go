package trip

import (
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/agentmobility-oss/entity/person"
	"github.com/tsinghua-fib-lab/agentmobility-oss/utils/geo"
)

// StopLocation 带站点标识的位置
type StopLocation struct {
	geo.Location `json:",inline"`
	Stop         string `json:"stop,omitempty"` // 站点名称，步行段可为空
}

// TransitLeg 行程分段
// 功能：行程中的一段，乘车段或步行换乘段
type TransitLeg struct {
	StartTime     float64      `json:"start_time"`
	EndTime       float64      `json:"end_time"`
	StartLocation StopLocation `json:"start_location"`
	EndLocation   StopLocation `json:"end_location"`
	IsTransfer    bool         `json:"is_transfer,omitempty"` // true表示步行换乘段
	Route         string       `json:"transit_route,omitempty"`
	Mode          string       `json:"mode,omitempty"`
	Distance      float64      `json:"distance,omitempty"`
}

// Duration 分段时长（秒）
func (l *TransitLeg) Duration() float64 {
	return l.EndTime - l.StartTime
}

// Code 分段的内容签名
// 功能：以(线路, 起点站, 终点站)标识一个乘车段，用于行程去重与环路检测
func (l *TransitLeg) Code() string {
	return l.Route + "^" + l.StartLocation.Stop + "^" + l.EndLocation.Stop
}

// TravelPlan 出行方案
// 功能：两点之间某一时刻出发的一个候选行程，由有序分段组成
type TravelPlan struct {
	ID            string        `json:"id"`
	StartLocation geo.Location  `json:"start_location"`
	EndLocation   geo.Location  `json:"end_location"`
	StartTime     float64       `json:"start_time"`
	EndTime       float64       `json:"end_time"`
	Purpose       string        `json:"purpose,omitempty"`
	Legs          []*TransitLeg `json:"legs"`
}

// Transits 获取全部乘车段（过滤步行换乘段）
func (p *TravelPlan) Transits() []*TransitLeg {
	return lo.Filter(p.Legs, func(l *TransitLeg, _ int) bool {
		return !l.IsTransfer
	})
}

// Code 方案的内容签名
// 功能：拼接所有乘车段的签名，内容相同的方案签名一致
func (p *TravelPlan) Code() string {
	return strings.Join(lo.Map(p.Transits(), func(l *TransitLeg, _ int) string {
		return l.Code()
	}), "+")
}

// IsCircular 判断方案是否存在环路
// 功能：同一(线路, 起点站, 终点站)出现两次视为环路
func (p *TravelPlan) IsCircular() bool {
	transits := p.Transits()
	codes := lo.Map(transits, func(l *TransitLeg, _ int) string { return l.Code() })
	return len(lo.Uniq(codes)) < len(transits)
}

// Shift 整体平移时间
// 功能：将方案的起止时间与所有分段的起止时间平移dt秒
func (p *TravelPlan) Shift(dt float64) {
	p.StartTime += dt
	p.EndTime += dt
	for _, leg := range p.Legs {
		leg.StartTime += dt
		leg.EndTime += dt
	}
}

// Clone 深拷贝方案
// 说明：缓存中的方案在返回前需要按请求重锚定，拷贝避免并发修改共享快照
func (p *TravelPlan) Clone() *TravelPlan {
	clone := *p
	clone.Legs = lo.Map(p.Legs, func(l *TransitLeg, _ int) *TransitLeg {
		leg := *l
		return &leg
	})
	return &clone
}

// Unique 方案去重
// 功能：按内容签名去重，保留首次出现的方案
func Unique(plans []*TravelPlan) []*TravelPlan {
	return lo.UniqBy(plans, func(p *TravelPlan) string { return p.Code() })
}

// NewID 生成方案/动作的唯一标识
func NewID() string {
	return uuid.NewString()
}

// PersonMove 移动动作
// 功能：一次已决策的出行：谁、何时、为了哪个活动、按哪个方案移动
type PersonMove struct {
	ID                   string           `json:"id"`
	PersonID             string           `json:"person_id"`
	CurrentTime          float64          `json:"current_time"`
	ExpectedArriveAt     float64          `json:"expected_arrive_at"`
	PrepareBeforeSeconds float64          `json:"prepare_before_seconds"`
	Purpose              string           `json:"purpose,omitempty"`
	TargetLocation       geo.Location     `json:"target_location"`
	ForActivity          *person.Activity `json:"for_activity,omitempty"`
	Plan                 *TravelPlan      `json:"plan,omitempty"`
}

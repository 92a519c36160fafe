package scenario

import (
	"encoding/json"

	"github.com/tsinghua-fib-lab/agentmobility-oss/utils/geo"
)

// 观测类型编码
const (
	ObCodeArrival = "arrival"
)

// Observation 外部世界对单个人员的观测
// 功能：承载外部世界回传的事件：到达、途中换乘等
type Observation struct {
	PersonID   string          `json:"person_id"`
	ActivityID string          `json:"activity_id,omitempty"`
	Timestamp  float64         `json:"timestamp"`
	Location   geo.Location    `json:"location"`
	EnvObCode  string          `json:"env_ob_code"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// Arrival 到达观测的数据体
type Arrival struct {
	ExpectedArriveAt     float64 `json:"expected_arrive_at"`
	ArriveAt             float64 `json:"arrive_at"`
	PrepareBeforeSeconds float64 `json:"prepare_before_seconds,omitempty"`
	Purpose              string  `json:"purpose,omitempty"`
	Duration             float64 `json:"duration,omitempty"`
	PlanDuration         float64 `json:"plan_duration,omitempty"`
	MovingID             string  `json:"moving_id,omitempty"`
}

// Late 迟到秒数
// 说明：提前到达按0计，改期策略只响应迟到
func (a *Arrival) Late() float64 {
	return max(0, a.ArriveAt-a.ExpectedArriveAt)
}

// ParseArrival 解析到达观测的数据体
func (ob *Observation) ParseArrival() (*Arrival, error) {
	var a Arrival
	if err := json.Unmarshal(ob.Data, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

package scenario

import (
	"github.com/tsinghua-fib-lab/agentmobility-oss/utils/config"
)

// rescheduleFunc 改期量计算函数
// 参数：late-迟到秒数
// 返回：出发触发时刻的前移量（秒），迟到<=0时为0
type rescheduleFunc func(late float64) float64

// newRescheduleFunc 根据配置选择改期策略
// 功能：version=2使用二次策略，其余使用线性策略
// 算法说明：
// 线性：amount = min(late * ratio, maxAdjust)
// 二次：amount = min(k * 迟到分钟数^2 * 60, maxAdjust)，
// 大迟到的前移量超线性增长，小迟到几乎不动
func newRescheduleFunc(c config.Reschedule) rescheduleFunc {
	if c.Version == 2 {
		log.Info("using reschedule amount function version v2")
		return func(late float64) float64 {
			if late <= 0 {
				return 0
			}
			lateMinutes := late / 60
			return min(c.K*lateMinutes*lateMinutes*60, c.MaxAdjust)
		}
	}
	log.Info("using reschedule amount function version v1")
	return func(late float64) float64 {
		if late <= 0 {
			return 0
		}
		return min(late*c.Ratio, c.MaxAdjust)
	}
}

package clock

import "fmt"

const daySeconds = 24 * 3600

// Clock 仿真时钟
// 功能：记录由外部tick驱动的仿真时间，提供天数与当天时刻的拆分
// 说明：本服务不自行推进时间，时间戳随Sync调用从外部世界同步进来
type Clock struct {
	DT float64 // 外部每个tick的期望时间间隔（秒），仅用于日志与统计

	T float64 // 当前绝对时间戳（秒）
}

// New 创建时钟实例
// 参数：interval-外部tick的时间间隔（秒）
func New(interval float64) *Clock {
	return &Clock{DT: interval}
}

// Update 同步外部时间戳
// 说明：时间戳回退说明外部驱动异常，记录警告但仍然接受
func (c *Clock) Update(timestamp float64) {
	if timestamp < c.T {
		log.Warnf("clock moved backwards: %v -> %v", c.T, timestamp)
	}
	c.T = timestamp
}

// Day 当前仿真天数（从0开始）
func (c *Clock) Day() int {
	return int(c.T) / daySeconds
}

// TimeOfDay 当天时刻（秒）
func (c *Clock) TimeOfDay() float64 {
	return c.T - float64(c.Day()*daySeconds)
}

// String 获取时钟的字符串表示
// 返回：格式化的时间字符串（Day X HH:MM:SS）
func (c *Clock) String() string {
	t := c.TimeOfDay()
	h := int(t / 3600)
	t -= float64(h * 3600)
	m := int(t / 60)
	t -= float64(m * 60)
	return fmt.Sprintf("Day %d %02d:%02d:%02d", c.Day(), h, m, int(t))
}

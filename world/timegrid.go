package world

import (
	"fmt"
	"math"
)

// 一天的秒数
const daySeconds = 24 * 3600

// TimeGrid 时间网格
// 功能：将一天内的时刻映射到离散时间槽，作为行程缓存键的时间分量
type TimeGrid struct {
	slotDuration float64 // 时间槽长度（秒）
	slots        int     // 一天内的时间槽数量
}

// NewTimeGrid 创建时间网格
// 参数：slotDuration-时间槽长度（秒）
func NewTimeGrid(slotDuration float64) *TimeGrid {
	if slotDuration <= 0 {
		log.Panicf("time grid: invalid slot duration %v", slotDuration)
	}
	return &TimeGrid{
		slotDuration: slotDuration,
		slots:        int(math.Ceil(daySeconds / slotDuration)),
	}
}

// Slot 计算时刻所在的时间槽
// 功能：将时刻（秒）离散化为一天内的时间槽下标
// 说明：对一天的槽数取模，跨天时刻落回当天同一槽
func (t *TimeGrid) Slot(time float64) int {
	return int(time/t.slotDuration) % t.slots
}

// SlotDuration 获取时间槽长度（秒）
func (t *TimeGrid) SlotDuration() float64 {
	return t.slotDuration
}

// SlotText 时间槽的可读表示
// 功能：将时间槽渲染为"HH:MM - HH:MM"的时间范围
func (t *TimeGrid) SlotText(slot int) string {
	startFrom := float64(slot) * t.slotDuration
	endTo := float64(slot+1) * t.slotDuration
	return fmt.Sprintf("%02d:%02d - %02d:%02d",
		int(startFrom)/3600, int(startFrom)%3600/60,
		int(endTo)/3600, int(endTo)%3600/60)
}

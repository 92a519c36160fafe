// 世界模型，聚合空间网格、时间网格与人口
package world

import (
	"github.com/tsinghua-fib-lab/agentmobility-oss/entity/person"
	"github.com/tsinghua-fib-lab/agentmobility-oss/utils/geo"
)

// World 世界模型
// 功能：聚合仿真世界的静态描述：包围盒、空间/时间离散化与人口
type World struct {
	BBox    geo.BBox        // 世界包围盒
	Grid    *WorldGrid      // 空间网格
	Time    *TimeGrid       // 时间网格
	Persons *person.Manager // 人口
}

// New 创建世界模型
func New(bbox geo.BBox, gridSize, timeSlot float64, persons *person.Manager) *World {
	return &World{
		BBox:    bbox,
		Grid:    NewWorldGrid(bbox, gridSize),
		Time:    NewTimeGrid(timeSlot),
		Persons: persons,
	}
}

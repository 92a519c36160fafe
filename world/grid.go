package world

import (
	"math"

	"github.com/tsinghua-fib-lab/agentmobility-oss/utils/geo"
)

// WorldGrid 空间网格
// 功能：将地理坐标映射到离散网格单元，作为行程缓存键的空间分量
// 说明：在Web墨卡托平面坐标系中按固定边长切分包围盒
type WorldGrid struct {
	gridSize               float64 // 网格边长（米）
	minX, minY, maxX, maxY float64 // 投影后的包围盒
	xCells, yCells         int     // 网格数量
}

// NewWorldGrid 创建空间网格
// 功能：根据包围盒与网格边长初始化网格
// 参数：bbox-世界包围盒，gridSize-网格边长（米）
// 返回：初始化完成的网格实例
func NewWorldGrid(bbox geo.BBox, gridSize float64) *WorldGrid {
	if bbox.Empty() {
		log.Panic("world grid: empty bbox")
	}
	if gridSize <= 0 {
		log.Panicf("world grid: invalid grid size %v", gridSize)
	}
	x1, y1 := geo.Project(geo.Location{Lon: bbox.MinLon, Lat: bbox.MinLat})
	x2, y2 := geo.Project(geo.Location{Lon: bbox.MaxLon, Lat: bbox.MaxLat})
	return &WorldGrid{
		gridSize: gridSize,
		minX:     x1, minY: y1, maxX: x2, maxY: y2,
		xCells: int(math.Ceil((x2 - x1) / gridSize)),
		yCells: int(math.Ceil((y2 - y1) / gridSize)),
	}
}

// Contains 判断坐标是否位于包围盒内
func (g *WorldGrid) Contains(loc geo.Location) bool {
	x, y := geo.Project(loc)
	return g.minX <= x && x <= g.maxX && g.minY <= y && y <= g.maxY
}

// Cell 计算坐标所在的网格单元
// 功能：将地理坐标离散化为(x, y)网格下标
// 参数：loc-经纬度坐标
// 返回：x、y网格下标
// 说明：坐标超出包围盒视为上游数据装载缺陷，直接panic
func (g *WorldGrid) Cell(loc geo.Location) (int, int) {
	x, y := geo.Project(loc)
	if x < g.minX || x > g.maxX || y < g.minY || y > g.maxY {
		log.Panicf("world grid: location %+v outside bbox", loc)
	}
	return int((x - g.minX) / g.gridSize), int((y - g.minY) / g.gridSize)
}

// Size 获取网格数量
// 返回：x、y方向的网格数量
func (g *WorldGrid) Size() (int, int) {
	return g.xCells, g.yCells
}

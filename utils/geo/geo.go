// 地理基础类型与投影工具，提供WGS84到Web墨卡托的坐标换算
package geo

import "math"

// 地球半径（Web墨卡托，EPSG:3857，单位：米）
const earthRadius = 6378137.0

// Location 经纬度坐标
// 功能：表示一个不可变的地理位置（WGS84）
type Location struct {
	Lon float64 `json:"lon" bson:"lon" yaml:"lon"` // 经度
	Lat float64 `json:"lat" bson:"lat" yaml:"lat"` // 纬度
}

// BBox 地理包围盒
// 功能：定义世界范围，用于空间网格索引
type BBox struct {
	MinLon float64 `json:"min_lon" bson:"min_lon" yaml:"min_lon"`
	MinLat float64 `json:"min_lat" bson:"min_lat" yaml:"min_lat"`
	MaxLon float64 `json:"max_lon" bson:"max_lon" yaml:"max_lon"`
	MaxLat float64 `json:"max_lat" bson:"max_lat" yaml:"max_lat"`
}

// Empty 判断包围盒是否未设置
func (b BBox) Empty() bool {
	return b.MinLon == 0 && b.MinLat == 0 && b.MaxLon == 0 && b.MaxLat == 0
}

// Contains 判断坐标是否落在包围盒内
func (b BBox) Contains(loc Location) bool {
	return loc.Lon >= b.MinLon && loc.Lon <= b.MaxLon &&
		loc.Lat >= b.MinLat && loc.Lat <= b.MaxLat
}

// Project 坐标投影
// 功能：将WGS84经纬度投影到Web墨卡托平面坐标（单位：米）
// 参数：loc-经纬度坐标
// 返回：x、y平面坐标
// 说明：网格索引与距离比较都在投影后的平面坐标系中进行
func Project(loc Location) (x, y float64) {
	x = earthRadius * loc.Lon * math.Pi / 180
	y = earthRadius * math.Log(math.Tan(math.Pi/4+loc.Lat*math.Pi/360))
	return
}

// SquareDistance 平面距离平方
// 功能：计算两点投影后的平面距离平方
// 说明：仅用于距离比较，不开方以减少计算量
func SquareDistance(a, b Location) float64 {
	x1, y1 := Project(a)
	x2, y2 := Project(b)
	dx, dy := x1-x2, y1-y2
	return dx*dx + dy*dy
}

package config

import "github.com/tsinghua-fib-lab/agentmobility-oss/utils/geo"

// InputPath 指定输入数据来源的配置（MongoDB、文件系统）
// 功能：定义数据输入路径的配置结构，支持多种数据源
// 说明：文件路径的优先级高于MongoDB
type InputPath struct {
	DB   string `yaml:"db"`             // 数据库名
	Col  string `yaml:"col"`            // 集合名
	File string `yaml:"file,omitempty"` // 文件路径（优先级高于MongoDB）
}

// Input 指定所有输入数据的配置项
// 功能：定义人口数据的来源与抽样参数
type Input struct {
	URI            string     `yaml:"uri"`                       // MongoDB连接字符串
	Person         *InputPath `yaml:"person,omitempty"`          // 人口数据
	MaxPersons     int        `yaml:"max_persons,omitempty"`     // 人口数量上限，0表示不限制
	DecisionAgents int        `yaml:"decision_agents,omitempty"` // 具备外部决策能力的agent数量，0表示全部不具备
	Seed           uint64     `yaml:"seed,omitempty"`            // 抽样随机种子
}

// WorldBBox 世界包围盒配置
type WorldBBox struct {
	MinLon float64 `yaml:"min_lon"`
	MinLat float64 `yaml:"min_lat"`
	MaxLon float64 `yaml:"max_lon"`
	MaxLat float64 `yaml:"max_lat"`
}

// ToBBox 转换为地理包围盒
func (b WorldBBox) ToBBox() geo.BBox {
	return geo.BBox{MinLon: b.MinLon, MinLat: b.MinLat, MaxLon: b.MaxLon, MaxLat: b.MaxLat}
}

// World 世界离散化配置
// 功能：定义空间网格与时间槽的离散化参数
type World struct {
	BBox     WorldBBox `yaml:"bbox"`                // 世界包围盒
	GridSize float64   `yaml:"grid_size,omitempty"` // 空间网格边长（米），默认1000
	TimeSlot float64   `yaml:"time_slot,omitempty"` // 时间槽长度（秒），默认900
}

// TripCache 行程缓存配置
type TripCache struct {
	Enabled          *bool   `yaml:"enabled,omitempty"`           // 是否启用缓存，默认启用
	SizePerCell      int     `yaml:"size_per_cell,omitempty"`     // 每个缓存键的快照数量上限，默认5
	Duration         float64 `yaml:"duration,omitempty"`          // 正缓存失效周期（秒），默认900
	NotfoundDuration float64 `yaml:"notfound_duration,omitempty"` // 负缓存失效周期（秒），默认1800
}

// TripStrategy 行程检索策略配置
// 说明：recursion_depth大于0时启用递归拼接策略，否则使用时间窗扇出策略
type TripStrategy struct {
	RecursionDepth int       `yaml:"recursion_depth,omitempty"` // 递归拼接深度，默认0
	QueryOffsets   []float64 `yaml:"query_offsets,omitempty"`   // 扇出查询时间偏移（分钟），默认[0, 15, -15]
	MaxCandidates  int       `yaml:"max_candidates,omitempty"`  // 候选行程数量上限，默认5
}

// Trip 行程规划配置
type Trip struct {
	PlannerURL   string       `yaml:"planner_url"`             // 外部路径规划服务地址
	MaxTransfers int          `yaml:"max_transfers,omitempty"` // 换乘次数上限，默认5
	Cache        TripCache    `yaml:"cache,omitempty"`         // 缓存配置
	Strategy     TripStrategy `yaml:"strategy,omitempty"`      // 检索策略配置
}

// Reschedule 活动改期策略配置
type Reschedule struct {
	Version   int     `yaml:"version,omitempty"`    // 策略版本：1-线性，2-二次，默认2
	Ratio     float64 `yaml:"ratio,omitempty"`      // 线性策略的迟到转移系数，默认0.75
	K         float64 `yaml:"k,omitempty"`          // 二次策略的系数，默认0.02
	MaxAdjust float64 `yaml:"max_adjust,omitempty"` // 单次调整上限（秒），默认3600
}

// SelfReflect 长周期回顾配置
type SelfReflect struct {
	Enabled      bool `yaml:"enabled,omitempty"`       // 是否启用
	IntervalDays int  `yaml:"interval_days,omitempty"` // 触发周期（天），默认3
	WindowDays   int  `yaml:"window_days,omitempty"`   // 回顾窗口（天），默认5
}

// Agent agent决策相关配置
type Agent struct {
	LeadTime        float64     `yaml:"lead_time,omitempty"`        // 活动开始前的出发提前量（秒），默认0
	MaxConcurrent   int64       `yaml:"max_concurrent,omitempty"`   // 单个tick内并发决策数上限，默认20
	WalkFallback    float64     `yaml:"walk_fallback,omitempty"`    // 无行程时直达方案的固定时长（秒），默认1800
	Reschedule      Reschedule  `yaml:"reschedule,omitempty"`       // 改期策略
	ReflectInterval float64     `yaml:"reflect_interval,omitempty"` // 回顾周期（秒），默认21600
	SelfReflect     SelfReflect `yaml:"self_reflect,omitempty"`     // 长周期回顾
}

// ControlStep 指定tick时间间隔的配置项
type ControlStep struct {
	Interval float64 `yaml:"interval"` // 每个tick的时间间隔（秒）
}

// Control 模拟器控制配置
type Control struct {
	Step ControlStep `yaml:"step"`
}

// Output 输出配置
type Output struct {
	StateFile string `yaml:"state_file,omitempty"` // 活动改期状态的sqlite文件路径，为空则禁用持久化
}

// Config YAML配置文件的根结构
type Config struct {
	Input   Input   `yaml:"input"`            // 输入
	World   World   `yaml:"world"`            // 世界离散化
	Trip    Trip    `yaml:"trip"`             // 行程规划
	Agent   Agent   `yaml:"agent,omitempty"`  // agent决策
	Control Control `yaml:"control"`          // 模拟过程控制
	Output  Output  `yaml:"output,omitempty"` // 输出
}

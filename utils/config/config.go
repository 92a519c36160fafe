package config

// RuntimeConfig 运行时配置
// 功能：在原始YAML配置的基础上补全默认值并完成校验
// 说明：所有组件只读取RuntimeConfig，保证默认值只在一处定义
type RuntimeConfig struct {
	All Config  // 全部配置
	C   Control // 全局控制配置
}

// NewRuntimeConfig 根据配置初始化运行时配置
// 功能：创建运行时配置对象，进行默认值填充和配置校验
// 参数：config-原始配置对象
// 返回：初始化的运行时配置指针
// 算法说明：
// 1. 校验必填项（包围盒、tick间隔）
// 2. 为世界、行程、agent配置填充默认值
// 说明：默认值与原型系统保持一致（网格1km、时间槽15分钟、缓存15/30分钟）
func NewRuntimeConfig(config Config) *RuntimeConfig {
	rc := &RuntimeConfig{}

	if config.World.BBox.ToBBox().Empty() {
		log.Panic("config: world.bbox must be specified")
	}
	if config.Control.Step.Interval <= 0 {
		log.Panic("config: control.step.interval must be positive")
	}

	if config.World.GridSize == 0 {
		config.World.GridSize = 1000
	}
	if config.World.TimeSlot == 0 {
		config.World.TimeSlot = 900
	}

	if config.Trip.MaxTransfers == 0 {
		config.Trip.MaxTransfers = 5
	}
	if config.Trip.Cache.Enabled == nil {
		enabled := true
		config.Trip.Cache.Enabled = &enabled
	}
	if config.Trip.Cache.SizePerCell == 0 {
		config.Trip.Cache.SizePerCell = 5
	}
	if config.Trip.Cache.Duration == 0 {
		config.Trip.Cache.Duration = 900
	}
	if config.Trip.Cache.NotfoundDuration == 0 {
		config.Trip.Cache.NotfoundDuration = 1800
	}
	if len(config.Trip.Strategy.QueryOffsets) == 0 {
		config.Trip.Strategy.QueryOffsets = []float64{0, 15, -15}
	}
	if config.Trip.Strategy.MaxCandidates == 0 {
		config.Trip.Strategy.MaxCandidates = 5
	}

	if config.Agent.MaxConcurrent == 0 {
		config.Agent.MaxConcurrent = 20
	}
	if config.Agent.WalkFallback == 0 {
		config.Agent.WalkFallback = 1800
	}
	if config.Agent.Reschedule.Version == 0 {
		config.Agent.Reschedule.Version = 2
	}
	if config.Agent.Reschedule.Ratio == 0 {
		config.Agent.Reschedule.Ratio = 0.75
	}
	if config.Agent.Reschedule.K == 0 {
		config.Agent.Reschedule.K = 0.02
	}
	if config.Agent.Reschedule.MaxAdjust == 0 {
		config.Agent.Reschedule.MaxAdjust = 3600
	}
	if config.Agent.ReflectInterval == 0 {
		config.Agent.ReflectInterval = 6 * 3600
	}
	if config.Agent.SelfReflect.IntervalDays == 0 {
		config.Agent.SelfReflect.IntervalDays = 3
	}
	if config.Agent.SelfReflect.WindowDays == 0 {
		config.Agent.SelfReflect.WindowDays = 5
	}

	rc.All = config
	rc.C = config.Control

	return rc
}

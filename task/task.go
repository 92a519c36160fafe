// 任务上下文，完成全部组件的装配
package task

import (
	"github.com/tsinghua-fib-lab/agentmobility-oss/clock"
	"github.com/tsinghua-fib-lab/agentmobility-oss/entity/person"
	"github.com/tsinghua-fib-lab/agentmobility-oss/scenario"
	"github.com/tsinghua-fib-lab/agentmobility-oss/server"
	"github.com/tsinghua-fib-lab/agentmobility-oss/statestore"
	"github.com/tsinghua-fib-lab/agentmobility-oss/trip"
	"github.com/tsinghua-fib-lab/agentmobility-oss/utils/config"
	"github.com/tsinghua-fib-lab/agentmobility-oss/utils/input"
	"github.com/tsinghua-fib-lab/agentmobility-oss/utils/randengine"
	"github.com/tsinghua-fib-lab/agentmobility-oss/world"
)

// Context 任务上下文
// 功能：包含一次仿真任务的所有组件和状态，替代全局变量
// 说明：装配顺序为输入->人口->世界->规划->缓存->场景->会话，
// 外部决策服务由嵌入方在Run之前注入，不注入则所有人员按默认策略选方案
type Context struct {
	// 任务名
	job string

	// 时钟
	clock *clock.Clock
	// 世界模型
	world *world.World
	// Person管理器
	personManager *person.Manager
	// 行程缓存
	tripCache *trip.Cache
	// tick编排器
	scenario *scenario.Scenario
	// 状态存储
	store *statestore.Store
	// 会话服务
	server *server.Server

	// 运行时配置
	runtimeConfig *config.RuntimeConfig
	// 用于初始化的输入
	initRes *input.Input
}

// NewContext 创建任务上下文
// 功能：初始化仿真系统的所有组件和配置
// 参数：job-任务名称，listenAddr-会话服务监听地址，c-配置对象
// 返回：初始化完成的Context实例
// 算法说明：
// 1. 补全配置默认值并校验
// 2. 装载人口数据，完成决策agent抽样
// 3. 创建人口管理器与世界模型
// 4. 组装规划服务客户端：远程客户端->重试装饰->行程缓存
// 5. 打开状态存储并恢复活动改期状态（配置了state_file时）
// 6. 创建编排器与会话服务
func NewContext(job, listenAddr string, c config.Config) *Context {
	ctx := &Context{job: job}
	ctx.runtimeConfig = config.NewRuntimeConfig(c)
	rc := ctx.runtimeConfig.All

	engine := randengine.New(rc.Input.Seed)
	ctx.initRes = input.Init(rc, engine)

	ctx.personManager = person.NewManager(ctx.initRes.Persons, rc.Agent.LeadTime)
	ctx.world = world.New(rc.World.BBox.ToBBox(), rc.World.GridSize, rc.World.TimeSlot, ctx.personManager)
	ctx.clock = clock.New(ctx.runtimeConfig.C.Step.Interval)

	planner := trip.NewRetryPlanner(trip.NewRemotePlanner(rc.Trip.PlannerURL))
	ctx.tripCache = trip.NewCache(rc.Trip, ctx.world, planner)

	if rc.Output.StateFile != "" {
		store, err := statestore.Open(rc.Output.StateFile)
		if err != nil {
			log.Panicf("failed to open state store: %v", err)
		}
		if err := store.Load(ctx.personManager.Persons()); err != nil {
			log.Panicf("failed to restore person state: %v", err)
		}
		ctx.store = store
	}

	ctx.scenario = scenario.New(
		ctx.world, ctx.clock, ctx.tripCache, nil, ctx.store, engine, rc.Agent)
	ctx.server = server.New(listenAddr, ctx.scenario)
	return ctx
}

// SetDecisionMaker 注入外部决策服务
// 说明：必须在Run之前调用
func (ctx *Context) SetDecisionMaker(dm scenario.DecisionMaker) {
	ctx.scenario.SetDecisionMaker(dm)
}

func (ctx *Context) Clock() *clock.Clock {
	return ctx.clock
}

func (ctx *Context) World() *world.World {
	return ctx.world
}

func (ctx *Context) PersonManager() *person.Manager {
	return ctx.personManager
}

func (ctx *Context) TripCache() *trip.Cache {
	return ctx.tripCache
}

func (ctx *Context) Scenario() *scenario.Scenario {
	return ctx.scenario
}

func (ctx *Context) RuntimeConfig() *config.RuntimeConfig {
	return ctx.runtimeConfig
}

// Run 运行
// 功能：启动会话服务，阻塞直至服务退出
func (ctx *Context) Run() {
	log.Infof("job %s started", ctx.job)
	if err := ctx.server.Run(); err != nil {
		log.Errorf("server stopped: %v", err)
	}
	ctx.Close()
	log.Infof("engine complete")
}

// Close 释放资源
func (ctx *Context) Close() {
	if ctx.store != nil {
		if err := ctx.store.Close(); err != nil {
			log.Errorf("failed to close state store: %v", err)
		}
	}
}

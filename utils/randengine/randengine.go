// 随机数引擎，包装了golang.org/x/exp/rand，提供了一些常用的随机数生成方法
package randengine

import (
	"flag"
	"sync"

	"golang.org/x/exp/rand"
)

var (
	seedOffset = flag.Uint64("rand.seed_offset", 0, "seed offset") // 种子偏移量，用于调整随机数生成
)

// Engine 随机数引擎
// 功能：提供可复现的随机数生成功能，支持线程安全操作
// 说明：基于golang.org/x/exp/rand库，固定种子下结果可复现
type Engine struct {
	*rand.Rand            // 底层随机数生成器
	mtx        sync.Mutex // 互斥锁，用于线程安全操作
}

// New 创建随机数引擎
// 参数：seed-随机数种子
// 说明：种子偏移量允许在不修改配置的情况下调整随机数序列
func New(seed uint64) *Engine {
	return &Engine{Rand: rand.New(rand.NewSource(seed + *seedOffset))}
}

// IntnSafe 随机生成整数（线程安全）
// 返回：[0, n)范围内的随机整数
func (e *Engine) IntnSafe(n int) int {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.Intn(n)
}

// ShuffleSafe 随机打乱（线程安全）
// 功能：以Fisher-Yates算法打乱n个元素
// 参数：n-元素数量，swap-交换回调
// 说明：多个agent任务可能并发打乱各自的候选方案列表
func (e *Engine) ShuffleSafe(n int, swap func(i, j int)) {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	e.Shuffle(n, swap)
}

// Sample 无放回抽样（非线程安全）
// 功能：从[0, n)中等概率抽取k个互不相同的下标
// 返回：抽样得到的下标列表，k >= n时返回全部下标
// 算法说明：
// 1. 构造下标序列0..n-1
// 2. Fisher-Yates打乱
// 3. 取前k个
func (e *Engine) Sample(n, k int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	e.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
	if k < n {
		idx = idx[:k]
	}
	return idx
}

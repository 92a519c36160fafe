package container

// Capped 有界FIFO列表
// 功能：保存最多cap个元素，超出容量时先淘汰最早插入的元素
// 说明：行程缓存用它保存每个缓存键下的快照列表，保证列表长度不超过配置上限
type Capped[T any] struct {
	data []T
	cap  int
}

// NewCapped 创建有界列表
// 参数：cap-容量上限，必须大于0
func NewCapped[T any](cap int) *Capped[T] {
	if cap <= 0 {
		panic("container: capped list cap must be positive")
	}
	return &Capped[T]{data: make([]T, 0, cap), cap: cap}
}

// Push 插入元素
// 说明：容量已满时淘汰最早插入的元素
func (c *Capped[T]) Push(v T) {
	if len(c.data) == c.cap {
		copy(c.data, c.data[1:])
		c.data[len(c.data)-1] = v
		return
	}
	c.data = append(c.data, v)
}

// Data 获取全部元素（按插入顺序）
func (c *Capped[T]) Data() []T {
	return c.data
}

// Len 获取元素数量
func (c *Capped[T]) Len() int {
	return len(c.data)
}

// Cap 获取容量上限
func (c *Capped[T]) Cap() int {
	return c.cap
}

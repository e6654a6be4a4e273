package market

// History 按时间顺序保存最近 capacity 笔 tick，写满后淘汰最旧一笔。
// 不自带锁，由 Store 统一串行化访问。
type History struct {
	capacity int
	ticks    []Tick
}

func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = 1
	}
	return &History{
		capacity: capacity,
		ticks:    make([]Tick, 0, capacity),
	}
}

// Append 追加一笔 tick；时间戳早于末尾的乱序 tick 被丢弃并返回 false。
// 窗口满后原地左移淘汰最旧一笔，不重新分配底层数组。
func (h *History) Append(t Tick) bool {
	n := len(h.ticks)
	if n > 0 && t.Ts.Before(h.ticks[n-1].Ts) {
		return false
	}
	if n < h.capacity {
		h.ticks = append(h.ticks, t)
		return true
	}
	copy(h.ticks, h.ticks[1:])
	h.ticks[n-1] = t
	return true
}

func (h *History) Len() int {
	return len(h.ticks)
}

// Full 窗口是否已达到容量。
func (h *History) Full() bool {
	return len(h.ticks) >= h.capacity
}

// Mids 返回窗口内全部中间价（按时间先后）。
func (h *History) Mids() []float64 {
	mids := make([]float64, len(h.ticks))
	for i, t := range h.ticks {
		mids[i] = t.Mid()
	}
	return mids
}

// Snapshot 返回窗口的拷贝。
func (h *History) Snapshot() []Tick {
	out := make([]Tick, len(h.ticks))
	copy(out, h.ticks)
	return out
}

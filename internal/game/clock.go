// clock.go

package game

// Clock 模拟时钟，只随 Advance 前进，与墙钟无关
type Clock struct {
	now float64
}

// NewClock 创建从 0 开始的时钟
func NewClock() *Clock {
	return &Clock{}
}

// Advance 前进 dt 秒
func (c *Clock) Advance(dt float64) {
	c.now += dt
}

// Now 当前模拟时间
func (c *Clock) Now() float64 {
	return c.now
}

// Timer 基于共享时钟的倒计时器
type Timer struct {
	clock    *Clock
	duration float64
	start    float64
	end      float64
}

// NewTimer 创建并立即开始计时
func NewTimer(clock *Clock, duration float64) Timer {
	t := Timer{clock: clock}
	t.SetDuration(duration)
	return t
}

// SetDuration 设置时长并重新开始
func (t *Timer) SetDuration(duration float64) {
	t.duration = duration
	t.Reset()
}

// Reset 从当前时间重新开始
func (t *Timer) Reset() {
	t.start = t.clock.Now()
	t.end = t.start + t.duration
}

// Duration 当前时长
func (t *Timer) Duration() float64 {
	return t.duration
}

// Elapsed 自开始以来经过的时间
func (t *Timer) Elapsed() float64 {
	return t.clock.Now() - t.start
}

// Expired 是否已到期
func (t *Timer) Expired() bool {
	return t.end-t.clock.Now() <= 0
}

// Progress 进度，范围 [0, 1]
func (t *Timer) Progress() float64 {
	if t.Expired() || t.duration <= 0 {
		return 1
	}
	return (t.clock.Now() - t.start) / t.duration
}

// QuadraticProgress 进度的平方
func (t *Timer) QuadraticProgress() float64 {
	p := t.Progress()
	return p * p
}

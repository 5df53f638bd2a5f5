package game

import (
	"sync"
	"time"
)

const DefaultTickInterval = time.Second

// Countdown ticks once per interval from a starting count down to zero and
// fires its expiry callback exactly once.
type Countdown struct {
	sched    Scheduler
	interval time.Duration

	mu        sync.Mutex
	gen       int
	remaining int
	running   bool
	timer     Timer
	onTick    func(remaining int)
	onExpire  func()
}

func NewCountdown(sched Scheduler, interval time.Duration) *Countdown {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Countdown{sched: sched, interval: interval}
}

// Start (re)arms the countdown. Any previous run is cancelled first.
func (c *Countdown) Start(seconds int, onTick func(remaining int), onExpire func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timer != nil {
		c.timer.Stop()
	}
	c.gen++
	c.remaining = seconds
	c.running = true
	c.onTick = onTick
	c.onExpire = onExpire
	c.schedule(c.gen)
}

// Stop cancels the pending tick. Safe to call more than once.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	c.running = false
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// schedule must be called with c.mu held.
func (c *Countdown) schedule(gen int) {
	c.timer = c.sched.AfterFunc(c.interval, func() { c.tick(gen) })
}

func (c *Countdown) tick(gen int) {
	c.mu.Lock()
	if gen != c.gen || !c.running {
		// stale callback from a stopped or restarted run
		c.mu.Unlock()
		return
	}
	if c.remaining > 0 {
		c.remaining--
	}
	remaining := c.remaining
	onTick, onExpire := c.onTick, c.onExpire

	expired := remaining == 0
	if expired {
		c.running = false
		c.timer = nil
	} else {
		c.schedule(gen)
	}
	c.mu.Unlock()

	if onTick != nil {
		onTick(remaining)
	}
	if expired && onExpire != nil {
		onExpire()
	}
}

package app

// DefaultDurationSeconds is the length of a quiz round.
const DefaultDurationSeconds = 300

// LowTimeSeconds is the threshold below which the clock is shown as urgent.
const LowTimeSeconds = 60

// Countdown is a one-way clock that counts whole seconds down to zero.
// It is not safe for concurrent use; Session serializes access to it.
type Countdown struct {
	remaining int
	expired   bool
	cancelled bool
}

func NewCountdown(seconds int) *Countdown {
	if seconds <= 0 {
		seconds = DefaultDurationSeconds
	}
	return &Countdown{remaining: seconds}
}

// Tick consumes one second. It reports true only on the tick that reaches zero;
// ticks after expiry or cancellation do nothing.
func (c *Countdown) Tick() bool {
	if c.expired || c.cancelled {
		return false
	}
	c.remaining--
	if c.remaining <= 0 {
		c.remaining = 0
		c.expired = true
		return true
	}
	return false
}

func (c *Countdown) Remaining() int { return c.remaining }

func (c *Countdown) Expired() bool { return c.expired }

// Cancel stops the countdown where it is.
func (c *Countdown) Cancel() { c.cancelled = true }

func (c *Countdown) Cancelled() bool { return c.cancelled }

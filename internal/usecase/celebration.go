package usecase

import "time"

// CelebrationDuration is how long the Won celebration stays on screen.
const CelebrationDuration = 5 * time.Second

// Celebration is the time-boxed effect shown when a lead reaches Won. It
// clears itself once the window has passed.
type Celebration struct {
	until time.Time
	count int
}

func (c *Celebration) start(now time.Time) {
	c.until = now.Add(CelebrationDuration)
	c.count++
}

func (c Celebration) Active(now time.Time) bool {
	return now.Before(c.until)
}

// Remaining is the time left before the effect clears.
func (c Celebration) Remaining(now time.Time) time.Duration {
	if !c.Active(now) {
		return 0
	}
	return c.until.Sub(now)
}

// Count is the number of celebrations triggered in this session.
func (c Celebration) Count() int {
	return c.count
}

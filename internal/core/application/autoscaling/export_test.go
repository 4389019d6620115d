package autoscaling

import "time"

func SetClock(c *Controller, now func() time.Time) {
	c.now = now
}

package platform

import "time"

// sleepSlack is how much of the wait is left to the spin phase. time.Sleep
// routinely overshoots by more than a millisecond, which at 240Hz is a third
// of the frame budget.
const sleepSlack = 2 * time.Millisecond

// Sleep waits for d with sub-millisecond precision: a coarse time.Sleep for
// the bulk of the wait, then a spin on the monotonic clock for the rest.
func Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	deadline := time.Now().Add(d)
	if coarse := d - sleepSlack; coarse > 0 {
		time.Sleep(coarse)
	}
	for time.Now().Before(deadline) {
	}
}

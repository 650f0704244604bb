package clock

import (
	"fmt"
	"sync"
	"time"
)

// Clock counts down to a fixed target. Remaining time is always derived
// from the wall clock so a skipped tick corrects itself on the next one.
type Clock struct {
	target time.Time
	now    func() time.Time
}

func New(target time.Time, now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{target: target, now: now}
}

func (c *Clock) Target() time.Time {
	return c.target
}

// Remaining is target - now, floored at zero.
func (c *Clock) Remaining() time.Duration {
	return RemainingAt(c.target, c.now())
}

func (c *Clock) Expired() bool {
	return c.Remaining() == 0
}

func RemainingAt(target time.Time, now time.Time) time.Duration {
	d := target.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

type segments struct {
	days, hours, minutes, seconds int64
}

func split(d time.Duration) segments {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return segments{
		days:    total / 86400,
		hours:   total % 86400 / 3600,
		minutes: total % 3600 / 60,
		seconds: total % 60,
	}
}

// FormatFull renders DDd HH:MM:SS, leaving the day segment out when zero.
func FormatFull(d time.Duration) string {
	s := split(d)
	hms := fmt.Sprintf("%02d:%02d:%02d", s.hours, s.minutes, s.seconds)
	if s.days == 0 {
		return hms
	}
	return fmt.Sprintf("%02dd %s", s.days, hms)
}

// FormatCompact renders HH:MM:SS, or Dd HHh once a day or more remains.
func FormatCompact(d time.Duration) string {
	s := split(d)
	if s.days > 0 {
		return fmt.Sprintf("%dd %02dh", s.days, s.hours)
	}
	return fmt.Sprintf("%02d:%02d:%02d", s.hours, s.minutes, s.seconds)
}

// Ticker owns at most one repeating timer. Starting it again replaces the
// running timer; Stop is safe to call any number of times.
type Ticker struct {
	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func (t *Ticker) Start(c *Clock, interval time.Duration, fn func(remaining time.Duration)) {
	t.Stop()

	t.mu.Lock()
	defer t.mu.Unlock()
	stop := make(chan struct{})
	done := make(chan struct{})
	t.stop, t.done = stop, done

	go func() {
		defer close(done)
		tk := time.NewTicker(interval)
		defer tk.Stop()
		for {
			select {
			case <-stop:
				return
			case <-tk.C:
				fn(c.Remaining())
			}
		}
	}()
}

// Stop tears the timer down and waits until the callback goroutine exits.
func (t *Ticker) Stop() {
	t.mu.Lock()
	stop, done := t.stop, t.done
	t.stop, t.done = nil, nil
	t.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (t *Ticker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stop != nil
}

package tui

import "time"

// timerState tracks the current state of the rest timer.
type timerState int

const (
	timerStopped timerState = iota
	timerRunning
	timerPaused
)

// restTimer measures the rest between sets and counts down against the
// suggested rest.
type restTimer struct {
	now func() time.Time

	state     timerState
	startTime time.Time
	pausedAt  time.Time
	pauseGap  time.Duration
	target    time.Duration

	// set once the countdown has reached zero
	alerted bool
}

func newRestTimer() restTimer {
	return restTimer{now: time.Now, state: timerStopped}
}

func (t *restTimer) start(target time.Duration) {
	t.state = timerRunning
	t.startTime = t.now()
	t.pauseGap = 0
	t.target = target
	t.alerted = false
}

// stop halts the timer and returns the rest taken.
func (t *restTimer) stop() time.Duration {
	if t.state == timerStopped {
		return 0
	}
	elapsed := t.currentElapsed()
	t.state = timerStopped
	return elapsed
}

func (t *restTimer) pause() {
	if t.state != timerRunning {
		return
	}
	t.state = timerPaused
	t.pausedAt = t.now()
}

func (t *restTimer) resume() {
	if t.state != timerPaused {
		return
	}
	t.pauseGap += t.now().Sub(t.pausedAt)
	t.state = timerRunning
}

func (t *restTimer) toggle() {
	switch t.state {
	case timerRunning:
		t.pause()
	case timerPaused:
		t.resume()
	}
}

// tick reports true exactly once, on the first tick at which the suggested
// rest has fully elapsed.
func (t *restTimer) tick() bool {
	if t.state != timerRunning || t.alerted || t.target <= 0 {
		return false
	}
	if t.currentElapsed() >= t.target {
		t.alerted = true
		return true
	}
	return false
}

func (t restTimer) running() bool {
	return t.state != timerStopped
}

func (t restTimer) paused() bool {
	return t.state == timerPaused
}

func (t restTimer) currentElapsed() time.Duration {
	switch t.state {
	case timerStopped:
		return 0
	case timerPaused:
		return t.pausedAt.Sub(t.startTime) - t.pauseGap
	}
	return t.now().Sub(t.startTime) - t.pauseGap
}

// remaining is the countdown value; negative once the rest runs over.
func (t restTimer) remaining() time.Duration {
	return t.target - t.currentElapsed()
}

// restSeconds is the rest to record with the next set, nil when no rest was
// being timed.
func (t restTimer) restSeconds() *int {
	if t.state == timerStopped {
		return nil
	}
	secs := int(t.currentElapsed() / time.Second)
	return &secs
}

package game

import (
	"sync"
	"time"
)

// Loop drives a session at a fixed wall-clock interval. Ticks measure real
// elapsed time, so the progression math tolerates scheduler jitter. Start and
// Stop are idempotent.
type Loop struct {
	sess     *Session
	interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewLoop creates a stopped loop around sess.
func NewLoop(sess *Session, interval time.Duration) *Loop {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	return &Loop{sess: sess, interval: interval}
}

// Start begins ticking. Starting a running loop is a no-op.
func (l *Loop) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stop != nil {
		return
	}
	l.stop = make(chan struct{})
	l.done = make(chan struct{})
	go l.run(l.stop, l.done)
}

// Stop halts ticking and waits for the loop goroutine to exit. Stopping a
// stopped loop is a no-op.
func (l *Loop) Stop() {
	l.mu.Lock()
	stop, done := l.stop, l.done
	l.stop, l.done = nil, nil
	l.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (l *Loop) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	l.sess.Tick(time.Now())
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			l.sess.Tick(now)
		}
	}
}

package bloghost

import (
	"sync"
	"time"
)

// IPLimiter rate-limits linkback submissions per remote address with a
// sliding window. Linkback spam arrives in bursts from single hosts; anything
// over the window's budget is treated as access denied by the handlers.
type IPLimiter struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	max    int
	window time.Duration
	stop   chan struct{}
}

// NewIPLimiter creates a limiter allowing max submissions per window and
// starts its cleanup loop. Stop must be called on shutdown.
func NewIPLimiter(max int, window time.Duration) *IPLimiter {
	l := &IPLimiter{
		hits:   make(map[string][]time.Time),
		max:    max,
		window: window,
		stop:   make(chan struct{}),
	}
	go l.cleanup()
	return l
}

// Allow reports whether the address is within budget and records the hit.
func (l *IPLimiter) Allow(ip string) bool {
	cutoff := time.Now().Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	hits := l.hits[ip]
	kept := hits[:0]
	for _, t := range hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) >= l.max {
		l.hits[ip] = kept
		return false
	}
	l.hits[ip] = append(kept, time.Now())
	return true
}

// Stop terminates the cleanup loop.
func (l *IPLimiter) Stop() {
	close(l.stop)
}

func (l *IPLimiter) cleanup() {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
		}
		cutoff := time.Now().Add(-l.window)
		l.mu.Lock()
		for ip, hits := range l.hits {
			kept := hits[:0]
			for _, t := range hits {
				if t.After(cutoff) {
					kept = append(kept, t)
				}
			}
			if len(kept) == 0 {
				delete(l.hits, ip)
			} else {
				l.hits[ip] = kept
			}
		}
		l.mu.Unlock()
	}
}

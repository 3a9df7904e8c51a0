package dispatch

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Notice pacing per actor.
const (
	noticeRate  = rate.Limit(1)
	noticeBurst = 3

	// noticeIdle is how long an actor's limiter is kept after its last notice.
	noticeIdle = time.Minute
)

type noticeEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// noticeLimiter paces gate notices per actor, so one actor's burst never
// suppresses another actor's notice.
type noticeLimiter struct {
	mu     sync.Mutex
	actors map[string]*noticeEntry
	now    func() time.Time
	swept  time.Time
}

func newNoticeLimiter() *noticeLimiter {
	return &noticeLimiter{
		actors: make(map[string]*noticeEntry),
		now:    time.Now,
	}
}

// Allow reports whether a notice may be sent to actorID now.
func (l *noticeLimiter) Allow(actorID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.swept) >= noticeIdle {
		for id, e := range l.actors {
			if now.Sub(e.lastSeen) >= noticeIdle {
				delete(l.actors, id)
			}
		}
		l.swept = now
	}

	e, ok := l.actors[actorID]
	if !ok {
		e = &noticeEntry{limiter: rate.NewLimiter(noticeRate, noticeBurst)}
		l.actors[actorID] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// Len returns the number of tracked actors.
func (l *noticeLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.actors)
}

// Package sched provides the one-shot timers used by the capture controller
// and the transition engine. Callbacks never run concurrently with the
// session: Loop hands them back to the session goroutine, Manual fires them
// from the test goroutine.
package sched

import (
	"sync/atomic"
	"time"
)

// Timer is a pending callback. Stop reports whether it prevented the call.
type Timer interface {
	Stop() bool
}

type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
	Now() time.Time
}

// Loop schedules with time.AfterFunc and delivers every expiry through post,
// which is expected to enqueue the callback on the owning goroutine.
type Loop struct {
	post func(func()) bool
}

func NewLoop(post func(func()) bool) *Loop {
	return &Loop{post: post}
}

func (l *Loop) Now() time.Time { return time.Now() }

func (l *Loop) AfterFunc(d time.Duration, f func()) Timer {
	lt := &loopTimer{}
	lt.t = time.AfterFunc(d, func() {
		l.post(func() {
			// the expiry may already be queued when Stop runs
			if lt.stopped.Load() {
				return
			}
			f()
		})
	})
	return lt
}

type loopTimer struct {
	t       *time.Timer
	stopped atomic.Bool
}

func (lt *loopTimer) Stop() bool {
	already := lt.stopped.Swap(true)
	return lt.t.Stop() && !already
}

package main

import (
	"log"
	"time"
)

// Link tracks whether the control plane is reachable. Network tiers become
// no-ops while the link is down; recovery re-probes on its own schedule and
// is never abandoned.
type Link interface {
	Up() bool
	Connect() bool
	MarkDown()
}

// httpLink probes an HTTP endpoint. A Connect attempt blocks for up to
// attempts*backoff before giving up for the cycle.
type httpLink struct {
	probe    func() bool
	attempts int
	backoff  time.Duration
	sleep    func(time.Duration)
	up       bool
}

func newHTTPLink(probe func() bool, attempts int, backoff time.Duration) *httpLink {
	return &httpLink{
		probe:    probe,
		attempts: attempts,
		backoff:  backoff,
		sleep:    time.Sleep,
	}
}

func (l *httpLink) Up() bool { return l.up }

func (l *httpLink) Connect() bool {
	log.Printf("Connecting to control plane...")
	for i := 0; i < l.attempts; i++ {
		if l.probe() {
			l.up = true
			log.Printf("Control plane reachable")
			return true
		}
		l.sleep(l.backoff)
	}
	l.up = false
	log.Printf("Control plane unreachable, will retry...")
	return false
}

func (l *httpLink) MarkDown() { l.up = false }

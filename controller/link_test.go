package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLinkConnectRetriesUntilReachable(t *testing.T) {
	fails := 3
	probes := 0
	l := newHTTPLink(func() bool {
		probes++
		return probes > fails
	}, 30, 500*time.Millisecond)
	l.sleep = func(time.Duration) {}

	assert.False(t, l.Up())
	assert.True(t, l.Connect())
	assert.True(t, l.Up())
	assert.Equal(t, 4, probes)
}

func TestLinkConnectGivesUpAfterAttempts(t *testing.T) {
	probes := 0
	var slept time.Duration
	l := newHTTPLink(func() bool {
		probes++
		return false
	}, 30, 500*time.Millisecond)
	l.sleep = func(d time.Duration) { slept += d }

	assert.False(t, l.Connect())
	assert.False(t, l.Up())
	assert.Equal(t, 30, probes)
	assert.Equal(t, 15*time.Second, slept, "a recovery attempt blocks ~15s at most")
}

func TestLinkMarkDown(t *testing.T) {
	l := newHTTPLink(func() bool { return true }, 1, 0)
	l.Connect()
	assert.True(t, l.Up())
	l.MarkDown()
	assert.False(t, l.Up())
}

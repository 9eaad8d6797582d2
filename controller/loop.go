package main

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"siboltech/hydroponics/cloud"
	"siboltech/hydroponics/command"
	"siboltech/hydroponics/relay"
	"siboltech/hydroponics/sensor"
)

type cloudAPI interface {
	Upload(sensor.Snapshot) error
	FetchPending() (string, error)
}

// Controller runs the cooperative control loop. One goroutine owns all of
// this state; every iteration evaluates four tiers in fixed priority order:
//
//  1. drain buffered command input
//  2. poll and reconcile the desired relay mask (gated on pollInterval)
//  3. connectivity recovery when the link is down (gated on recoveryInterval)
//  4. sensor sampling, and inside it the upload gate (sample/uploadInterval)
//
// Tiers are not interruptible. A blocking recovery attempt or sampling cycle
// starves command intake for its duration; commands queue in the intake
// channel and are handled first on the next iteration. The gates are lower
// bounds, not exact timers.
type Controller struct {
	bank   *relay.Bank
	parser *command.Parser
	reader *sensor.Reader
	api    cloudAPI
	link   Link

	device string
	out    io.Writer

	pollInterval     time.Duration
	recoveryInterval time.Duration
	sampleInterval   time.Duration
	uploadInterval   time.Duration

	lastPoll     time.Time
	lastRecovery time.Time
	lastSample   time.Time
	lastUpload   time.Time

	input   chan []byte
	now     func() time.Time
	publish func(topic string, payload []byte)
	idle    time.Duration
}

type controllerParams struct {
	bank    *relay.Bank
	parser  *command.Parser
	reader  *sensor.Reader
	api     cloudAPI
	link    Link
	device  string
	out     io.Writer
	publish func(topic string, payload []byte)

	pollInterval     time.Duration
	recoveryInterval time.Duration
	sampleInterval   time.Duration
	uploadInterval   time.Duration
}

func newController(p controllerParams) *Controller {
	c := &Controller{
		bank:             p.bank,
		parser:           p.parser,
		reader:           p.reader,
		api:              p.api,
		link:             p.link,
		device:           p.device,
		out:              p.out,
		pollInterval:     p.pollInterval,
		recoveryInterval: p.recoveryInterval,
		sampleInterval:   p.sampleInterval,
		uploadInterval:   p.uploadInterval,
		input:            make(chan []byte, 64),
		now:              time.Now,
		publish:          p.publish,
		idle:             time.Millisecond,
	}
	if c.publish == nil {
		c.publish = func(string, []byte) {}
	}
	return c
}

// StartIntake copies the command stream into the intake channel so that
// Step can drain whatever arrived without blocking. The goroutine only
// transports bytes; all parsing and state mutation happens on the loop.
func (c *Controller) StartIntake(r io.Reader) {
	go func() {
		buf := make([]byte, 256)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				c.input <- chunk
			}
			if err != nil {
				return
			}
		}
	}()
}

// Run iterates Step until ctx is canceled. Cancellation is only observed
// between iterations; no tier is cancellable once started.
func (c *Controller) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		c.Step()
		time.Sleep(c.idle)
	}
}

// Step runs one scheduler iteration.
func (c *Controller) Step() {
	now := c.now()

	c.drainInput()

	if now.Sub(c.lastPoll) >= c.pollInterval {
		c.lastPoll = now
		c.syncRelays()
	}

	if !c.link.Up() && now.Sub(c.lastRecovery) >= c.recoveryInterval {
		c.lastRecovery = now
		c.link.Connect()
	}

	if now.Sub(c.lastSample) < c.sampleInterval {
		return
	}
	c.lastSample = now
	c.sampleCycle(now)
}

func (c *Controller) drainInput() {
	for {
		select {
		case data := <-c.input:
			c.parser.Feed(data)
		default:
			return
		}
	}
}

// syncRelays reconciles the remote desired mask against the bank. Only
// differing indices are written, so unchanged relays emit no events.
func (c *Controller) syncRelays() {
	if !c.link.Up() {
		return
	}
	states, err := c.api.FetchPending()
	if err != nil {
		log.Printf("Poll failed: %v", err)
		if !isProtocolError(err) {
			c.link.MarkDown()
		}
		return
	}
	current := c.bank.States()
	if len(states) != len(current) {
		return
	}
	for i, on := range current {
		desired := states[i] == '1'
		if desired != on {
			c.bank.Set(i+1, desired)
			log.Printf("Cloud: Relay %d -> %s", i+1, onOff(desired))
		}
	}
}

func (c *Controller) sampleCycle(now time.Time) {
	snap := c.reader.Read()
	line := snap.StatusLine(c.device)
	c.out.Write(line)
	c.publish("sensors", line)

	if now.Sub(c.lastUpload) < c.uploadInterval {
		return
	}
	c.lastUpload = now
	if !c.link.Up() {
		return
	}
	if err := c.api.Upload(snap); err != nil {
		log.Printf("Upload failed: %v", err)
		if !isProtocolError(err) {
			c.link.MarkDown()
		}
		return
	}
	log.Println("Sensors uploaded")
}

// isProtocolError reports whether the server answered but the exchange still
// failed. Only a transport failure marks the link down.
func isProtocolError(err error) bool {
	var se cloud.StatusError
	return errors.As(err, &se) || errors.Is(err, cloud.ErrBadPayload)
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

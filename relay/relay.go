// Package relay owns the actuator bank: logical relay states, the mapping to
// physical output lines, and the status events written to the command stream.
package relay

import (
	"encoding/json"
	"io"
	"log"
	"sync"

	"gobot.io/x/gobot/v2/drivers/gpio"
)

// The relay board is active-low: a logical ON drives the line low.
const (
	levelOn  byte = 0
	levelOff byte = 1
)

type Event struct {
	Relay int    `json:"relay"`
	State string `json:"state"`
}

type AllEvent struct {
	AllRelays string `json:"all_relays"`
}

type Report struct {
	RelayStatus []Event `json:"relay_status"`
}

// Bank drives a fixed set of relay output lines. Relay numbers are 1-based;
// the bank size comes from the configured pin list. All relays start OFF.
type Bank struct {
	mu     sync.Mutex
	writer gpio.DigitalWriter
	out    io.Writer
	pins   []string
	states []bool
}

// NewBank wires the bank to its output lines and drives every line to the
// OFF level. Status events are written to out, one JSON object per line.
func NewBank(writer gpio.DigitalWriter, out io.Writer, pins []string) *Bank {
	b := &Bank{
		writer: writer,
		out:    out,
		pins:   pins,
		states: make([]bool, len(pins)),
	}
	for _, pin := range pins {
		if err := writer.DigitalWrite(pin, levelOff); err != nil {
			log.Printf("relay: init write pin %s: %v", pin, err)
		}
	}
	return b
}

func (b *Bank) Size() int { return len(b.pins) }

// Set switches relay n (1-based). An out-of-range n is a silent no-op.
func (b *Bank) Set(n int, on bool) {
	if n < 1 || n > len(b.pins) {
		return
	}
	b.mu.Lock()
	idx := n - 1
	b.states[idx] = on
	b.write(idx, on)
	b.mu.Unlock()
	b.emit(Event{Relay: n, State: stateString(on)})
}

// SetAll switches every relay and emits a single aggregate event.
func (b *Bank) SetAll(on bool) {
	b.mu.Lock()
	for i := range b.states {
		b.states[i] = on
		b.write(i, on)
	}
	b.mu.Unlock()
	b.emit(AllEvent{AllRelays: stateString(on)})
}

// StatusReport writes the full relay state in index order. Read-only.
func (b *Bank) StatusReport() {
	b.emit(b.Report())
}

func (b *Bank) Report() Report {
	b.mu.Lock()
	defer b.mu.Unlock()
	r := Report{RelayStatus: make([]Event, len(b.states))}
	for i, on := range b.states {
		r.RelayStatus[i] = Event{Relay: i + 1, State: stateString(on)}
	}
	return r
}

// States returns a copy of the logical states.
func (b *Bank) States() []bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]bool, len(b.states))
	copy(out, b.states)
	return out
}

func (b *Bank) write(idx int, on bool) {
	level := levelOff
	if on {
		level = levelOn
	}
	if err := b.writer.DigitalWrite(b.pins[idx], level); err != nil {
		log.Printf("relay: write pin %s: %v", b.pins[idx], err)
	}
}

func (b *Bank) emit(v any) {
	msg, err := json.Marshal(v)
	if err != nil {
		log.Printf("relay: marshal status: %v", err)
		return
	}
	b.out.Write(append(msg, '\n'))
}

func stateString(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

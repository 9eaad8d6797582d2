package command

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

type call struct {
	name string
	n    int
	on   bool
}

type fakeBank struct {
	size  int
	calls []call
}

func (f *fakeBank) Set(n int, on bool) { f.calls = append(f.calls, call{"set", n, on}) }
func (f *fakeBank) SetAll(on bool)     { f.calls = append(f.calls, call{"all", 0, on}) }
func (f *fakeBank) StatusReport()      { f.calls = append(f.calls, call{name: "status"}) }
func (f *fakeBank) Size() int          { return f.size }

func newParser() (*Parser, *fakeBank, *bytes.Buffer) {
	bank := &fakeBank{size: 9}
	out := &bytes.Buffer{}
	return NewParser(bank, out), bank, out
}

func TestRelayOnOff(t *testing.T) {
	p, bank, _ := newParser()
	p.Process("R1 ON")
	p.Process("R9 OFF")
	assert.Equal(t, []call{
		{"set", 1, true},
		{name: "status"},
		{"set", 9, false},
		{name: "status"},
	}, bank.calls)
}

func TestMixedCaseAndWhitespace(t *testing.T) {
	p, bank, _ := newParser()
	p.Process("  r1 on  ")
	assert.Equal(t, []call{{"set", 1, true}, {name: "status"}}, bank.calls)
}

func TestOutOfRangeRelayIsSilentlyDropped(t *testing.T) {
	p, bank, out := newParser()
	p.Process("R10 ON")
	p.Process("R0 ON")
	assert.Empty(t, bank.calls)
	assert.Empty(t, out.String())
}

func TestAll(t *testing.T) {
	p, bank, _ := newParser()
	p.Process("ALL ON")
	p.Process("all off")
	assert.Equal(t, []call{
		{"all", 0, true},
		{name: "status"},
		{"all", 0, false},
		{name: "status"},
	}, bank.calls)
}

func TestStatus(t *testing.T) {
	p, bank, _ := newParser()
	p.Process("STATUS")
	assert.Equal(t, []call{{name: "status"}}, bank.calls)
}

func TestHelp(t *testing.T) {
	p, bank, out := newParser()
	p.Process("help")
	assert.Empty(t, bank.calls)
	assert.Equal(t, "Commands: R1 ON/OFF, ALL ON/OFF, STATUS\n", out.String())
}

func TestGarbageIsSilentlyDropped(t *testing.T) {
	p, bank, out := newParser()
	for _, line := range []string{"", "   ", "FROB", "Rx ON", "R ON", "1 ON"} {
		p.Process(line)
	}
	assert.Empty(t, bank.calls)
	assert.Empty(t, out.String())
}

func TestFeedBuffersAcrossChunks(t *testing.T) {
	p, bank, _ := newParser()
	p.Feed([]byte("R1 "))
	assert.Empty(t, bank.calls, "no terminator yet")
	p.Feed([]byte("ON\r\nSTAT"))
	assert.Equal(t, []call{{"set", 1, true}, {name: "status"}}, bank.calls)
	p.Feed([]byte("US\n"))
	assert.Equal(t, call{name: "status"}, bank.calls[len(bank.calls)-1])
}

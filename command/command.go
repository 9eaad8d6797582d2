// Package command parses the line-oriented text protocol spoken over the
// local command stream: HELP, STATUS, ALL ON/OFF, R<n> ON/OFF.
package command

import (
	"io"
	"strconv"
	"strings"
)

const helpText = "Commands: R1 ON/OFF, ALL ON/OFF, STATUS\n"

// Actuator is the relay bank surface the parser drives.
type Actuator interface {
	Set(n int, on bool)
	SetAll(on bool)
	StatusReport()
	Size() int
}

// Parser accumulates raw bytes until a line terminator and dispatches each
// complete line. Unrecognized input is dropped without any acknowledgment;
// the command link stays quiet on garbage.
type Parser struct {
	bank Actuator
	out  io.Writer
	buf  []byte
}

func NewParser(bank Actuator, out io.Writer) *Parser {
	return &Parser{bank: bank, out: out}
}

// Feed appends incoming bytes to the command buffer, dispatching on every
// '\n' or '\r'. The buffer is cleared whether or not the line was recognized.
func (p *Parser) Feed(data []byte) {
	for _, c := range data {
		if c == '\n' || c == '\r' {
			if len(p.buf) > 0 {
				p.Process(string(p.buf))
				p.buf = p.buf[:0]
			}
			continue
		}
		p.buf = append(p.buf, c)
	}
}

// Process handles one command line. Case-insensitive, surrounding whitespace
// ignored. Mutating commands are followed by a full status report.
func (p *Parser) Process(line string) {
	cmd := strings.ToUpper(strings.TrimSpace(line))
	switch {
	case cmd == "HELP":
		io.WriteString(p.out, helpText)
	case cmd == "STATUS":
		p.bank.StatusReport()
	case strings.HasPrefix(cmd, "ALL"):
		p.bank.SetAll(strings.Contains(cmd, "ON"))
		p.bank.StatusReport()
	case strings.HasPrefix(cmd, "R") && len(cmd) >= 4:
		n, ok := relayNum(cmd[1:])
		if !ok || n < 1 || n > p.bank.Size() {
			return
		}
		p.bank.Set(n, strings.Contains(cmd, "ON"))
		p.bank.StatusReport()
	}
}

// relayNum parses the leading decimal digits; trailing text is ignored.
func relayNum(s string) (int, bool) {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

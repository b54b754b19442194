package main

import (
	"io"
	"strings"
	"sync"
)

// simulatedPort stands in for the serial device during development.
// Every command is confirmed, the telemetry queries get canned replies,
// and the pause/resume/stop commands emit the matching host action
// lines after their confirmation.
type simulatedPort struct {
	mu sync.Mutex
	pr *io.PipeReader
	pw *io.PipeWriter
}

func newSimulatedPort() *simulatedPort {
	pr, pw := io.Pipe()
	return &simulatedPort{pr: pr, pw: pw}
}

func (p *simulatedPort) Read(b []byte) (int, error) {
	return p.pr.Read(b)
}

func (p *simulatedPort) Write(b []byte) (int, error) {
	command := strings.TrimSpace(string(b))
	go p.respond(command)
	return len(b), nil
}

func (p *simulatedPort) Close() error {
	p.pw.Close() //nolint:errcheck
	return p.pr.Close()
}

// respond writes the canned reply for one command. Serialised so
// replies to queued commands never interleave.
func (p *simulatedPort) respond(command string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var reply string
	switch {
	case strings.HasPrefix(command, "M105"):
		reply = "ok T: 21.5 / 0.0 B: 21.2 / 0.0\n"
	case strings.HasPrefix(command, "M27"):
		reply = "Not SD printing\nok\n"
	case strings.HasPrefix(command, "M73"):
		reply = "NORMAL MODE: Percent done: 0; print time remaining in mins: -1\nok\n"
	case strings.HasPrefix(command, "M601"):
		reply = "ok\n// action:paused\n"
	case strings.HasPrefix(command, "M602"):
		reply = "ok\n// action:resumed\n"
	case strings.HasPrefix(command, "M603"):
		reply = "ok\n// action:cancel\n"
	default:
		reply = "ok\n"
	}

	//nolint:errcheck // a closed pipe just means shutdown
	p.pw.Write([]byte(reply))
}

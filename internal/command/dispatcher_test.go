package command

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ondraz/printlink/internal/serial"
	"github.com/ondraz/printlink/internal/state"
)

// fakePort captures written G-code and can be told to fail.
type fakePort struct {
	mu  sync.Mutex
	buf bytes.Buffer
	err error
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return 0, p.err
	}
	return p.buf.Write(b)
}

func (p *fakePort) String() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.String()
}

func newTestDispatcher(port *fakePort) (*Dispatcher, *serial.Parser, *state.Manager) {
	parser := serial.NewParser()
	mgr := state.NewManager()
	serial.RegisterStateHandlers(parser, mgr)
	d := NewDispatcher(port, parser, mgr)
	return d, parser, mgr
}

// confirmWhenSent waits until gcode appears on the port, then feeds an
// "ok" through the parser. The returned channel closes when the
// confirmation has been delivered.
func confirmWhenSent(t *testing.T, parser *serial.Parser, port *fakePort, gcode string) chan struct{} {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			if strings.Contains(port.String(), gcode+"\n") {
				parser.Decide("ok")
				return
			}
			time.Sleep(time.Millisecond)
		}
		t.Error("command never written to port")
	}()
	return done
}

func TestSend_Confirmed(t *testing.T) {
	port := &fakePort{}
	d, parser, _ := newTestDispatcher(port)

	done := confirmWhenSent(t, parser, port, "M115")

	id, err := d.Send(context.Background(), "M115")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if id == "" {
		t.Error("Send() returned empty command id")
	}
	if got := port.String(); got != "M115\n" {
		t.Errorf("port received %q, want %q", got, "M115\n")
	}
	<-done
}

func TestSend_ConfirmationTimeout(t *testing.T) {
	port := &fakePort{}
	d, _, _ := newTestDispatcher(port)
	d.SetTimeout(20 * time.Millisecond)

	_, err := d.Send(context.Background(), "G28")
	if !errors.Is(err, ErrConfirmationTimeout) {
		t.Errorf("Send() error = %v, want ErrConfirmationTimeout", err)
	}
}

func TestSend_ContextCancelled(t *testing.T) {
	port := &fakePort{}
	d, _, _ := newTestDispatcher(port)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := d.Send(ctx, "G28")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Send() error = %v, want context.Canceled", err)
	}
}

func TestSend_WriteError(t *testing.T) {
	port := &fakePort{err: errors.New("port gone")}
	d, _, _ := newTestDispatcher(port)

	_, err := d.Send(context.Background(), "G28")
	if !errors.Is(err, ErrWriteFailed) {
		t.Errorf("Send() error = %v, want ErrWriteFailed", err)
	}
}

func TestUnsolicitedConfirmationIgnored(t *testing.T) {
	port := &fakePort{}
	d, parser, _ := newTestDispatcher(port)

	// No command in flight; must not panic or poison later sends.
	parser.Decide("ok")

	done := confirmWhenSent(t, parser, port, "M115")
	if _, err := d.Send(context.Background(), "M115"); err != nil {
		t.Fatalf("Send() after unsolicited ok: %v", err)
	}
	<-done
}

func TestPausePrint_AttributesTransition(t *testing.T) {
	port := &fakePort{}
	d, parser, mgr := newTestDispatcher(port)
	mgr.Printing()

	done := confirmWhenSent(t, parser, port, "M601")
	id, err := d.PausePrint(context.Background())
	if err != nil {
		t.Fatalf("PausePrint() error = %v", err)
	}
	<-done

	exp := mgr.PendingExpectation()
	if exp == nil {
		t.Fatal("no pending expectation after PausePrint")
	}
	if exp.CommandID != id {
		t.Errorf("pending expectation CommandID = %q, want %q", exp.CommandID, id)
	}

	var (
		mu          sync.Mutex
		transitions []state.Transition
	)
	mgr.OnStateChange(func(tr state.Transition) {
		mu.Lock()
		transitions = append(transitions, tr)
		mu.Unlock()
	})

	parser.Decide("// action:paused")

	if got := mgr.CurrentState(); got != state.StatePaused {
		t.Errorf("CurrentState() = %v, want %v", got, state.StatePaused)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(transitions) != 1 {
		t.Fatalf("got %d transitions, want 1", len(transitions))
	}
	tr := transitions[0]
	if tr.From != state.StatePrinting || tr.To != state.StatePaused {
		t.Errorf("transition = %v -> %v, want %v -> %v",
			tr.From, tr.To, state.StatePrinting, state.StatePaused)
	}
	if tr.Source != state.SourceUser {
		t.Errorf("transition Source = %q, want %q", tr.Source, state.SourceUser)
	}
	if tr.CommandID != id {
		t.Errorf("transition CommandID = %q, want %q", tr.CommandID, id)
	}
}

func TestStopPrint_ClearsActivity(t *testing.T) {
	port := &fakePort{}
	d, parser, mgr := newTestDispatcher(port)
	mgr.Printing()

	done := confirmWhenSent(t, parser, port, "M603")
	if _, err := d.StopPrint(context.Background()); err != nil {
		t.Fatalf("StopPrint() error = %v", err)
	}
	<-done

	parser.Decide("// action:cancel")

	if got := mgr.CurrentState(); got != state.StateReady {
		t.Errorf("CurrentState() = %v, want %v", got, state.StateReady)
	}
	if mgr.IsPrinting() {
		t.Error("IsPrinting() = true after cancel")
	}
}

func TestResumePrint_SendsResumeCode(t *testing.T) {
	port := &fakePort{}
	d, parser, _ := newTestDispatcher(port)

	done := confirmWhenSent(t, parser, port, "M602")
	if _, err := d.ResumePrint(context.Background()); err != nil {
		t.Fatalf("ResumePrint() error = %v", err)
	}
	<-done

	if got := port.String(); got != "M602\n" {
		t.Errorf("port received %q, want %q", got, "M602\n")
	}
}

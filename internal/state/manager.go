package state

import "sync"

// Logger defines the logging interface used by the Manager.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// JobStatus reports whether the local file-job driver is currently
// streaming a print. The Manager consults it when interpreting the
// firmware's "SD printing" telemetry, which knows nothing about jobs
// driven over the serial line.
type JobStatus interface {
	Printing() bool
}

// progressUnknown marks the progress field before any report arrived.
const progressUnknown = -1

// Manager owns the layered printer state and is the only component
// allowed to mutate it. One instance exists per printer, constructed at
// startup and injected into every collaborator; it lives for the whole
// process.
//
// Mutating operations follow a fixed bracket: take the lock, install the
// operation's default expectation unless a caller pushed one, apply the
// layer change, run the detect-and-notify cycle, discard the
// expectation, release the lock. See influence.
type Manager struct {
	logger Logger
	jobs   JobStatus

	mu sync.Mutex

	// The three layers considered when reporting.
	base     State
	activity State
	override State

	// Reported history.
	last    State
	current State

	// At most one pending expectation, guarded by mu.
	expected *Expectation

	// Side-channel telemetry consulted by Printing/NotPrinting decisions.
	progress   int
	sdPrinting bool

	// Subscribers, invoked in order while mu is held.
	preChange  []func(commandID string)
	changed    []func(Transition)
	postChange []func()
}

// NewManager creates a Manager with base READY and no activity or
// override. Reported history starts at the initial reduction.
func NewManager() *Manager {
	m := &Manager{
		logger:   noopLogger{},
		base:     StateReady,
		progress: progressUnknown,
	}
	m.last = m.reportable()
	m.current = m.reportable()
	return m
}

// SetLogger sets the logger for the manager.
func (m *Manager) SetLogger(logger Logger) {
	m.logger = logger
}

// SetJobStatus wires the file-job driver in. Called once during startup;
// the driver itself depends on the Manager, so this cannot happen in the
// constructor.
func (m *Manager) SetJobStatus(jobs JobStatus) {
	m.jobs = jobs
}

// OnPreChange registers a subscriber called before each state-changed
// notification, carrying only the attributed command ID.
// Register subscribers during startup, before output is flowing.
func (m *Manager) OnPreChange(fn func(commandID string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.preChange = append(m.preChange, fn)
}

// OnStateChange registers a subscriber for detected transitions.
// Subscribers run synchronously under the state lock and must not call
// back into the Manager.
func (m *Manager) OnStateChange(fn func(Transition)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changed = append(m.changed, fn)
}

// OnPostChange registers a subscriber called after each state-changed
// notification.
func (m *Manager) OnPostChange(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.postChange = append(m.postChange, fn)
}

// reportable reduces the three layers to the one reportable state:
// override if set, else activity if set, else base. Callers hold mu.
func (m *Manager) reportable() State {
	if m.override != stateUnset {
		return m.override
	}
	if m.activity != stateUnset {
		return m.activity
	}
	return m.base
}

// CurrentState returns the reportable state.
func (m *Manager) CurrentState() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// LastState returns the reportable state before the most recent change.
func (m *Manager) LastState() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// IsPrinting reports whether the activity layer holds PRINTING.
func (m *Manager) IsPrinting() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activity == StatePrinting
}

// HasOverride reports whether an override (ATTENTION or ERROR) is set.
func (m *Manager) HasOverride() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.override != stateUnset
}

// Progress returns the last reported print progress in percent, or -1
// when no report has arrived yet.
func (m *Manager) Progress() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.progress
}

// Expect pushes an expectation for the next mutating operation,
// overriding that operation's default. Used by command dispatch before
// issuing a command whose effect should be attributed to it.
//
// When an expectation is already pending the push is ignored and the
// pending one stays authoritative; this is logged, not an error.
// The push must happen-before the mutating call it anticipates.
func (m *Manager) Expect(exp *Expectation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.expected != nil {
		m.logger.Warn("expectation already pending, ignoring the new one",
			"pending_command_id", m.expected.CommandID,
			"ignored_command_id", exp.CommandID,
		)
		return
	}
	m.expected = exp
}

// PendingExpectation returns the pending expectation, or nil.
func (m *Manager) PendingExpectation() *Expectation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expected
}

// ClearExpectation discards any pending expectation.
func (m *Manager) ClearExpectation() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expected = nil
}

// influence is the bracket around every mutating operation: it installs
// def as the expectation unless a caller already pushed one, applies the
// mutation, runs the detect-and-notify cycle and discards whatever
// expectation was in force. The expectation therefore never outlives
// the operation, whether or not a reportable change occurred.
func (m *Manager) influence(def *Expectation, body func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.expected == nil {
		m.expected = def
	} else {
		m.logger.Debug("default expectation overridden by a pending one",
			"command_id", m.expected.CommandID)
	}

	body()
	m.detectAndNotify()
	m.expected = nil
}

// detectAndNotify recomputes the reportable state and, when it differs
// from the reported one, shifts the history, attributes the transition
// and publishes the three notifications in pre, changed, post order.
// Callers hold mu, so no other operation can interleave its own cycle
// between them.
func (m *Manager) detectAndNotify() {
	next := m.reportable()
	if next == m.current {
		return
	}

	m.last = m.current
	m.current = next

	var commandID string
	source := sourceNone
	if m.expected.Matches(m.last, m.current) {
		commandID = m.expected.CommandID
		source = m.expected.ResolveSource(m.last, m.current)
	} else {
		// Not an error: plenty of transitions originate on the printer
		// itself with nothing announcing them beforehand.
		m.logger.Debug("unexpected state change",
			"from", m.last, "to", m.current)
	}
	m.expected = nil

	m.logger.Info("printer state changed",
		"from", m.last,
		"to", m.current,
		"source", source,
		"command_id", commandID,
	)

	for _, fn := range m.preChange {
		fn(commandID)
	}
	t := Transition{
		From:      m.last,
		To:        m.current,
		Source:    source,
		CommandID: commandID,
	}
	for _, fn := range m.changed {
		fn(t)
	}
	for _, fn := range m.postChange {
		fn()
	}
}

// --- Mutating operations, one per observable printer condition ---
//
// Each is an idempotent no-op when the condition it asserts is already
// reflected in the relevant layer.

// Printing records that a print is underway, however that was noticed.
func (m *Manager) Printing() {
	m.influence(&Expectation{
		ToStates: map[State]Source{StatePrinting: SourceUser},
	}, func() {
		if m.activity == stateUnset {
			m.activity = StatePrinting
		}
	})
}

// NotPrinting clears the print activity, typically after a cancel.
func (m *Manager) NotPrinting() {
	m.influence(&Expectation{
		FromStates: map[State]Source{
			StatePrinting: SourceFirmware,
			StatePaused:   SourceFirmware,
			StateFinished: SourceFirmware,
		},
	}, func() {
		if m.activity != stateUnset {
			m.activity = stateUnset
		}
	})
}

// Finished records that a running print completed.
func (m *Manager) Finished() {
	m.influence(&Expectation{
		ToStates: map[State]Source{StateFinished: SourceFirmware},
	}, func() {
		if m.activity == StatePrinting {
			m.activity = StateFinished
		}
	})
}

// Busy records a firmware busy announcement.
func (m *Manager) Busy() {
	m.influence(&Expectation{
		ToStates: map[State]Source{StateBusy: SourceFirmware},
	}, func() {
		if m.base == StateReady {
			m.base = StateBusy
		}
	})
}

// Paused records a paused print. Pauses requested by the user and by
// the G-code itself are indistinguishable on the output stream.
func (m *Manager) Paused() {
	m.influence(&Expectation{
		ToStates: map[State]Source{StatePaused: SourceUser},
	}, func() {
		if m.activity == StatePrinting {
			m.activity = StatePaused
		}
	})
}

// Resumed records a paused print resuming.
func (m *Manager) Resumed() {
	m.influence(&Expectation{
		ToStates: map[State]Source{StatePrinting: SourceUser},
	}, func() {
		if m.activity == StatePaused {
			m.activity = StatePrinting
		}
	})
}

// Acknowledged handles the firmware's "ok": the printer is no longer
// busy, a finished print is acknowledged, and any override is lifted.
func (m *Manager) Acknowledged() {
	m.influence(&Expectation{
		ToStates: map[State]Source{StateReady: SourceFirmware},
		FromStates: map[State]Source{
			StateAttention: SourceUser,
			StateError:     SourceUser,
			StateBusy:      SourceHardware,
		},
	}, func() {
		if m.base == StateBusy {
			m.base = StateReady
		}
		if m.activity == StateFinished {
			m.activity = stateUnset
		}
		if m.override != stateUnset {
			m.logger.Debug("override lifted", "was", m.override)
			m.override = stateUnset
		}
	})
}

// AttentionRequired records that the printer is waiting for the user.
func (m *Manager) AttentionRequired() {
	m.influence(&Expectation{
		ToStates: map[State]Source{StateAttention: SourceUser},
	}, func() {
		m.override = StateAttention
	})
}

// ErrorRaised records a firmware-reported error.
func (m *Manager) ErrorRaised() {
	m.influence(&Expectation{
		ToStates: map[State]Source{StateError: SourceUI},
	}, func() {
		m.override = StateError
	})
}

// SerialErrorRaised records a failure of the serial link itself.
func (m *Manager) SerialErrorRaised() {
	m.influence(&Expectation{
		ToStates: map[State]Source{StateError: SourceSerial},
	}, func() {
		m.override = StateError
	})
}

// SerialErrorResolved lifts an ERROR override once the serial link
// recovers.
func (m *Manager) SerialErrorResolved() {
	m.influence(&Expectation{
		ToStates: map[State]Source{StateReady: SourceSerial},
	}, func() {
		if m.override == StateError {
			m.override = stateUnset
		}
	})
}

// --- Side-channel telemetry ---
//
// These update auxiliary fields consulted by the decision logic above.
// TelemetryProgress does not run a detect-and-notify cycle on its own.

// TelemetryProgress stores the latest reported progress percentage.
func (m *Manager) TelemetryProgress(percent int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.progress = percent
}

// TelemetrySDPrinting interprets the firmware's periodic SD-print
// report. A print driven by the local file-job component keeps the
// printing state even though the firmware reports no SD activity.
func (m *Manager) TelemetrySDPrinting(active bool) {
	printing := active || m.jobPrinting()

	m.mu.Lock()
	m.sdPrinting = active
	paused := m.activity == StatePaused
	m.mu.Unlock()

	// FIXME: while paused, a "not printing" report must not end the
	// print. Whether a paused print still exists cannot be detected
	// from the output stream, so paused is sticky against this signal.
	if !printing && !paused {
		m.NotPrinting()
	} else {
		m.Printing()
	}
}

// jobPrinting reports whether the file-job driver is streaming.
func (m *Manager) jobPrinting() bool {
	return m.jobs != nil && m.jobs.Printing()
}

// --- File-job hooks ---

// JobStartedPrinting reacts to the file-job driver starting a print.
// The transition is attributed to the local job service rather than to
// the operation's usual default.
func (m *Manager) JobStartedPrinting() {
	if !m.jobPrinting() {
		return
	}
	m.mu.Lock()
	already := m.activity == StatePrinting
	m.mu.Unlock()
	if already {
		return
	}
	m.Expect(&Expectation{
		ToStates: map[State]Source{StatePrinting: SourceConnect},
	})
	m.Printing()
}

// JobStoppedPrinting reacts to the file-job driver finishing. Only a
// job that reached full progress counts as finished; anything else is
// reported by the firmware through its own channels.
func (m *Manager) JobStoppedPrinting() {
	m.mu.Lock()
	done := m.progress == 100 //nolint:mnd // percent complete
	m.mu.Unlock()
	if !done {
		return
	}
	m.Expect(&Expectation{
		ToStates: map[State]Source{StateFinished: SourceFirmware},
	})
	m.Finished()
}

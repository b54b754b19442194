package serial

import (
	"strconv"

	"github.com/ondraz/printlink/internal/state"
)

// RegisterStateHandlers installs the fixed table binding firmware
// output patterns to the state manager's operations. Captured groups
// are parsed here; the manager never sees raw printer output.
func RegisterStateHandlers(p *Parser, mgr *state.Manager) {
	p.Add(ConfirmationRegex, PriorityConfirmation, func([]string) {
		mgr.Acknowledged()
	})
	p.Add(AttentionRegex, PriorityAttention, func([]string) {
		mgr.AttentionRequired()
	})
	p.Add(BusyRegex, PriorityDefault, func([]string) {
		mgr.Busy()
	})
	p.Add(PausedRegex, PriorityDefault, func([]string) {
		mgr.Paused()
	})
	p.Add(ResumedRegex, PriorityDefault, func([]string) {
		mgr.Resumed()
	})
	p.Add(CancelRegex, PriorityDefault, func([]string) {
		mgr.NotPrinting()
	})
	p.Add(StartPrintRegex, PriorityDefault, func([]string) {
		mgr.Printing()
	})
	p.Add(PrintDoneRegex, PriorityDefault, func([]string) {
		mgr.Finished()
	})
	p.Add(ErrorRegex, PriorityDefault, func([]string) {
		mgr.ErrorRaised()
	})
	p.Add(PrintInfoRegex, PriorityDefault, func(groups []string) {
		percent, err := strconv.Atoi(groups[1])
		if err != nil {
			return
		}
		mgr.TelemetryProgress(percent)
	})
	p.Add(SDPrintingRegex, PriorityDefault, func(groups []string) {
		// Submatch 1 is "Not SD printing" when idle.
		mgr.TelemetrySDPrinting(groups[1] == "")
	})
}

// Package filejob drives prints from local G-code files.
//
// The Driver streams a file line by line through the command
// dispatcher, waiting for each confirmation before sending the next
// line. It reports lifecycle events into the state manager's file-job
// hooks and progress into its telemetry side channel, so layered state
// reduction sees a host-driven print exactly like one started from the
// printer itself.
//
//	Start(file) ──► Driver ──Send──► command.Dispatcher ──► printer
//	                  │
//	                  ├──JobStartedPrinting / JobStoppedPrinting──► state.Manager
//	                  └──RecordStart / RecordFinish──► SQLiteRepository
//
// Pause, Resume and Stop are honoured mid-stream: pause parks the
// streaming goroutine after the in-flight line confirms, stop cancels
// it. Completed and aborted jobs are persisted to the jobs table with
// an outcome.
package filejob

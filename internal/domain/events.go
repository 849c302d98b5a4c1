package domain

// EventType represents the type of domain event
type EventType string

// Event types
const (
	EventLogAppended     EventType = "LogAppended"
	EventProgressUpdated EventType = "ProgressUpdated"
	EventStepChanged     EventType = "StepChanged"
	EventRunStarted      EventType = "RunStarted"
	EventRunFinished     EventType = "RunFinished"
	EventSectionReport   EventType = "SectionReport"
	EventContactHandled  EventType = "ContactHandled"
	EventScreenshotSaved EventType = "ScreenshotSaved"
	EventChecksCompleted EventType = "ChecksCompleted"
	EventError           EventType = "Error"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	Type() EventType
}

// LogAppendedEvent carries one user-visible log line from the worker.
type LogAppendedEvent struct {
	Line string
}

func (e LogAppendedEvent) Type() EventType { return EventLogAppended }

// ProgressUpdatedEvent reports run progress in percent (0..100).
type ProgressUpdatedEvent struct {
	Percent float64
}

func (e ProgressUpdatedEvent) Type() EventType { return EventProgressUpdated }

// StepChangedEvent reports the label of the pipeline step now executing.
type StepChangedEvent struct {
	Label string
}

func (e StepChangedEvent) Type() EventType { return EventStepChanged }

// RunStartedEvent is emitted when the worker accepts a run.
type RunStartedEvent struct {
	DryRun bool
}

func (e RunStartedEvent) Type() EventType { return EventRunStarted }

// RunFinishedEvent is emitted exactly once per run with its terminal state.
type RunFinishedEvent struct {
	Status   RunStatus
	Result   CycleResult
	Sections []SectionReport
	Reason   string // human-readable abort/termination reason
}

func (e RunFinishedEvent) Type() EventType { return EventRunFinished }

// SectionReportEvent is emitted per calibrated section.
type SectionReportEvent struct {
	Report SectionReport
}

func (e SectionReportEvent) Type() EventType { return EventSectionReport }

// ContactHandledEvent is emitted after each contact row is processed.
type ContactHandledEvent struct {
	Name    string
	Success bool
}

func (e ContactHandledEvent) Type() EventType { return EventContactHandled }

// ScreenshotSavedEvent is emitted when a diagnostic screenshot is written.
type ScreenshotSavedEvent struct {
	Path string
}

func (e ScreenshotSavedEvent) Type() EventType { return EventScreenshotSaved }

// ChecksCompletedEvent carries the startup environment check outcomes.
type ChecksCompletedEvent struct {
	Results []CheckResult
}

func (e ChecksCompletedEvent) Type() EventType { return EventChecksCompleted }

// CheckResult is one environment check outcome (resolution, target app, ...).
type CheckResult struct {
	Name    string
	OK      bool
	Detail  string
	Blocker bool // blocks live runs when failed
}

// ErrorEvent is emitted when an error occurs
type ErrorEvent struct {
	Message string
	Err     error
}

func (e ErrorEvent) Type() EventType { return EventError }

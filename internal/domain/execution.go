package domain

// Exit codes reported in execution metadata for routing failures.
const (
	ExitCodeOK         = 0
	ExitCodeHandlerErr = 1
	ExitCodeDisallowed = 126
	ExitCodeNoHandler  = 127
)

// ExecutionResult wraps one execution attempt. Created once per attempt,
// immutable, reported upward.
type ExecutionResult struct {
	Success     bool
	Output      string
	Error       string
	DurationMS  int64
	CommandEcho string
	ExitCode    int
	Warnings    []string
	Suggestions []string
}

// HandlerResult is the raw output of a domain handler. Handlers never
// return Go errors; failures surface in the Err field.
type HandlerResult struct {
	Output      string
	Err         string
	Warnings    []string
	Suggestions []string
}

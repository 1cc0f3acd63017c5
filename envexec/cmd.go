package envexec

import (
	"errors"
	"syscall"
	"time"

	"github.com/criyle/go-sandbox/runner"
)

// Size represent data size in bytes
type Size = runner.Size

// ErrToolchainNotFound is returned when the program to start does not exist
// or the operating system refused to start it
var ErrToolchainNotFound = errors.New("toolchain not found or failed to start")

// Cmd defines instruction to run a single program as a child process
type Cmd struct {
	// exec argument, environment
	Args    []string
	Env     []string
	WorkDir string

	// Stdin is the path of the file wired to standard input, /dev/null if empty
	Stdin string

	// resource limits
	Limit Limit

	// MemoryPatterns are stderr fragments that the runtime prints when it
	// runs out of memory
	MemoryPatterns []string

	// Seccomp is installed before exec when not nil (linux only)
	Seccomp *Filter
}

// Limit defines the process running resource limits
type Limit struct {
	Time   time.Duration // wall clock limit, zero for unlimited
	Memory Size          // address space limit, zero for unlimited
	Output Size          // stdout / stderr capture limit each, zero for unlimited
}

// Outcome defines the facts collected from one finished run.
// It is created once per run and never modified afterwards.
type Outcome struct {
	Stdout   string
	Stderr   string
	ExitCode int // -1 when terminated by signal

	Signal         syscall.Signal // zero if exited normally
	TimedOut       bool
	MemoryExceeded bool

	// CompileError marks the outcome of a failed compilation, stderr holds
	// the compiler diagnostics verbatim
	CompileError bool

	// OutputTruncated is set when stdout or stderr exceeded the output limit
	OutputTruncated bool

	Time   time.Duration // wall time
	Memory Size          // peak resident set size when reported by the platform
}

// SignalName returns the name of the termination signal, empty if none
func (o *Outcome) SignalName() string {
	if o == nil || o.Signal == 0 {
		return ""
	}
	return signalName(o.Signal)
}

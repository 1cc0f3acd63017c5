package envexec

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"
	"syscall"
	"time"
)

// drainGrace bounds how long output is read after the child has exited
const drainGrace = 100 * time.Millisecond

// Run starts the command and waits until it exits or is killed by its time
// limit. Exactly one Outcome is returned for every started process. The run is
// never cancelled from outside: the wall clock timer is the only way to stop it.
func Run(c *Cmd) (*Outcome, error) {
	if len(c.Args) == 0 {
		return nil, errors.New("run: no command provided")
	}
	path, err := exec.LookPath(c.Args[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrToolchainNotFound, c.Args[0], err)
	}

	stdin, err := openInput(c.Stdin)
	if err != nil {
		return nil, fmt.Errorf("run: open input: %w", err)
	}
	defer stdin.Close()

	stdout, err := newCollector(c.Limit.Output)
	if err != nil {
		return nil, fmt.Errorf("run: stdout pipe: %w", err)
	}
	stderr, err := newCollector(c.Limit.Output)
	if err != nil {
		closeFiles(stdout.W)
		stdout.Finish(0)
		return nil, fmt.Errorf("run: stderr pipe: %w", err)
	}

	sTime := time.Now()
	p, err := start(path, c, []*os.File{stdin, stdout.W, stderr.W})
	// the child holds its own copies
	closeFiles(stdout.W, stderr.W)
	if err != nil {
		stdout.Finish(0)
		stderr.Finish(0)
		return nil, fmt.Errorf("%w: %s: %v", ErrToolchainNotFound, path, err)
	}

	var (
		timedOut atomic.Bool
		timer    *time.Timer
	)
	if c.Limit.Time > 0 {
		timer = time.AfterFunc(c.Limit.Time, func() {
			timedOut.Store(true)
			killGroup(p)
		})
	}

	ps, waitErr := p.Wait()
	fTime := time.Now()
	if timer != nil {
		timer.Stop()
	}
	// descendants left behind must not outlive the run or hold the pipes
	killGroup(p)

	o := &Outcome{
		Stdout: stdout.Finish(drainGrace),
		Stderr: stderr.Finish(drainGrace),
		Time:   fTime.Sub(sTime),
	}
	o.OutputTruncated = stdout.truncated || stderr.truncated
	if waitErr != nil {
		return nil, fmt.Errorf("run: wait: %w", waitErr)
	}

	o.ExitCode = ps.ExitCode()
	if ws, ok := ps.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		o.Signal = ws.Signal()
		o.ExitCode = -1
	}
	o.Memory = maxRSS(ps)

	// the timer overrides anything the program produced
	if timedOut.Load() {
		o.TimedOut = true
		return o, nil
	}
	o.MemoryExceeded = memoryExceeded(c, o)
	return o, nil
}

// memoryExceeded attributes the termination to the memory bound when the
// runtime reports an allocation failure or the kernel killed the process
// while an address space cap was in place.
func memoryExceeded(c *Cmd, o *Outcome) bool {
	for _, p := range c.MemoryPatterns {
		if p != "" && strings.Contains(o.Stderr, p) {
			return true
		}
	}
	return MemoryLimitSupported && c.Limit.Memory > 0 && o.Signal == syscall.SIGKILL
}

func openInput(name string) (*os.File, error) {
	if name == "" {
		name = os.DevNull
	}
	return os.Open(name)
}

package envexec

import (
	"os"
	"syscall"

	"github.com/criyle/go-sandbox/pkg/forkexec"
	"github.com/criyle/go-sandbox/pkg/rlimit"
	"golang.org/x/sys/unix"
)

// MemoryLimitSupported reports whether the address space cap is enforced on
// this platform. When false, MemoryLimitExceeded can only be reported from
// runtime specific out of memory messages.
const MemoryLimitSupported = true

// start forks the child with its rlimits applied before exec
func start(path string, c *Cmd, files []*os.File) (*os.Process, error) {
	rLimits := rlimit.RLimits{
		FileSize:     c.Limit.Output.Byte(),
		AddressSpace: c.Limit.Memory.Byte(),
		DisableCore:  true,
	}
	args := append([]string{path}, c.Args[1:]...)

	r := &forkexec.Runner{
		Args:    args,
		Env:     c.Env,
		Files:   getFdArray(files),
		WorkDir: c.WorkDir,
		RLimits: rLimits.PrepareRLimit(),
	}
	if c.Seccomp != nil && len(c.Seccomp.prog) > 0 {
		r.Seccomp = &syscall.SockFprog{
			Len:    uint16(len(c.Seccomp.prog)),
			Filter: &c.Seccomp.prog[0],
		}
		r.NoNewPrivs = true
	}

	pid, err := r.Start()
	if err != nil {
		return nil, err
	}
	p, err := os.FindProcess(pid)
	if err != nil {
		// unreachable on unix, make sure the child does not run unbounded
		unix.Kill(pid, unix.SIGKILL)
		var ws unix.WaitStatus
		unix.Wait4(pid, &ws, 0, nil)
		return nil, err
	}
	return p, nil
}

// killGroup kills the process group of p. forkexec starts every child in a
// new session, so the group id is the pid of the child.
func killGroup(p *os.Process) {
	unix.Kill(-p.Pid, unix.SIGKILL)
	p.Kill()
}

func maxRSS(ps *os.ProcessState) Size {
	if ru, ok := ps.SysUsage().(*syscall.Rusage); ok {
		return Size(ru.Maxrss) << 10 // kb
	}
	return 0
}

func signalName(s syscall.Signal) string {
	if n := unix.SignalName(s); n != "" {
		return n
	}
	return s.String()
}

func getFdArray(fd []*os.File) []uintptr {
	r := make([]uintptr, 0, len(fd))
	for _, f := range fd {
		r = append(r, f.Fd())
	}
	return r
}

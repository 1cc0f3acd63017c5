//go:build !linux

package envexec

import (
	"os"
	"syscall"
)

// MemoryLimitSupported reports whether the address space cap is enforced on
// this platform. Only linux applies the cap, elsewhere Limit.Memory is ignored
// and MemoryLimitExceeded can only come from runtime out of memory messages.
const MemoryLimitSupported = false

func start(path string, c *Cmd, files []*os.File) (*os.Process, error) {
	args := append([]string{path}, c.Args[1:]...)
	return os.StartProcess(path, args, &os.ProcAttr{
		Dir:   c.WorkDir,
		Env:   c.Env,
		Files: files,
	})
}

// killGroup only kills p, descendants are not tracked on this platform
func killGroup(p *os.Process) {
	p.Kill()
}

func maxRSS(*os.ProcessState) Size {
	return 0
}

func signalName(s syscall.Signal) string {
	return s.String()
}

package envexec

import "syscall"

// Filter is an assembled seccomp program installed in the child before exec
type Filter struct {
	prog []syscall.SockFilter
}

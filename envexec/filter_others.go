//go:build !linux

package envexec

// Filter is an assembled seccomp program, unused outside linux
type Filter struct{}

// LoadSeccomp is not supported on this platform
func LoadSeccomp(string) (*Filter, error) {
	return nil, nil
}

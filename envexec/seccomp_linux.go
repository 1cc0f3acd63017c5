//go:build seccomp

package envexec

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/elastic/go-seccomp-bpf"
	"github.com/elastic/go-ucfg/yaml"
	"golang.org/x/net/bpf"
)

// LoadSeccomp reads a seccomp policy from a yaml file. A missing file
// disables the filter.
func LoadSeccomp(name string) (*Filter, error) {
	if name == "" {
		return nil, nil
	}
	policy, err := readPolicy(name)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("seccomp policy %s: %w", name, err)
	}

	prog, err := policy.Assemble()
	if err != nil {
		return nil, fmt.Errorf("seccomp policy %s: %w", name, err)
	}
	raw, err := bpf.Assemble(prog)
	if err != nil {
		return nil, fmt.Errorf("seccomp policy %s: %w", name, err)
	}

	f := &Filter{prog: make([]syscall.SockFilter, len(raw))}
	for i, r := range raw {
		f.prog[i] = syscall.SockFilter{Code: r.Op, Jt: r.Jt, Jf: r.Jf, K: r.K}
	}
	return f, nil
}

func readPolicy(name string) (*seccomp.Policy, error) {
	conf, err := yaml.NewConfigWithFile(name)
	if err != nil {
		return nil, err
	}
	p := new(seccomp.Policy)
	if err := conf.Unpack(p); err != nil {
		return nil, err
	}
	return p, nil
}

package envexec

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"
)

const shell = "/bin/sh"

var testEnv = []string{"PATH=/usr/local/bin:/usr/bin:/bin"}

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := os.Stat(shell); err != nil {
		t.Skip("no /bin/sh on this platform")
	}
}

func shCmd(script string, limit Limit) *Cmd {
	return &Cmd{
		Args:  []string{shell, "-c", script},
		Env:   testEnv,
		Limit: limit,
	}
}

func TestRunStatus(t *testing.T) {
	requireShell(t)

	limit := Limit{Time: 5 * time.Second, Output: 1 << 20}
	tests := []struct {
		Name     string
		Script   string
		Stdout   string
		Stderr   string
		ExitCode int
	}{
		{
			Name:   "Print",
			Script: "echo 2",
			Stdout: "2\n",
		},
		{
			Name:     "NonzeroExit",
			Script:   "echo oops >&2; exit 3",
			Stderr:   "oops\n",
			ExitCode: 3,
		},
		{
			Name:     "Signalled",
			Script:   "kill -s SEGV $$",
			ExitCode: -1,
		},
	}
	for _, tc := range tests {
		t.Run(tc.Name, func(t *testing.T) {
			o, err := Run(shCmd(tc.Script, limit))
			if err != nil {
				t.Fatalf("run failed: %v", err)
			}
			if o.Stdout != tc.Stdout {
				t.Errorf("expected stdout %q, got %q", tc.Stdout, o.Stdout)
			}
			if o.Stderr != tc.Stderr {
				t.Errorf("expected stderr %q, got %q", tc.Stderr, o.Stderr)
			}
			if o.ExitCode != tc.ExitCode {
				t.Errorf("expected exit code %d, got %d", tc.ExitCode, o.ExitCode)
			}
			if o.TimedOut || o.MemoryExceeded {
				t.Errorf("unexpected limit flags: %+v", o)
			}
		})
	}
}

func TestRunSignalName(t *testing.T) {
	requireShell(t)

	o, err := Run(shCmd("kill -s SEGV $$", Limit{Time: 5 * time.Second}))
	if err != nil {
		t.Fatal(err)
	}
	if o.Signal != syscall.SIGSEGV {
		t.Fatalf("expected SIGSEGV, got %v", o.Signal)
	}
	if o.SignalName() == "" {
		t.Error("expected signal name")
	}
}

func TestRunStdin(t *testing.T) {
	requireShell(t)

	input := filepath.Join(t.TempDir(), "input.txt")
	if err := os.WriteFile(input, []byte("1 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c := shCmd("read a b; echo $((a + b))", Limit{Time: 5 * time.Second})
	c.Stdin = input

	o, err := Run(c)
	if err != nil {
		t.Fatal(err)
	}
	if o.Stdout != "3\n" {
		t.Fatalf("expected 3, got %q", o.Stdout)
	}
}

func TestRunTimeLimit(t *testing.T) {
	requireShell(t)

	const limit = 300 * time.Millisecond
	sTime := time.Now()
	o, err := Run(shCmd("echo 2; exec sleep 10", Limit{Time: limit}))
	elapsed := time.Since(sTime)
	if err != nil {
		t.Fatal(err)
	}
	if !o.TimedOut {
		t.Fatalf("expected timed out, got %+v", o)
	}
	if o.MemoryExceeded {
		t.Error("kill by the timer must not count as memory exceeded")
	}
	if elapsed < limit {
		t.Errorf("killed before the limit: %v", elapsed)
	}
	if elapsed > 5*time.Second {
		t.Errorf("not killed in time: %v", elapsed)
	}
}

func TestRunOutputLimit(t *testing.T) {
	requireShell(t)

	o, err := Run(shCmd("i=0; while [ $i -lt 100 ]; do echo 0123456789; i=$((i+1)); done", Limit{
		Time:   5 * time.Second,
		Output: 64,
	}))
	if err != nil {
		t.Fatal(err)
	}
	if len(o.Stdout) != 64 || !o.OutputTruncated {
		t.Fatalf("expected 64 bytes truncated output, got %d (%v)", len(o.Stdout), o.OutputTruncated)
	}
}

func TestRunMemoryPattern(t *testing.T) {
	requireShell(t)

	c := shCmd("echo 'MemoryError' >&2; exit 1", Limit{Time: 5 * time.Second})
	c.MemoryPatterns = []string{"MemoryError"}
	o, err := Run(c)
	if err != nil {
		t.Fatal(err)
	}
	if !o.MemoryExceeded {
		t.Fatalf("expected memory exceeded from stderr pattern, got %+v", o)
	}
}

func TestRunKilledUnderMemoryCap(t *testing.T) {
	requireShell(t)

	o, err := Run(shCmd("kill -s KILL $$", Limit{Time: 5 * time.Second, Memory: 256 << 20}))
	if err != nil {
		t.Fatal(err)
	}
	if o.MemoryExceeded != MemoryLimitSupported {
		t.Fatalf("expected memory exceeded = %v, got %+v", MemoryLimitSupported, o)
	}
}

func TestRunToolchainNotFound(t *testing.T) {
	_, err := Run(&Cmd{
		Args:  []string{"definitely-not-a-compiler-on-path"},
		Limit: Limit{Time: time.Second},
	})
	if !errors.Is(err, ErrToolchainNotFound) {
		t.Fatalf("expected ErrToolchainNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "definitely-not-a-compiler-on-path") {
		t.Errorf("expected diagnostic to name the command: %v", err)
	}
}

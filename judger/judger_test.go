package judger

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/codeg/judge/client"
	"github.com/codeg/judge/envexec"
	"github.com/codeg/judge/language"
	"github.com/codeg/judge/problem"
	"github.com/codeg/judge/runner"
	"github.com/codeg/judge/types"
	"github.com/codeg/judge/workspace"
	"go.uber.org/zap/zaptest"
)

const addScript = "read a b\necho $((a + b))\n"

type recordingObserver struct {
	mu         sync.Mutex
	cases      []types.Verdict
	deliveries []error
}

func (o *recordingObserver) ObserveCase(v types.Verdict, _ *envexec.Outcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cases = append(o.cases, v)
}

func (o *recordingObserver) ObserveSubmission(string, types.Verdict) {}

func (o *recordingObserver) ObserveDelivery(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.deliveries = append(o.deliveries, err)
}

type fakeCatalog map[string][]types.TestCase

func (c fakeCatalog) Get(_ context.Context, id string) ([]types.TestCase, error) {
	cases, ok := c[id]
	if !ok {
		return nil, problem.ErrNotFound
	}
	return cases, nil
}

func newTestJudger(t *testing.T, conf Config) *Judger {
	t.Helper()
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no /bin/sh")
	}
	w, err := workspace.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	reg, err := language.NewRegistry(nil)
	if err != nil {
		t.Fatal(err)
	}
	reg.Register(&language.Interpreted{LangName: "sh", Ext: ".sh", Interpreter: "/bin/sh"})
	// the source is a shell script run as the compiler
	reg.Register(&language.Native{LangName: "shc", Ext: ".shc", Compiler: "/bin/sh"})
	reg.Register(&language.Native{LangName: "missing", Ext: ".x", Compiler: "no-such-compiler-on-path"})

	conf.Workspace = w
	conf.Runner = &runner.Runner{
		Languages:   reg,
		Compiler:    &language.Compiler{TimeLimit: 10 * time.Second, OutputLimit: 1 << 20},
		Env:         []string{"PATH=/usr/local/bin:/usr/bin:/bin"},
		OutputLimit: 1 << 20,
	}
	if conf.RunLimit.Time == 0 {
		conf.RunLimit = envexec.Limit{Time: 5 * time.Second}
	}
	conf.Logger = zaptest.NewLogger(t)
	return New(conf)
}

func assertWorkspaceEmpty(t *testing.T, j *Judger) {
	t.Helper()
	entries, err := os.ReadDir(j.Workspace.Dir())
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		t.Errorf("artifact left in workspace: %s", e.Name())
	}
}

func addCases(outputs ...string) []types.TestCase {
	var r []types.TestCase
	for i, o := range outputs {
		in := strings.Repeat("1", i+1)
		r = append(r, types.TestCase{Input: in + " 0\n", Output: o})
	}
	return r
}

func TestJudgeAccepted(t *testing.T) {
	j := newTestJudger(t, Config{})
	var states []types.State
	r, err := j.Judge(&types.Submission{
		Language:  "sh",
		Source:    addScript,
		TestCases: addCases("1\n", "  11 ", "111"),
		TimeLimit: 5 * time.Second,
	}, func(p types.Progress) { states = append(states, p.State) })
	if err != nil {
		t.Fatal(err)
	}
	if r.Verdict != types.VerdictAccepted || len(r.Results) != 3 {
		t.Fatalf("unexpected result %+v", r)
	}
	for i, c := range r.Results {
		if c.Index != i+1 || !c.Passed {
			t.Errorf("unexpected case %+v", c)
		}
	}
	if states[0] != types.StatePreparing || states[len(states)-1] != types.StateCompleted {
		t.Errorf("unexpected transitions %v", states)
	}
	assertWorkspaceEmpty(t, j)
}

func TestJudgeEarlyExit(t *testing.T) {
	obs := &recordingObserver{}
	j := newTestJudger(t, Config{Observer: obs})
	r, err := j.Judge(&types.Submission{
		Language:  "sh",
		Source:    addScript,
		TestCases: addCases("1", "12", "111", "1111"),
		TimeLimit: 5 * time.Second,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(r.Results))
	}
	if r.Verdict != types.VerdictWrongAnswer || r.Results[1].Passed {
		t.Errorf("unexpected result %+v", r)
	}
	if r.ErrorDetails != "" {
		t.Errorf("wrong answer carries no details, got %q", r.ErrorDetails)
	}
	if len(obs.cases) != 2 {
		t.Errorf("expected 2 executed cases, got %d", len(obs.cases))
	}
	assertWorkspaceEmpty(t, j)
}

func TestJudgeTimeLimit(t *testing.T) {
	j := newTestJudger(t, Config{})
	start := time.Now()
	r, err := j.Judge(&types.Submission{
		Language:  "sh",
		Source:    "sleep 3\necho 2\n",
		TestCases: []types.TestCase{{Output: "2"}, {Output: "2"}},
		TimeLimit: 300 * time.Millisecond,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if r.Verdict != types.VerdictTimeLimitExceeded || len(r.Results) != 1 {
		t.Fatalf("unexpected result %+v", r)
	}
	if time.Since(start) > 2500*time.Millisecond {
		t.Errorf("time limit not enforced: %v", time.Since(start))
	}
	assertWorkspaceEmpty(t, j)
}

func TestJudgeRuntimeError(t *testing.T) {
	j := newTestJudger(t, Config{})
	r, err := j.Judge(&types.Submission{
		Language:  "sh",
		Source:    "echo \"$0: boom\" >&2\nexit 2\n",
		TestCases: addCases("1"),
		TimeLimit: 5 * time.Second,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if r.Verdict != types.VerdictRuntimeError {
		t.Fatalf("expected runtime error, got %+v", r)
	}
	if r.ErrorDetails != "your_code: boom\n" {
		t.Errorf("expected sanitized details, got %q", r.ErrorDetails)
	}
	assertWorkspaceEmpty(t, j)
}

func TestJudgeCompilationError(t *testing.T) {
	j := newTestJudger(t, Config{})
	r, err := j.Judge(&types.Submission{
		Language:  "shc",
		Source:    "echo \"$0:1:1: error: expected ';'\" >&2\nexit 1\n",
		TestCases: addCases("1", "11"),
		TimeLimit: 5 * time.Second,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if r.Verdict != types.VerdictCompilationError || len(r.Results) != 1 {
		t.Fatalf("unexpected result %+v", r)
	}
	if r.ErrorDetails != "your_code:1:1: error: expected ';'\n" {
		t.Errorf("expected sanitized diagnostics, got %q", r.ErrorDetails)
	}
	if strings.Contains(r.ErrorDetails, j.Workspace.Dir()) {
		t.Error("workspace path leaked")
	}
	assertWorkspaceEmpty(t, j)
}

func TestJudgeCompiled(t *testing.T) {
	j := newTestJudger(t, Config{})
	// the compiler writes the program to the path after -o
	src := "printf '#!/bin/sh\\nread a b\\necho $((a + b))\\n' > \"$2\"\n"
	r, err := j.Judge(&types.Submission{
		Language:  "shc",
		Source:    src,
		TestCases: addCases("1", "11"),
		TimeLimit: 5 * time.Second,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if r.Verdict != types.VerdictAccepted || len(r.Results) != 2 {
		t.Fatalf("unexpected result %+v", r)
	}
	assertWorkspaceEmpty(t, j)
}

func TestJudgeSystemError(t *testing.T) {
	j := newTestJudger(t, Config{})
	r, err := j.Judge(&types.Submission{
		Language:  "missing",
		Source:    "int main() {}",
		TestCases: addCases("1"),
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if r.Verdict != types.VerdictSystemError || len(r.Results) != 0 {
		t.Fatalf("unexpected result %+v", r)
	}
	if !strings.Contains(r.ErrorMessage, "no-such-compiler-on-path") {
		t.Errorf("expected diagnostic naming the toolchain, got %q", r.ErrorMessage)
	}
	assertWorkspaceEmpty(t, j)
}

func TestValidate(t *testing.T) {
	j := newTestJudger(t, Config{})
	tests := []struct {
		Name  string
		Sub   types.Submission
		Field string
	}{
		{"NoLanguage", types.Submission{Source: "x", TestCases: addCases("1")}, "language"},
		{"NoSource", types.Submission{Language: "sh", TestCases: addCases("1")}, "sourceCode"},
		{"NoCases", types.Submission{Language: "sh", Source: "x"}, "testCases"},
		{"Unsupported", types.Submission{Language: "cobol", Source: "x", TestCases: addCases("1")}, "language"},
		{"TimeTooLarge", types.Submission{Language: "sh", Source: "x", TestCases: addCases("1"), TimeLimit: math.MaxInt64}, "timeLimit"},
		{"MemoryTooLarge", types.Submission{Language: "sh", Source: "x", TestCases: addCases("1"), MemoryLimit: math.MaxUint64}, "memoryLimit"},
	}
	for _, tc := range tests {
		t.Run(tc.Name, func(t *testing.T) {
			_, err := j.Judge(&tc.Sub, nil)
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Field != tc.Field {
				t.Fatalf("expected validation error on %s, got %v", tc.Field, err)
			}
			if !errors.Is(err, ErrInvalidSubmission) {
				t.Error("expected ErrInvalidSubmission")
			}
		})
	}
	assertWorkspaceEmpty(t, j)
}

func TestSubmit(t *testing.T) {
	got := make(chan client.Payload, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p client.Payload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Error(err)
		}
		got <- p
	}))
	defer srv.Close()

	j := newTestJudger(t, Config{Client: client.New(client.Config{Timeout: time.Second})})
	err := j.Submit(context.Background(), &types.Submission{
		Language:    "sh",
		Source:      "echo 2",
		TestCases:   []types.TestCase{{Output: "2\n"}, {Output: "3"}},
		TimeLimit:   5 * time.Second,
		CallbackURL: srv.URL,
		AuthToken:   "secret",
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := j.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}

	p := <-got
	if p.Verdict != types.VerdictWrongAnswer || p.AuthToken != "secret" || len(p.Results) != 2 {
		t.Fatalf("unexpected payload %+v", p)
	}
	if p.Results[0].Case != 1 || !p.Results[0].Passed || p.Results[1].Passed {
		t.Errorf("unexpected results %+v", p.Results)
	}
	assertWorkspaceEmpty(t, j)

	if err := j.Submit(context.Background(), &types.Submission{}); !errors.Is(err, ErrShuttingDown) {
		t.Errorf("expected ErrShuttingDown, got %v", err)
	}
}

func TestSubmitUnreachableCallback(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	obs := &recordingObserver{}
	j := newTestJudger(t, Config{
		Client:   client.New(client.Config{Timeout: 200 * time.Millisecond, RetryDelay: time.Millisecond}),
		Observer: obs,
	})
	ctx, cancel := context.WithCancel(context.Background())
	err := j.Submit(ctx, &types.Submission{
		Language:    "sh",
		Source:      "echo 2",
		TestCases:   []types.TestCase{{Output: "2"}},
		CallbackURL: url,
	})
	// the request finished, judging goes on
	cancel()
	if err != nil {
		t.Fatalf("submission must be accepted, got %v", err)
	}
	if err := j.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(obs.cases) != 1 || obs.cases[0] != types.VerdictAccepted {
		t.Errorf("expected the case to complete, got %v", obs.cases)
	}
	if len(obs.deliveries) != 1 || obs.deliveries[0] == nil {
		t.Errorf("expected one failed delivery, got %v", obs.deliveries)
	}
	assertWorkspaceEmpty(t, j)
}

func TestSubmitConcurrentShutdown(t *testing.T) {
	var mu sync.Mutex
	count := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		count++
		mu.Unlock()
	}))
	defer srv.Close()

	j := newTestJudger(t, Config{Client: client.New(client.Config{Timeout: time.Second})})
	var accepted sync.WaitGroup
	var acceptedCount int
	for range 8 {
		accepted.Add(1)
		go func() {
			defer accepted.Done()
			err := j.Submit(context.Background(), &types.Submission{
				Language:    "sh",
				Source:      "echo 2",
				TestCases:   []types.TestCase{{Output: "2"}},
				CallbackURL: srv.URL,
			})
			if err == nil {
				mu.Lock()
				acceptedCount++
				mu.Unlock()
			} else if !errors.Is(err, ErrShuttingDown) {
				t.Error(err)
			}
		}()
	}
	if err := j.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
	// every submission accepted before Shutdown returned has been delivered
	mu.Lock()
	got := count
	mu.Unlock()
	accepted.Wait()

	mu.Lock()
	defer mu.Unlock()
	if got != count || count != acceptedCount {
		t.Errorf("accepted %d, delivered %d before shutdown and %d after", acceptedCount, got, count)
	}
	assertWorkspaceEmpty(t, j)
}

func TestSubmitRequiresCallback(t *testing.T) {
	j := newTestJudger(t, Config{})
	err := j.Submit(context.Background(), &types.Submission{Language: "sh", Source: "x", TestCases: addCases("1")})
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "callbackUrl" {
		t.Fatalf("expected callback validation error, got %v", err)
	}
}

func TestRunSamples(t *testing.T) {
	j := newTestJudger(t, Config{Catalog: fakeCatalog{
		"add": {
			{Input: "1 2", Output: "3", IsSample: true},
			{Input: "2 2", Output: "5", IsSample: false},
			{Input: "5 5", Output: "11", IsSample: true},
			{Input: "6 6", Output: "12", IsSample: true},
		},
		"hidden": {{Input: "1 1", Output: "2"}},
	}})
	ctx := context.Background()

	r, err := j.RunSamples(ctx, "sh", addScript, "add")
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Results) != 2 || r.Verdict != types.VerdictWrongAnswer {
		t.Fatalf("expected to stop at the second sample, got %+v", r)
	}
	if r.Results[1].Input != "5 5" || r.Results[1].Expected != "11" || r.Results[1].Outcome.Stdout != "10\n" {
		t.Errorf("unexpected case %+v", r.Results[1])
	}

	if _, err := j.RunSamples(ctx, "sh", addScript, "hidden"); !errors.Is(err, ErrNoSampleCases) {
		t.Errorf("expected ErrNoSampleCases, got %v", err)
	}
	if _, err := j.RunSamples(ctx, "sh", addScript, "unknown"); !errors.Is(err, problem.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	assertWorkspaceEmpty(t, j)
}

func TestRunCustom(t *testing.T) {
	j := newTestJudger(t, Config{})

	r, err := j.RunCustom("sh", addScript, "20 22\n")
	if err != nil {
		t.Fatal(err)
	}
	if r.Outcome.Stdout != "42\n" || r.Verdict != types.VerdictAccepted {
		t.Errorf("unexpected result %+v", r)
	}

	r, err = j.RunCustom("sh", "echo \"$0\" >&2\nexit 1\n", "")
	if err != nil {
		t.Fatal(err)
	}
	if r.Verdict != types.VerdictRuntimeError {
		t.Errorf("expected runtime error, got %v", r.Verdict)
	}
	if r.Stderr != "your_code\n" {
		t.Errorf("expected sanitized stderr, got %q", r.Stderr)
	}
	if strings.Contains(r.Outcome.Stderr, "your_code") {
		t.Error("raw outcome must stay unsanitized")
	}
	assertWorkspaceEmpty(t, j)
}

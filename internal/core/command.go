package core

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// Runner executes external commands. Every system mutation that is not a
// plain file edit (systemctl, usermod, sysctl, authselect) goes through it,
// so adapter tests can substitute a mock.
type Runner interface {
	Run(ctx context.Context, command string) (string, error)
}

// ExecRunner runs commands through sh -c with a bounded timeout. A timeout
// is an operation failure like any other non-zero exit.
type ExecRunner struct {
	Timeout time.Duration
}

func (r *ExecRunner) Run(ctx context.Context, command string) (string, error) {
	timeout := r.Timeout
	if timeout == 0 {
		timeout = DefaultCommandTimeout
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, "sh", "-c", command)
	out, err := cmd.CombinedOutput()
	if errors.Is(cctx.Err(), context.DeadlineExceeded) {
		return string(out), fmt.Errorf("command timed out after %s: %s", timeout, command)
	}
	return string(out), err
}

// RunCmd is a convenience wrapper using the context's runner and timeout.
func RunCmd(ctx *SystemContext, command string) (string, error) {
	runner := ctx.Runner
	if runner == nil {
		runner = &ExecRunner{Timeout: ctx.CommandTimeout}
	}
	return runner.Run(ctx, command)
}

type mockResponse struct {
	out string
	err error
}

// MockRunner queues canned responses per command string. Unregistered
// commands fail loudly so tests catch unexpected system calls.
type MockRunner struct {
	responses map[string][]mockResponse
	Calls     []string
}

func NewMockRunner() *MockRunner {
	return &MockRunner{responses: make(map[string][]mockResponse)}
}

func (m *MockRunner) AddResponse(command, out string) {
	m.responses[command] = append(m.responses[command], mockResponse{out: out})
}

func (m *MockRunner) AddError(command string, err error) {
	m.responses[command] = append(m.responses[command], mockResponse{err: err})
}

func (m *MockRunner) Run(_ context.Context, command string) (string, error) {
	m.Calls = append(m.Calls, command)
	queue := m.responses[command]
	if len(queue) == 0 {
		return "", fmt.Errorf("mock runner: unexpected command: %s", command)
	}
	resp := queue[0]
	m.responses[command] = queue[1:]
	return resp.out, resp.err
}

// Package gitcmd runs the external git client as a child process. Command
// output is passed through to the console so a run is auditable as it
// happens, and non-zero exits surface as ExitError so callers can propagate
// the child's exit code verbatim.
package gitcmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/nodeops/reposync/internal/logging"
)

// ExitError reports a failed git invocation together with the exit code the
// whole process should terminate with.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("git exited with code %d: %v", e.Code, e.Err)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Runner invokes git with console passthrough. The environment overlay given
// to Run is applied to the child process only, never to the current process.
type Runner struct {
	log    *logging.Logger
	stdout io.Writer
	stderr io.Writer
}

// NewRunner returns a Runner wired to the process standard streams.
func NewRunner(log *logging.Logger) *Runner {
	return &Runner{log: log, stdout: os.Stdout, stderr: os.Stderr}
}

// WithOutput redirects the child's standard streams, used by tests.
func (r *Runner) WithOutput(stdout, stderr io.Writer) *Runner {
	r.stdout = stdout
	r.stderr = stderr
	return r
}

// Run executes `git args...` in dir (empty for the current directory) with
// env appended to the inherited environment. It blocks until the child exits;
// there is no enforced timeout beyond ctx.
func (r *Runner) Run(ctx context.Context, dir string, env map[string]string, args ...string) error {
	r.log.Infof(">> git %s", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	if len(env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Code: exitErr.ExitCode(), Err: err}
		}
		// git missing or not startable; there is no child exit code to carry.
		return &ExitError{Code: 1, Err: err}
	}
	return nil
}

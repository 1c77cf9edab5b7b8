package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

// Installer installs a project's declared dependencies.
type Installer interface {
	// Install runs in dir and blocks until the install finishes. A non-zero
	// exit is reported in Result.ExitCode, not as an error.
	Install(ctx context.Context, dir string) (*Result, error)
}

// Result describes a finished install.
type Result struct {
	Command  string
	Args     []string
	Dir      string
	ExitCode int
	// Signal names the signal that killed the process, if any. ExitCode is
	// then 128 plus the signal number, as a shell reports it.
	Signal   string
	Duration time.Duration
}

// Succeeded reports whether the install exited with status 0.
func (r *Result) Succeeded() bool { return r.ExitCode == 0 }

// String returns the command line, e.g. "npm install".
func (r *Result) String() string {
	return strings.Join(append([]string{r.Command}, r.Args...), " ")
}

// DefaultBin is the package manager used when none is configured.
const DefaultBin = "npm"

// DefaultArgs returns the arguments used when none are configured.
func DefaultArgs() []string { return []string{"install"} }

// PackageManager runs `<Bin> <Args...>` as a child process.
type PackageManager struct {
	Bin  string
	Args []string

	// Stdin, Stdout and Stderr default to the parent's streams.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// New returns a PackageManager for bin, falling back to npm and "install"
// when bin or args are empty.
func New(bin string, args []string) *PackageManager {
	if bin == "" {
		bin = DefaultBin
	}
	if len(args) == 0 {
		args = DefaultArgs()
	}
	return &PackageManager{Bin: bin, Args: args}
}

// Install resolves Bin on PATH and runs it with dir as the working directory.
// There is no timeout: cancellation only comes from ctx.
func (p *PackageManager) Install(ctx context.Context, dir string) (*Result, error) {
	bin, err := exec.LookPath(p.Bin)
	if err != nil {
		return nil, fmt.Errorf("package manager %q not found: %w", p.Bin, err)
	}

	cmd := exec.CommandContext(ctx, bin, p.Args...)
	cmd.Dir = dir

	cmd.Stdin = p.Stdin
	if cmd.Stdin == nil {
		cmd.Stdin = os.Stdin
	}
	cmd.Stdout = p.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = p.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	result := &Result{
		Command: p.Bin,
		Args:    append([]string(nil), p.Args...),
		Dir:     dir,
	}

	start := time.Now()
	err = cmd.Run()
	result.Duration = time.Since(start)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, fmt.Errorf("running %s: %w", result, ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode, result.Signal = exitStatus(exitErr)
			return result, nil
		}
		return result, fmt.Errorf("running %s: %w", result, err)
	}
	return result, nil
}

// exitStatus returns a positive exit code for a failed process. ExitCode is
// -1 when a signal ended the process.
func exitStatus(exitErr *exec.ExitError) (int, string) {
	if code := exitErr.ExitCode(); code >= 0 {
		return code, ""
	}
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal()), ws.Signal().String()
	}
	return 1, ""
}

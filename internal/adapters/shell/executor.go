// Package shell provides a shell-based executor for running unit build commands.
package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/creack/pty"
	"go.trai.ch/fresh/internal/core/domain"
	"go.trai.ch/fresh/internal/core/ports"
	"go.trai.ch/zerr"
)

// Executor implements ports.Executor using os/exec and pty.
type Executor struct {
	logger ports.Logger
	usePTY bool
}

// Option configures an Executor.
type Option func(*Executor)

// WithPTY selects whether commands run attached to a pseudo terminal.
// Without one, stdout and stderr stay separate.
func WithPTY(enable bool) Option {
	return func(e *Executor) {
		e.usePTY = enable
	}
}

// NewExecutor creates a new Executor.
func NewExecutor(logger ports.Logger, opts ...Option) *Executor {
	e := &Executor{logger: logger, usePTY: true}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs the unit's command in its package root and waits for it to
// complete. Output is mirrored to the debug log line by line.
func (e *Executor) Execute(ctx context.Context, unit *domain.Unit, env []string, stdout, stderr io.Writer) error {
	if len(unit.Command) == 0 {
		return nil
	}

	stdoutLog := &logWriter{logger: e.logger, prefix: unit.Name + " | "}
	stderrLog := &logWriter{logger: e.logger, prefix: unit.Name + " ! "}
	defer func() {
		_ = stdoutLog.Close()
		_ = stderrLog.Close()
	}()

	cmd := command(ctx, unit, resolveEnvironment(os.Environ(), unit.Env, env))
	outW := io.MultiWriter(stdoutLog, stdout)
	errW := io.MultiWriter(stderrLog, stderr)

	var err error
	if e.usePTY && ptyAvailable() {
		err = runPTY(cmd, outW)
	} else {
		err = runPipes(cmd, outW, errW)
	}

	if err != nil {
		var exitErr *exec.ExitError
		exitCode := -1
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return zerr.With(zerr.With(zerr.Wrap(err, "command failed"), "exit_code", exitCode), "unit", unit.Name)
	}
	return nil
}

// ptyAvailable reports whether pseudo terminals can be allocated, which is
// not the case in some containers.
var ptyAvailable = sync.OnceValue(func() bool {
	ptmx, tty, err := pty.Open()
	if err != nil {
		return false
	}
	_ = tty.Close()
	_ = ptmx.Close()
	return true
})

func command(ctx context.Context, unit *domain.Unit, env []string) *exec.Cmd {
	name := unit.Command[0]
	executable := name
	if !filepath.IsAbs(name) && !strings.Contains(name, string(filepath.Separator)) {
		if lp, err := lookPath(name, env); err == nil {
			executable = lp
		}
	}

	cmd := exec.CommandContext(ctx, executable, unit.Command[1:]...) //nolint:gosec // user provided command
	if len(cmd.Args) > 0 {
		cmd.Args[0] = name
	}
	cmd.Dir = unit.Root
	cmd.Env = env
	return cmd
}

// runPTY runs cmd on a pseudo terminal. The terminal merges stderr into out.
func runPTY(cmd *exec.Cmd, out io.Writer) error {
	ptmx, err := pty.Start(cmd)
	if err != nil {
		return zerr.Wrap(err, "failed to start command")
	}

	ioDone := make(chan struct{})
	go func() {
		defer close(ioDone)
		// Reading fails with EIO once the command exits and the tty closes.
		_, _ = io.Copy(out, ptmx)
	}()

	err = cmd.Wait()
	<-ioDone
	_ = ptmx.Close()
	return err
}

func runPipes(cmd *exec.Cmd, stdout, stderr io.Writer) error {
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

type logWriter struct {
	logger ports.Logger
	prefix string
	buf    []byte
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)

	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.logLine(w.buf[:i])
		w.buf = w.buf[i+1:]
	}

	return len(p), nil
}

func (w *logWriter) Close() error {
	if len(w.buf) > 0 {
		w.logLine(w.buf)
		w.buf = nil
	}
	return nil
}

func (w *logWriter) logLine(line []byte) {
	// PTYs terminate lines with \r\n.
	w.logger.Debug(w.prefix + strings.TrimSuffix(string(line), "\r"))
}

// allowListedEnvVars are the system environment variables every command
// inherits. Anything else must be tracked by the unit.
var allowListedEnvVars = []string{"HOME", "TERM", "USER", "PATH", "TMPDIR"}

// resolveEnvironment builds a command environment from the allow-listed and
// tracked system variables overlaid with extra. Tracked variables keep their
// set-but-empty state. The result is sorted.
func resolveEnvironment(sysEnv, tracked, extra []string) []string {
	envMap := make(map[string]string)
	for _, entry := range sysEnv {
		k, v, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if slices.Contains(allowListedEnvVars, k) || slices.Contains(tracked, k) {
			envMap[k] = v
		}
	}

	for _, entry := range extra {
		if k, v, ok := strings.Cut(entry, "="); ok {
			envMap[k] = v
		}
	}

	result := make([]string, 0, len(envMap))
	for k, v := range envMap {
		result = append(result, k+"="+v)
	}
	slices.Sort(result)
	return result
}

// lookPath searches for an executable in the directories named by the PATH
// of env rather than of the current process.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if p, ok := strings.CutPrefix(e, "PATH="); ok {
			path = p
			break
		}
	}

	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if err := findExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}

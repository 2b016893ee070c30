package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"syscall"
)

// Exec runs Binary as a child process of the current one.
type Exec struct {
	Binary string
}

func NewExec(binary string) *Exec {
	return &Exec{Binary: binary}
}

func (e *Exec) Run(ctx context.Context, c Command) (*Outcome, error) {
	if e.Binary == "" {
		return nil, ErrNoBinary
	}

	cmd := exec.Command(e.Binary, c.Argv()...)
	cmd.Dir = c.Dir
	cmd.Stdin = strings.NewReader(c.Stdin())
	// Own process group so cancellation takes down anything the program forks.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", e.Binary, err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	var err error
	select {
	case <-ctx.Done():
		_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		<-done
		return nil, fmt.Errorf("%s cancelled: %w", e.Binary, ctx.Err())
	case err = <-done:
	}

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("failed to run %s: %w", e.Binary, err)
		}
		exitCode = exitErr.ExitCode()
	}

	return &Outcome{
		Success:  exitCode == 0,
		ExitCode: exitCode,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}, nil
}

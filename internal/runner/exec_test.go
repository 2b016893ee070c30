package runner

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestExec_Run(t *testing.T) {
	tests := []struct {
		name        string
		cmd         Command
		wantSuccess bool
		wantCode    int
		wantStdout  string
		wantStderr  string
	}{
		{
			name:        "success",
			cmd:         Command{SubCommand: "-c", Args: []string{"echo out; echo err >&2"}},
			wantSuccess: true,
			wantStdout:  "out\n",
			wantStderr:  "err\n",
		},
		{
			name:       "non-zero exit",
			cmd:        Command{SubCommand: "-c", Args: []string{"echo broken >&2; exit 3"}},
			wantCode:   3,
			wantStderr: "broken\n",
		},
		{
			name:        "prompts on stdin",
			cmd:         Command{SubCommand: "-c", Args: []string{"read a; read b; echo \"$b,$a\""}, Prompts: []string{"15 0", "1"}},
			wantSuccess: true,
			wantStdout:  "1,15 0\n",
		},
	}

	r := NewExec("/bin/sh")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := r.Run(context.Background(), tt.cmd)
			require.NoError(t, err)
			require.Equal(t, tt.wantSuccess, out.Success)
			require.Equal(t, tt.wantCode, out.ExitCode)
			require.Equal(t, tt.wantStdout, out.Stdout)
			require.Equal(t, tt.wantStderr, out.Stderr)
		})
	}
}

func TestExec_RunInDir(t *testing.T) {
	dir := t.TempDir()
	out, err := NewExec("/bin/sh").Run(context.Background(), Command{SubCommand: "-c", Args: []string{"pwd"}, Dir: dir})
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	require.Equal(t, want, strings.TrimSpace(out.Stdout))
}

func TestExec_MissingBinary(t *testing.T) {
	_, err := NewExec(filepath.Join(t.TempDir(), "nope")).Run(context.Background(), Command{})
	require.Error(t, err)

	_, err = NewExec("").Run(context.Background(), Command{})
	require.ErrorIs(t, err, ErrNoBinary)
}

func TestExec_Cancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := NewExec("/bin/sh").Run(ctx, Command{SubCommand: "-c", Args: []string{"sleep 5"}})
	require.Error(t, err)
	require.True(t, errors.Is(err, context.DeadlineExceeded))
	require.Less(t, time.Since(start), 4*time.Second)
}

func TestCommand_Argv(t *testing.T) {
	require.Equal(t, []string{"grompp", "-f", "npt.mdp"}, Command{SubCommand: "grompp", Args: []string{"-f", "npt.mdp"}}.Argv())
	require.Equal(t, []string{"-h"}, Command{Args: []string{"-h"}}.Argv())
	require.Equal(t, "", Command{}.Stdin())
	require.Equal(t, "15 0\n", Command{Prompts: []string{"15 0"}}.Stdin())
}

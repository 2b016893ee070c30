package runner

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// containerWorkDir is where the command directory is mounted.
const containerWorkDir = "/work"

// containerAPI is the part of the Docker Engine client the runner uses.
type containerAPI interface {
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error)
	ContainerAttach(ctx context.Context, container string, options container.AttachOptions) (types.HijackedResponse, error)
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
	ContainerWait(ctx context.Context, containerID string, condition container.WaitCondition) (<-chan container.WaitResponse, <-chan error)
	ContainerLogs(ctx context.Context, container string, options container.LogsOptions) (io.ReadCloser, error)
	ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error
}

// Docker runs Binary inside a fresh container of Image per command. The
// command directory is bind mounted as the container's working directory.
type Docker struct {
	cli    containerAPI
	Image  string
	Binary string
}

// NewDocker connects to the daemon described by the DOCKER_* environment.
func NewDocker(image, binary string) (*Docker, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("docker client: %w", err)
	}
	return &Docker{cli: cli, Image: image, Binary: binary}, nil
}

func (d *Docker) Run(ctx context.Context, c Command) (*Outcome, error) {
	if d.Binary == "" {
		return nil, ErrNoBinary
	}

	interactive := len(c.Prompts) > 0
	config := &container.Config{
		Image:       d.Image,
		Cmd:         append([]string{d.Binary}, c.Argv()...),
		WorkingDir:  containerWorkDir,
		OpenStdin:   interactive,
		StdinOnce:   interactive,
		AttachStdin: interactive,
	}
	hostConfig := &container.HostConfig{}
	if c.Dir != "" {
		hostConfig.Binds = []string{c.Dir + ":" + containerWorkDir}
	}

	resp, err := d.cli.ContainerCreate(ctx, config, hostConfig, nil, nil, "")
	if err != nil {
		return nil, fmt.Errorf("create failed: %w", err)
	}
	defer func() {
		// ctx may already be cancelled; removal must still happen.
		_ = d.cli.ContainerRemove(context.Background(), resp.ID, container.RemoveOptions{Force: true})
	}()

	var stdin *types.HijackedResponse
	if interactive {
		hijacked, err := d.cli.ContainerAttach(ctx, resp.ID, container.AttachOptions{Stream: true, Stdin: true})
		if err != nil {
			return nil, fmt.Errorf("attach failed: %w", err)
		}
		stdin = &hijacked
		defer stdin.Close()
	}

	if err := d.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return nil, fmt.Errorf("start failed: %w", err)
	}

	if stdin != nil {
		if _, err := io.WriteString(stdin.Conn, c.Stdin()); err != nil {
			return nil, fmt.Errorf("write prompts: %w", err)
		}
		_ = stdin.CloseWrite()
	}

	statusCh, errCh := d.cli.ContainerWait(ctx, resp.ID, container.WaitConditionNotRunning)
	var exitCode int
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("container %s cancelled: %w", resp.ID, ctx.Err())
	case err := <-errCh:
		return nil, fmt.Errorf("wait failed: %w", err)
	case status := <-statusCh:
		if status.Error != nil {
			return nil, fmt.Errorf("wait failed: %s", status.Error.Message)
		}
		exitCode = int(status.StatusCode)
	}

	logs, err := d.cli.ContainerLogs(ctx, resp.ID, container.LogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil {
		return nil, fmt.Errorf("logs failed: %w", err)
	}
	defer logs.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, logs); err != nil {
		return nil, fmt.Errorf("read logs: %w", err)
	}

	return &Outcome{
		Success:  exitCode == 0,
		ExitCode: exitCode,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}, nil
}

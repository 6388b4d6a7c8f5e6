// Package docker runs code in throwaway Docker containers drawn from
// per-language pools of pre-warmed sandboxes.
package docker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/sakif/snippet-vault/internal/executor"
)

// Executor implements the executor.Executor interface using Docker.
type Executor struct {
	cli    *client.Client
	config Config
	logger *slog.Logger
	pools  map[string]*Pool
}

// New connects to the Docker daemon, pulls the image of every configured
// runtime and starts one pool per runtime. A runtime whose image cannot be
// pulled is dropped with a warning; New fails only when none is left.
func New(cfg Config, logger *slog.Logger) (*Executor, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	e := &Executor{
		cli:    cli,
		config: cfg,
		logger: logger,
		pools:  make(map[string]*Pool, len(cfg.Runtimes)),
	}

	for lang, rt := range cfg.Runtimes {
		if err := e.pull(rt.Image); err != nil {
			logger.Warn("runtime unavailable",
				slog.String("language", lang),
				slog.String("image", rt.Image),
				slog.String("error", err.Error()),
			)
			continue
		}
		pool := newPool(lang, rt, cfg.PoolSize, e, logger)
		pool.Start()
		e.pools[lang] = pool
	}

	if len(e.pools) == 0 {
		cli.Close()
		return nil, fmt.Errorf("no docker runtime could be prepared")
	}
	return e, nil
}

func (e *Executor) pull(ref string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	e.logger.Info("ensuring docker image is available", slog.String("image", ref))
	reader, err := e.cli.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image: %w", err)
	}
	defer reader.Close()
	// Read everything to block until the pull is complete
	_, err = io.Copy(io.Discard, reader)
	return err
}

// Close shuts down every pool and the docker client.
func (e *Executor) Close() error {
	for _, pool := range e.pools {
		pool.Stop()
	}
	return e.cli.Close()
}

// Execute writes the entry file into a pooled container, runs the runtime's
// command with req.Stdin attached and collects the output. A run that
// outlives Config.Timeout reports exit code 124.
func (e *Executor) Execute(ctx context.Context, req executor.Request) (*executor.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	lang := strings.ToLower(req.Language)
	pool, ok := e.pools[lang]
	if !ok {
		return nil, fmt.Errorf("%w: %s", executor.ErrUnsupportedLanguage, req.Language)
	}
	rt := pool.runtime

	start := time.Now()

	containerID, err := pool.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container from pool: %w", err)
	}
	// Containers are single-use.
	defer e.destroy(containerID)

	executeCtx, executeCancel := context.WithTimeout(ctx, e.config.Timeout)
	defer executeCancel()

	execResp, err := e.cli.ContainerExecCreate(executeCtx, containerID, container.ExecOptions{
		AttachStdin:  true,
		AttachStdout: true,
		AttachStderr: true,
		WorkingDir:   "/tmp",
		Env:          []string{"SOURCE=" + req.Source()},
		Cmd:          []string{"sh", "-c", script(rt)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create exec: %w", err)
	}

	attachResp, err := e.cli.ContainerExecAttach(executeCtx, execResp.ID, container.ExecStartOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to attach to exec: %w", err)
	}
	defer attachResp.Close()

	if req.Stdin != "" {
		if _, err := io.WriteString(attachResp.Conn, req.Stdin); err != nil {
			return nil, fmt.Errorf("failed to write stdin: %w", err)
		}
	}
	_ = attachResp.CloseWrite()

	var stdout, stderr bytes.Buffer
	done := make(chan struct{})
	go func() {
		// stdcopy demultiplexes the attached stream into stdout and stderr
		_, _ = stdcopy.StdCopy(&stdout, &stderr, attachResp.Reader)
		close(done)
	}()

	run := executor.Stage{}
	select {
	case <-done:
		inspectResp, err := e.cli.ContainerExecInspect(ctx, execResp.ID)
		if err == nil {
			run.Code = inspectResp.ExitCode
		}
	case <-executeCtx.Done():
		killed := "SIGKILL"
		run.Code = executor.TimeoutExitCode
		run.Signal = &killed
		stderr.WriteString("\nExecution timed out.\n")
	}

	run.Stdout = stdout.String()
	run.Stderr = stderr.String()
	run.Output = run.Stdout + run.Stderr

	return &executor.Result{
		Language: lang,
		Version:  rt.Version,
		Run:      run,
		Duration: time.Since(start),
	}, nil
}

// script writes $SOURCE to the runtime's entry file and runs its command.
func script(rt Runtime) string {
	return fmt.Sprintf(`printf '%%s' "$SOURCE" > %s && unset SOURCE && %s`, rt.File, rt.Command)
}

// spawn creates and starts a locked-down container idling on `sleep infinity`.
func (e *Executor) spawn(ctx context.Context, language string, rt Runtime) (string, error) {
	hostConfig := &container.HostConfig{
		NetworkMode: "none",
		Resources: container.Resources{
			Memory:   e.config.memoryFor(rt),
			NanoCPUs: int64(e.config.CPULimit * 1e9),
		},
		AutoRemove:     false,
		ReadonlyRootfs: true,
		// /tmp is the only writable path: sources and build outputs go there.
		Tmpfs: map[string]string{"/tmp": "rw,exec,size=256m"},
	}

	resp, err := e.cli.ContainerCreate(ctx, &container.Config{
		Image:  rt.Image,
		Cmd:    []string{"sleep", "infinity"},
		User:   "nobody",
		Labels: map[string]string{"snippet-vault.language": language},
	}, hostConfig, nil, nil, "")
	if err != nil {
		return "", fmt.Errorf("ContainerCreate failed: %w", err)
	}

	if err := e.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		e.destroy(resp.ID)
		return "", fmt.Errorf("ContainerStart failed: %w", err)
	}
	return resp.ID, nil
}

// destroy force-removes a container by ID.
func (e *Executor) destroy(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := e.cli.ContainerRemove(ctx, id, container.RemoveOptions{Force: true}); err != nil {
		e.logger.Error("failed to remove container", slog.String("id", id), slog.String("error", err.Error()))
	}
}

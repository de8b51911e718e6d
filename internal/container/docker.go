package container

import (
	"context"
	"strings"

	cwerrors "composewait/internal/errors"
)

const (
	statusFormat = "{{.State.Status}}"
	healthFormat = "{{if .State.Health}}{{.State.Health.Status}}{{else}}N/A{{end}}"
)

// DockerQuerier implements Querier by running the docker CLI
type DockerQuerier struct {
	runner Runner
	opts   QueryOptions
}

// NewDockerQuerier creates a CLI-backed querier
func NewDockerQuerier(runner Runner, opts QueryOptions) *DockerQuerier {
	if runner == nil {
		runner = NewExecRunner(nil)
	}
	if opts.Match == "" {
		opts.Match = MatchName
	}
	return &DockerQuerier{
		runner: runner,
		opts:   opts,
	}
}

// psArgs builds the `docker ps` arguments for a service
func (q *DockerQuerier) psArgs(service string) []string {
	args := []string{"ps", "-q"}
	switch q.opts.Match {
	case MatchLabel:
		args = append(args, "-f", "label="+ComposeServiceLabel+"="+service)
		if q.opts.Project != "" {
			args = append(args, "-f", "label="+ComposeProjectLabel+"="+q.opts.Project)
		}
	default:
		args = append(args, "-f", "name="+service)
	}
	return args
}

// ContainerIDs lists running containers for a service
func (q *DockerQuerier) ContainerIDs(ctx context.Context, service string) ([]string, error) {
	output, err := q.runner.Run(ctx, "docker", q.psArgs(service)...)
	if err != nil {
		LogContainerDebug(err, "ps")
		return nil, cwerrors.Query("list containers for service "+service, err)
	}
	return splitIDs(output), nil
}

// RunState returns the container's State.Status
func (q *DockerQuerier) RunState(ctx context.Context, containerID string) (string, error) {
	output, err := q.runner.Run(ctx, "docker", "inspect", "--format", statusFormat, containerID)
	if err != nil {
		setContainerID(err, containerID)
		LogContainerDebug(err, "inspect status")
		return "", cwerrors.Query("inspect status of container "+containerID, err)
	}
	return output, nil
}

// HealthState returns the container's health status or NoHealthcheck
func (q *DockerQuerier) HealthState(ctx context.Context, containerID string) (string, error) {
	output, err := q.runner.Run(ctx, "docker", "inspect", "--format", healthFormat, containerID)
	if err != nil {
		setContainerID(err, containerID)
		LogContainerDebug(err, "inspect health")
		return "", cwerrors.Query("inspect health of container "+containerID, err)
	}
	return output, nil
}

// splitIDs splits newline-separated ids, dropping blank lines
func splitIDs(output string) []string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		if id := strings.TrimSpace(line); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func setContainerID(err error, containerID string) {
	if containerErr, ok := err.(*ContainerError); ok && containerErr.ContainerID == "" {
		containerErr.ContainerID = containerID
	}
}

package container

import (
	"context"
	"fmt"
	"strings"

	"github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"

	cwerrors "composewait/internal/errors"
)

// EngineClient is the subset of the Docker Engine API client used for queries
type EngineClient interface {
	ContainerList(ctx context.Context, options container.ListOptions) ([]container.Summary, error)
	ContainerInspect(ctx context.Context, containerID string) (container.InspectResponse, error)
}

// NewEngineClient creates a Docker client from the environment (DOCKER_HOST etc.)
func NewEngineClient() (EngineClient, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	return cli, nil
}

// EngineQuerier implements Querier against the Docker Engine API
type EngineQuerier struct {
	cli  EngineClient
	opts QueryOptions
}

// NewEngineQuerier creates an API-backed querier
func NewEngineQuerier(cli EngineClient, opts QueryOptions) *EngineQuerier {
	if opts.Match == "" {
		opts.Match = MatchName
	}
	return &EngineQuerier{cli: cli, opts: opts}
}

func (q *EngineQuerier) listFilters(service string) filters.Args {
	args := filters.NewArgs()
	switch q.opts.Match {
	case MatchLabel:
		args.Add("label", ComposeServiceLabel+"="+service)
		if q.opts.Project != "" {
			args.Add("label", ComposeProjectLabel+"="+q.opts.Project)
		}
	default:
		args.Add("name", service)
	}
	return args
}

// ContainerIDs lists running containers for a service
func (q *EngineQuerier) ContainerIDs(ctx context.Context, service string) ([]string, error) {
	// Running containers only, like `docker ps` without -a.
	containers, err := q.cli.ContainerList(ctx, container.ListOptions{Filters: q.listFilters(service)})
	if err != nil {
		cerr := engineError("list", "", err)
		LogContainerDebug(cerr, "list")
		return nil, cwerrors.Query("list containers for service "+service, cerr)
	}

	ids := make([]string, 0, len(containers))
	for _, c := range containers {
		if id := strings.TrimSpace(c.ID); id != "" {
			ids = append(ids, shortID(id))
		}
	}
	return ids, nil
}

// RunState returns the container's State.Status
func (q *EngineQuerier) RunState(ctx context.Context, containerID string) (string, error) {
	state, err := q.inspectState(ctx, containerID, "inspect status")
	if err != nil {
		return "", err
	}
	return string(state.Status), nil
}

// HealthState returns the container's health status or NoHealthcheck
func (q *EngineQuerier) HealthState(ctx context.Context, containerID string) (string, error) {
	state, err := q.inspectState(ctx, containerID, "inspect health")
	if err != nil {
		return "", err
	}
	if state.Health == nil {
		return NoHealthcheck, nil
	}
	return string(state.Health.Status), nil
}

func (q *EngineQuerier) inspectState(ctx context.Context, containerID, op string) (*container.State, error) {
	info, err := q.cli.ContainerInspect(ctx, containerID)
	if err != nil {
		cerr := engineError(op, containerID, err)
		LogContainerDebug(cerr, op)
		return nil, cwerrors.Query(op+" of container "+containerID, cerr)
	}
	if info.ContainerJSONBase == nil || info.State == nil {
		return nil, cwerrors.Query(op+" of container "+containerID, &ContainerError{
			Type:        ErrorTypeUnknown,
			Operation:   op,
			ContainerID: containerID,
			Message:     "inspect response has no state",
		})
	}
	return info.State, nil
}

// engineError converts an Engine API error into a ContainerError
func engineError(op, containerID string, err error) *ContainerError {
	errType := ErrorTypeUnknown
	switch {
	case errdefs.IsNotFound(err):
		errType = ErrorTypeContainerNotFound
	case errdefs.IsPermissionDenied(err):
		errType = ErrorTypePermissionDenied
	case errdefs.IsUnavailable(err), client.IsErrConnectionFailed(err):
		errType = ErrorTypeRuntimeNotFound
	}
	return &ContainerError{
		Type:        errType,
		Operation:   op,
		ContainerID: containerID,
		Message:     "Command failed: " + err.Error(),
		Underlying:  err,
	}
}

// shortID truncates a full container id to the 12 characters `docker ps -q` prints
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

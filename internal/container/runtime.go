package container

import (
	"context"
	"fmt"
)

// RuntimeType represents the backend used to query the container runtime
type RuntimeType string

const (
	// RuntimeTypeCLI queries Docker by running the docker CLI
	RuntimeTypeCLI RuntimeType = "cli"
	// RuntimeTypeEngine queries the Docker Engine API directly
	RuntimeTypeEngine RuntimeType = "engine"
)

// MatchMode selects how containers are associated with a compose service
type MatchMode string

const (
	// MatchName matches containers whose name contains the service name
	MatchName MatchMode = "name"
	// MatchLabel matches containers by compose service label
	MatchLabel MatchMode = "label"
)

const (
	// ComposeServiceLabel is set by docker compose on every service container
	ComposeServiceLabel = "com.docker.compose.service"
	// ComposeProjectLabel is set by docker compose on every project container
	ComposeProjectLabel = "com.docker.compose.project"

	// NoHealthcheck is the health token reported for containers without a healthcheck
	NoHealthcheck = "N/A"
)

// Querier is the read-only runtime surface the readiness poller depends on.
// Implementations return raw runtime text; classification happens in the caller.
type Querier interface {
	// ContainerIDs lists running containers backing a service
	ContainerIDs(ctx context.Context, service string) ([]string, error)
	// RunState returns the single-word run state, e.g. "running" or "exited"
	RunState(ctx context.Context, containerID string) (string, error)
	// HealthState returns the healthcheck status, or NoHealthcheck if none is configured
	HealthState(ctx context.Context, containerID string) (string, error)
}

// QueryOptions controls container discovery
type QueryOptions struct {
	Match   MatchMode
	Project string
}

// RuntimeFactory creates queriers for a runtime type
type RuntimeFactory struct {
	runner Runner
	engine func() (EngineClient, error)
}

// NewRuntimeFactory creates a new runtime factory
func NewRuntimeFactory(runner Runner) *RuntimeFactory {
	if runner == nil {
		runner = NewExecRunner(nil)
	}
	return &RuntimeFactory{
		runner: runner,
		engine: NewEngineClient,
	}
}

// CreateForType creates a querier for the given runtime type
func (f *RuntimeFactory) CreateForType(ctx context.Context, runtimeType RuntimeType, opts QueryOptions) (Querier, error) {
	switch runtimeType {
	case RuntimeTypeCLI, "":
		return NewDockerQuerier(f.runner, opts), nil
	case RuntimeTypeEngine:
		cli, err := f.engine()
		if err != nil {
			return nil, err
		}
		return NewEngineQuerier(cli, opts), nil
	default:
		return nil, fmt.Errorf("unsupported runtime type: %s (expected 'cli' or 'engine')", runtimeType)
	}
}

package container

import (
	"fmt"
	"strings"
)

// ErrorType represents the type of container error
type ErrorType string

const (
	// ErrorTypeRuntimeNotFound indicates the container runtime is not available
	ErrorTypeRuntimeNotFound ErrorType = "runtime_not_found"
	// ErrorTypeContainerNotFound indicates the container was not found
	ErrorTypeContainerNotFound ErrorType = "container_not_found"
	// ErrorTypePermissionDenied indicates a permission error
	ErrorTypePermissionDenied ErrorType = "permission_denied"
	// ErrorTypeNetworkError indicates a network-related error
	ErrorTypeNetworkError ErrorType = "network_error"
	// ErrorTypeConfigError indicates a configuration error
	ErrorTypeConfigError ErrorType = "config_error"
	// ErrorTypeExecError indicates an error during command execution
	ErrorTypeExecError ErrorType = "exec_error"
	// ErrorTypeUnknown indicates an unknown error
	ErrorTypeUnknown ErrorType = "unknown"
)

// ContainerError represents a detailed runtime query error
type ContainerError struct {
	Type        ErrorType
	Operation   string
	ContainerID string
	Message     string
	Underlying  error
	Output      string // stderr from the command
}

// Error implements the error interface
func (e *ContainerError) Error() string {
	parts := []string{e.Message}

	if e.ContainerID != "" {
		parts = append(parts, fmt.Sprintf("container=%s", e.ContainerID))
	}

	if e.Operation != "" {
		parts = append(parts, fmt.Sprintf("operation=%s", e.Operation))
	}

	return strings.Join(parts, ", ")
}

// Unwrap returns the underlying error
func (e *ContainerError) Unwrap() error {
	return e.Underlying
}

// IsRetryable returns true if the error might be resolved by the next attempt
func (e *ContainerError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeRuntimeNotFound, ErrorTypeContainerNotFound, ErrorTypeNetworkError, ErrorTypeUnknown:
		return true
	default:
		return false
	}
}

// parseDockerError attempts to determine the error type from Docker output
func parseDockerError(output string, err error) ErrorType {
	outputLower := strings.ToLower(output)
	errStr := ""
	if err != nil {
		errStr = strings.ToLower(err.Error())
	}

	combined := outputLower + " " + errStr

	switch {
	case strings.Contains(combined, "no such container") || strings.Contains(combined, "no such object"):
		return ErrorTypeContainerNotFound
	case strings.Contains(combined, "permission denied") || strings.Contains(combined, "access denied"):
		return ErrorTypePermissionDenied
	case strings.Contains(combined, "cannot connect to the docker daemon") ||
		strings.Contains(combined, "is the docker daemon running") ||
		strings.Contains(combined, "command not found") ||
		strings.Contains(combined, "executable file not found"):
		return ErrorTypeRuntimeNotFound
	case strings.Contains(combined, "network") || strings.Contains(combined, "connection refused"):
		return ErrorTypeNetworkError
	case strings.Contains(combined, "exit status"):
		return ErrorTypeExecError
	default:
		return ErrorTypeUnknown
	}
}

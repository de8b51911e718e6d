package container

import (
	"errors"
	"strings"
)

// ErrorHandler provides user-friendly error messages and recovery suggestions
type ErrorHandler struct{}

// NewErrorHandler creates a new error handler
func NewErrorHandler() *ErrorHandler {
	return &ErrorHandler{}
}

// GetUserMessage returns a user-friendly error message with recovery suggestions
func (h *ErrorHandler) GetUserMessage(err error) string {
	var containerErr *ContainerError
	if !errors.As(err, &containerErr) {
		return err.Error()
	}

	var message strings.Builder
	message.WriteString(containerErr.Message)

	switch containerErr.Type {
	case ErrorTypeRuntimeNotFound:
		message.WriteString("\n\nPossible solutions:")
		message.WriteString("\n• Ensure Docker is installed: https://docs.docker.com/get-docker/")
		message.WriteString("\n• Check if Docker daemon is running: 'docker ps'")
		message.WriteString("\n• Do not pass --skip-install if the runner image lacks Docker")

	case ErrorTypePermissionDenied:
		message.WriteString("\n\nPossible solutions:")
		message.WriteString("\n• Add your user to the docker group: 'sudo usermod -aG docker $USER'")
		message.WriteString("\n• Check DOCKER_HOST and socket permissions")

	case ErrorTypeContainerNotFound:
		message.WriteString("\n\nThe container disappeared between listing and inspection.")
		message.WriteString("\nIt may still be restarting; the next attempt will look again.")

	case ErrorTypeNetworkError:
		message.WriteString("\n\nNetwork issue detected while talking to the Docker daemon.")
		message.WriteString("\n• Verify DOCKER_HOST points at a reachable daemon")
	}

	return message.String()
}

// ShouldRetry returns true if the operation should be retried
func (h *ErrorHandler) ShouldRetry(err error) bool {
	var containerErr *ContainerError
	if !errors.As(err, &containerErr) {
		return false
	}
	return containerErr.IsRetryable()
}

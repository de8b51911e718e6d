package container

import (
	"errors"

	"composewait/internal/logger"
)

// LogContainerWarning logs a runtime query failure with structured fields
func LogContainerWarning(err error, operation string) {
	if err == nil {
		return
	}

	logger.WithFields(containerErrorFields(err, operation)).WithError(err).Warn("Container query failed")
}

// LogContainerDebug logs a runtime query failure at debug level
func LogContainerDebug(err error, operation string) {
	if err == nil {
		return
	}

	logger.WithFields(containerErrorFields(err, operation)).WithError(err).Debug("Container query failed")
}

func containerErrorFields(err error, operation string) logger.Fields {
	fields := logger.Fields{
		"operation": operation,
	}

	var containerErr *ContainerError
	if errors.As(err, &containerErr) {
		fields["error_type"] = string(containerErr.Type)
		if containerErr.ContainerID != "" {
			fields["container_id"] = containerErr.ContainerID
		}
		if containerErr.Output != "" && len(containerErr.Output) < 1000 {
			fields["docker_output"] = containerErr.Output
		}
		if containerErr.IsRetryable() {
			fields["retryable"] = true
		}
	}
	return fields
}

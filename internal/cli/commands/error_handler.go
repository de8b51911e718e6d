package commands

import (
	"errors"
	"fmt"
	"strings"

	"composewait/internal/container"
	cwerrors "composewait/internal/errors"
	"composewait/internal/logger"
)

// HandleError processes errors and provides user-friendly output
func HandleError(err error) error {
	if err == nil {
		return nil
	}

	var containerErr *container.ContainerError
	if errors.As(err, &containerErr) {
		logger.WithError(err).Debug("Container operation failed")
		return fmt.Errorf("%s", container.NewErrorHandler().GetUserMessage(containerErr))
	}

	switch {
	case cwerrors.IsLoad(err):
		return fmt.Errorf("%v\n\nTip: Check the compose_file setting and that the file is valid YAML with a top-level services key.", err)
	case cwerrors.IsConfig(err):
		return fmt.Errorf("%v\n\nTip: Run 'composewait config' to see the effective configuration.", err)
	case strings.Contains(err.Error(), "permission denied"):
		return fmt.Errorf("%v\n\nTip: You may need elevated permissions. Check file and socket permissions.", err)
	default:
		return err
	}
}

// ExitCode maps an error to the process exit code
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var containerErr *container.ContainerError
	if errors.As(err, &containerErr) {
		switch containerErr.Type {
		case container.ErrorTypeRuntimeNotFound:
			return 127
		case container.ErrorTypePermissionDenied:
			return 126
		}
	}
	if cwerrors.IsConfig(err) {
		return 2
	}
	return 1
}

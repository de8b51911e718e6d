package container

import (
	"context"
	"errors"
	"fmt"
	"strings"

	cwerrors "composewait/internal/errors"
	"composewait/internal/logger"
)

const (
	// DefaultInstallScriptURL is Docker's convenience install script
	DefaultInstallScriptURL = "https://get.docker.com"
	// DefaultInstallScriptPath is where the script is downloaded to
	DefaultInstallScriptPath = "get-docker.sh"
)

// Installer makes sure the docker CLI is present on the host
type Installer struct {
	runner     Runner
	reporter   logger.Reporter
	scriptURL  string
	scriptPath string
}

// NewInstaller creates an installer using the default get.docker.com script
func NewInstaller(runner Runner, reporter logger.Reporter) *Installer {
	if runner == nil {
		runner = NewExecRunner(nil)
	}
	if reporter == nil {
		reporter = logger.NewReporter(nil)
	}
	return &Installer{
		runner:     runner,
		reporter:   reporter,
		scriptURL:  DefaultInstallScriptURL,
		scriptPath: DefaultInstallScriptPath,
	}
}

// IsInstalled reports whether the docker CLI is on PATH
func (i *Installer) IsInstalled(ctx context.Context) bool {
	output, err := i.runner.Run(ctx, "sh", "-c", "command -v docker")
	return err == nil && strings.TrimSpace(output) != ""
}

// EnsureInstalled installs Docker when it is missing. A failure is reported
// through SetFailed and returned as an install error.
func (i *Installer) EnsureInstalled(ctx context.Context) error {
	if i.IsInstalled(ctx) {
		i.reporter.Info("Docker is already installed.", nil)
		return nil
	}

	i.reporter.Info("Docker is not installed. Installing Docker...", nil)

	if _, err := i.runner.Run(ctx, "curl", "-fsSL", i.scriptURL, "-o", i.scriptPath); err != nil {
		return i.fail(err)
	}
	if _, err := i.runner.Run(ctx, "sh", i.scriptPath); err != nil {
		return i.fail(err)
	}

	if !i.IsInstalled(ctx) {
		return i.fail(errors.New("docker not found on PATH after running install script"))
	}

	i.reporter.Info("Docker installed successfully.", nil)
	return nil
}

func (i *Installer) fail(err error) error {
	i.reporter.SetFailed(fmt.Sprintf("Failed to install Docker: %s", err.Error()), err)
	return cwerrors.Install(err)
}

package readiness

import (
	"context"
	"fmt"
	"strings"

	"composewait/internal/container"
	"composewait/internal/logger"
)

// Inspector discovers and classifies the containers of a service
type Inspector struct {
	querier  container.Querier
	reporter logger.Reporter
	opts     Options
}

// NewInspector creates an inspector
func NewInspector(querier container.Querier, reporter logger.Reporter, opts Options) *Inspector {
	return &Inspector{querier: querier, reporter: reporter, opts: opts}
}

// Discover returns the container ids currently backing service
func (i *Inspector) Discover(ctx context.Context, service string) ([]string, error) {
	return i.querier.ContainerIDs(ctx, service)
}

// Evaluate classifies one container. Run state is checked before health so
// that a stopped container is skipped under SkipExited without a health query.
func (i *Inspector) Evaluate(ctx context.Context, service, containerID string) (ContainerReport, error) {
	report := ContainerReport{ID: containerID}

	rawStatus, err := i.querier.RunState(ctx, containerID)
	if err != nil {
		return report, err
	}
	report.Status = strings.TrimSpace(rawStatus)
	report.RunState = ParseRunState(report.Status)

	if report.RunState != RunStateRunning && i.opts.SkipExited {
		i.reporter.Info(
			fmt.Sprintf("Skipping container %s because it is not running. Container: [%s]", service, containerID),
			logger.Fields{"service": service, "container": containerID, "status": report.Status},
		)
		report.Verdict = VerdictSkipped
		return report, nil
	}

	rawHealth, err := i.querier.HealthState(ctx, containerID)
	if err != nil {
		return report, err
	}
	report.Health = strings.TrimSpace(rawHealth)
	report.HealthState = ParseHealthState(report.Health)

	i.reporter.Info(fmt.Sprintf("Service: %s\n  Container: [%s] | %s", service, containerID, statusSuffix(report)), nil)

	if report.HealthState == HealthNoHealthcheck && i.opts.SkipNoHealthcheck {
		i.reporter.Warning(
			fmt.Sprintf("Skipping container %s without health check. Container: [%s] | %s", service, containerID, statusSuffix(report)),
			nil,
		)
		report.Verdict = VerdictSkipped
		return report, nil
	}

	if report.RunState == RunStateRunning && report.HealthState.Acceptable() {
		report.Verdict = VerdictReady
		return report, nil
	}

	i.reporter.Warning(
		fmt.Sprintf("Service: %s is not ready.  Container: [%s] | %s", service, containerID, statusSuffix(report)),
		nil,
	)
	report.Verdict = VerdictNotReady
	return report, nil
}

func statusSuffix(r ContainerReport) string {
	return fmt.Sprintf("Status: [%s] |  Health: [%s]", strings.ToUpper(r.Status), strings.ToUpper(r.Health))
}

package readiness

import (
	"context"
	"fmt"
	"strings"
	"time"

	"composewait/internal/container"
	cwerrors "composewait/internal/errors"
	"composewait/internal/logger"
)

// ServiceSource returns the declared service names in manifest order
type ServiceSource interface {
	ServiceNames(ctx context.Context) ([]string, error)
}

// Aggregator runs one attempt over every declared service
type Aggregator struct {
	source    ServiceSource
	inspector *Inspector
	reporter  logger.Reporter
	opts      Options
	now       func() time.Time
}

// NewAggregator creates an aggregator
func NewAggregator(source ServiceSource, inspector *Inspector, reporter logger.Reporter, opts Options) *Aggregator {
	return &Aggregator{
		source:    source,
		inspector: inspector,
		reporter:  reporter,
		opts:      opts,
		now:       time.Now,
	}
}

// CheckAllServices runs a single attempt and reports whether every service is ready.
// The error is non-nil only for fatal manifest load failures.
func (a *Aggregator) CheckAllServices(ctx context.Context) (bool, error) {
	report, err := a.Attempt(ctx, 1)
	return report.Healthy, err
}

// Attempt evaluates all services once. Configuration and query errors are
// reported and turn the attempt unhealthy; a load error is returned.
func (a *Aggregator) Attempt(ctx context.Context, attempt int) (*AttemptReport, error) {
	report := &AttemptReport{
		Attempt:    attempt,
		MaxRetries: a.opts.MaxRetries,
		StartedAt:  a.now(),
	}
	defer func() { report.FinishedAt = a.now() }()

	services, err := a.source.ServiceNames(ctx)
	if err != nil {
		if cwerrors.IsLoad(err) {
			a.fail(report, err)
			return report, err
		}
		a.fail(report, cwerrors.Query("read service names", err))
		return report, nil
	}

	if len(services) == 0 {
		a.reporter.Error("No services found", logger.Fields{"compose_file": a.opts.ComposeFile})
		a.fail(report, cwerrors.Config("no services declared in %s", a.opts.ComposeFile))
		return report, nil
	}

	a.reporter.Info(fmt.Sprintf("Checking %d container(s): %s", len(services), strings.Join(services, ", ")), nil)

	healthy := true
	evaluated := make(map[string]bool)

	for _, service := range services {
		serviceReport, ok, err := a.checkService(ctx, service, evaluated)
		report.Services = append(report.Services, serviceReport)
		if err != nil {
			a.fail(report, err)
			return report, nil
		}
		if !ok {
			healthy = false
		}
	}

	report.Healthy = healthy
	return report, nil
}

// checkService evaluates every container of one service. It never stops at the
// first not-ready container so the attempt report is complete.
func (a *Aggregator) checkService(ctx context.Context, service string, evaluated map[string]bool) (ServiceReport, bool, error) {
	report := ServiceReport{Name: service}

	ids, err := a.inspector.Discover(ctx, service)
	if err != nil {
		return report, false, err
	}

	if len(ids) == 0 || strings.TrimSpace(ids[0]) == "" {
		report.Missing = true
		if a.opts.SkipExited {
			report.Skipped = true
			return report, true, nil
		}
		a.reporter.Warning(fmt.Sprintf("No running container found for service: %s", service), logger.Fields{"service": service})
		return report, false, nil
	}

	ready := true
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		// Name filters match substrings, so one container can surface under several services.
		if evaluated[id] {
			logger.WithFields(logger.Fields{"service": service, "container": id}).Debug("Container already evaluated in this attempt")
			continue
		}
		evaluated[id] = true

		containerReport, err := a.inspector.Evaluate(ctx, service, id)
		if err != nil {
			return report, false, err
		}
		report.Containers = append(report.Containers, containerReport)
		if containerReport.Verdict == VerdictNotReady {
			ready = false
		}
	}

	return report, ready, nil
}

func (a *Aggregator) fail(report *AttemptReport, err error) {
	report.Healthy = false
	report.Error = err.Error()
	report.ErrorKind = cwerrors.KindOf(err)
	if report.ErrorKind == cwerrors.KindConfig {
		// Already reported as "No services found".
		return
	}
	if report.ErrorKind == cwerrors.KindQuery {
		op := fmt.Sprintf("attempt %d", report.Attempt)
		// Errors the next attempt cannot clear, such as a denied socket, stay visible.
		if container.NewErrorHandler().ShouldRetry(err) {
			container.LogContainerDebug(err, op)
		} else {
			container.LogContainerWarning(err, op)
		}
	}
	a.reporter.Error(fmt.Sprintf("Error during services check: %s", err.Error()), logger.Fields{"kind": string(report.ErrorKind)})
}

package readiness

// Observer receives poll progress. Implementations must not block for long:
// they run on the polling goroutine.
type Observer interface {
	RunStarted(opts Options)
	AttemptStarted(attempt, maxRetries int)
	AttemptFinished(report *AttemptReport)
	RunFinished(outcome Outcome, attempts int)
}

// Observers fans every event out to each observer in order
type Observers []Observer

func (o Observers) RunStarted(opts Options) {
	for _, obs := range o {
		obs.RunStarted(opts)
	}
}

func (o Observers) AttemptStarted(attempt, maxRetries int) {
	for _, obs := range o {
		obs.AttemptStarted(attempt, maxRetries)
	}
}

func (o Observers) AttemptFinished(report *AttemptReport) {
	for _, obs := range o {
		obs.AttemptFinished(report)
	}
}

func (o Observers) RunFinished(outcome Outcome, attempts int) {
	for _, obs := range o {
		obs.RunFinished(outcome, attempts)
	}
}

// NopObserver ignores every event
type NopObserver struct{}

func (NopObserver) RunStarted(Options) {}
func (NopObserver) AttemptStarted(int, int) {}
func (NopObserver) AttemptFinished(*AttemptReport) {}
func (NopObserver) RunFinished(Outcome, int) {}

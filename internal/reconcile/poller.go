package reconcile

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrNotFound is returned by a Fetcher when the assessment does not exist.
	ErrNotFound = errors.New("assessment not found")
	// ErrAttemptsExhausted ends Run when MaxAttempts fetches did not settle.
	ErrAttemptsExhausted = errors.New("polling attempts exhausted")
)

const DefaultMaxAttempts = 30

type Fetcher interface {
	Fetch(ctx context.Context) (Payload, error)
}

type FetcherFunc func(ctx context.Context) (Payload, error)

func (f FetcherFunc) Fetch(ctx context.Context) (Payload, error) { return f(ctx) }

type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// RealClock uses the runtime timers.
var RealClock Clock = realClock{}

// DefaultBackoff waits 3s before the second fetch and 1s more for each
// further one, up to 10s.
func DefaultBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := 3*time.Second + time.Duration(attempt-1)*time.Second
	if d > 10*time.Second {
		return 10 * time.Second
	}
	return d
}

// Poller fetches results until Decide reaches a final state. Fetches never
// overlap: each one completes before the next wait starts.
type Poller struct {
	Fetcher     Fetcher
	Clock       Clock
	Backoff     func(attempt int) time.Duration
	MaxAttempts int
	// Navigate is called with a redirect path when a decision carries one.
	Navigate   func(path string)
	OnDecision func(Decision)

	once  sync.Once
	retry chan struct{}
}

// Retry wakes a poller that stopped on a fetch error. Extra calls are dropped.
func (p *Poller) Retry() {
	p.init()
	select {
	case p.retry <- struct{}{}:
	default:
	}
}

func (p *Poller) init() {
	p.once.Do(func() { p.retry = make(chan struct{}, 1) })
}

// Run returns the last decision. The error is nil on a final decision,
// ErrAttemptsExhausted when the attempt cap is reached, or the context error.
func (p *Poller) Run(ctx context.Context) (Decision, error) {
	p.init()
	clock := p.Clock
	if clock == nil {
		clock = RealClock
	}
	backoff := p.Backoff
	if backoff == nil {
		backoff = DefaultBackoff
	}
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	last := Decision{State: StateLoading}
	p.emit(last)
	var seen Payload

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		payload, err := p.Fetcher.Fetch(ctx)
		if ctx.Err() != nil {
			return last, ctx.Err()
		}

		if err != nil {
			if errors.Is(err, ErrNotFound) {
				last = Decision{State: StateNotFound, Attempt: attempt, Message: "Assessment not found", Err: err}
				p.emit(last)
				return last, nil
			}
			if d, ok := manualReviewFailure(err, seen); ok {
				d.Attempt = attempt
				p.emit(d)
				if d.RedirectTo != "" && p.Navigate != nil {
					p.Navigate(d.RedirectTo)
				}
				return d, nil
			}
			last = Decision{State: StateError, Attempt: attempt, Retryable: true, Message: describe(err), Err: err}
			p.emit(last)
			select {
			case <-p.retry:
				continue
			case <-ctx.Done():
				return last, ctx.Err()
			}
		}

		seen = payload
		last = Decide(payload)
		last.Attempt = attempt
		p.emit(last)
		if last.RedirectTo != "" && p.Navigate != nil {
			p.Navigate(last.RedirectTo)
		}
		if !last.PollAgain {
			return last, nil
		}
		if attempt == maxAttempts {
			break
		}

		select {
		case <-clock.After(backoff(attempt)):
		case <-ctx.Done():
			return last, ctx.Err()
		}
	}
	return last, ErrAttemptsExhausted
}

func (p *Poller) emit(d Decision) {
	if p.OnDecision != nil {
		p.OnDecision(d)
	}
}

// manualReviewFailure turns a failed fetch whose message says the assessment
// went to manual processing into a redirect to the tier page. Identity the
// error lacks is taken from the last payload seen.
func manualReviewFailure(err error, seen Payload) (Decision, bool) {
	var fe *FetchError
	if !errors.As(err, &fe) || !mentionsManualReview(fe.Message) {
		return Decision{}, false
	}
	assessmentType, id, tier := fe.AssessmentType, fe.AssessmentID, fe.Tier
	if assessmentType == "" {
		assessmentType = seen.AssessmentType
	}
	if id == "" {
		id = seen.ID
	}
	if tier == "" {
		tier = seen.Tier
	}
	d := Decision{State: StatePendingManualReview, Message: fe.Message, Err: err}
	if assessmentType != "" && id != "" {
		d.RedirectTo = TierResultsPath(assessmentType, id, tier)
	}
	return d, true
}

func describe(err error) string {
	var se *FetchError
	if errors.As(err, &se) {
		return se.Message
	}
	return "We could not load your results. Please try again."
}
